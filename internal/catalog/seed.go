package catalog

// Production catalog. Prices are USD cents and must stay in sync with the
// published pricing page.
var defaultAutomations = []*Automation{
	{
		ID:          "email",
		Name:        "AI Email Automation",
		Description: "Inbox triage, drafting, and follow-up sequences run by AI.",
		SetupFee:    99700,
		TierPrices: map[Tier]int64{
			TierStarter:      19700,
			TierProfessional: 29700,
			TierBusiness:     49700,
		},
		Features: []string{
			"Automated inbox triage and labelling",
			"AI-drafted replies for approval",
			"Follow-up sequences with smart timing",
			"Weekly performance digest",
		},
	},
	{
		ID:          "leadgen",
		Name:        "AI Lead Generation",
		Description: "Prospect sourcing, enrichment, and outreach on autopilot.",
		SetupFee:    129700,
		TierPrices: map[Tier]int64{
			TierStarter:      24700,
			TierProfessional: 39700,
			TierBusiness:     59700,
		},
		Features: []string{
			"ICP-matched prospect sourcing",
			"Contact enrichment and verification",
			"Personalised outreach campaigns",
			"CRM sync",
		},
	},
	{
		ID:          "chatbot",
		Name:        "AI Support Chatbot",
		Description: "24/7 website and WhatsApp support trained on your docs.",
		SetupFee:    89700,
		TierPrices: map[Tier]int64{
			TierStarter:      14700,
			TierProfessional: 24700,
			TierBusiness:     39700,
		},
		Features: []string{
			"Trained on your knowledge base",
			"Website and WhatsApp channels",
			"Human handoff with full context",
			"Conversation analytics",
		},
	},
	{
		ID:          "social",
		Name:        "AI Social Media Manager",
		Description: "Content calendar, post generation, and scheduling.",
		SetupFee:    79700,
		TierPrices: map[Tier]int64{
			TierStarter:      14700,
			TierProfessional: 22700,
			TierBusiness:     34700,
		},
		Features: []string{
			"Monthly content calendar",
			"On-brand post and caption generation",
			"Cross-platform scheduling",
			"Engagement reporting",
		},
	},
	{
		ID:          "invoicing",
		Name:        "AI Invoicing & Collections",
		Description: "Invoice generation, payment reminders, and reconciliation.",
		SetupFee:    69700,
		TierPrices: map[Tier]int64{
			TierStarter:      12700,
			TierProfessional: 19700,
			TierBusiness:     29700,
		},
		Features: []string{
			"Automatic invoice generation",
			"Polite escalating payment reminders",
			"Payment reconciliation",
			"Cash-flow summary",
		},
	},
}

var defaultBundles = []*Bundle{
	{
		ID:         "launchpad",
		Name:       "Launchpad Bundle",
		SetupFee:   149700,
		MonthlyFee: 34700,
		IdealFor:   "Solo founders and small teams getting started with automation",
		Tag:        "Most popular",
		Features: []string{
			"AI Email Automation (professional tier)",
			"AI Support Chatbot (starter tier)",
			"Shared automation dashboard",
			"Priority email support",
		},
	},
	{
		ID:         "growth",
		Name:       "Growth Bundle",
		SetupFee:   249700,
		MonthlyFee: 59700,
		IdealFor:   "Teams ready to automate sales and support end to end",
		Features: []string{
			"AI Lead Generation (professional tier)",
			"AI Email Automation (professional tier)",
			"AI Support Chatbot (professional tier)",
			"Quarterly automation review",
		},
	},
	{
		ID:         "scale",
		Name:       "Scale Bundle",
		SetupFee:   399700,
		MonthlyFee: 99700,
		IdealFor:   "Established businesses automating every customer touchpoint",
		Tag:        "Best value",
		Features: []string{
			"All five automations (business tier)",
			"Dedicated automation engineer",
			"Custom integrations",
			"Same-day support SLA",
		},
	},
}
