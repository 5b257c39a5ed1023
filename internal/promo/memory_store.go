package promo

import (
	"context"
	"sync"
	"time"

	"github.com/oasisai/commerce/internal/pagination"
)

// MemoryStore is an in-memory promo store for demo/development mode.
type MemoryStore struct {
	codes  map[string]*Code  // by ID
	byCode map[string]string // normalized code → ID
	usages map[string]*Usage // promoID + "\x00" + email → usage
	order  []string          // usage IDs in insertion order
	byID   map[string]*Usage // usage ID → usage
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory promo store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		codes:  make(map[string]*Code),
		byCode: make(map[string]string),
		usages: make(map[string]*Usage),
		byID:   make(map[string]*Usage),
	}
}

func usageKey(promoID, email string) string {
	return promoID + "\x00" + NormalizeEmail(email)
}

func (m *MemoryStore) Create(ctx context.Context, code *Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized := NormalizeCode(code.Code)
	if _, ok := m.byCode[normalized]; ok {
		return ErrDuplicateCode
	}
	code.Code = normalized

	cp := *code
	m.codes[code.ID] = &cp
	m.byCode[normalized] = code.ID
	return nil
}

func (m *MemoryStore) GetByCode(ctx context.Context, code string) (*Code, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byCode[NormalizeCode(code)]
	if !ok {
		return nil, ErrCodeNotFound
	}
	cp := *m.codes[id]
	return &cp, nil
}

func (m *MemoryStore) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code, ok := m.codes[id]
	if !ok {
		return ErrCodeNotFound
	}
	code.IsActive = active
	code.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ListCodes(ctx context.Context, limit int) ([]*Code, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Code
	for _, code := range m.codes {
		cp := *code
		result = append(result, &cp)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *MemoryStore) HasUsage(ctx context.Context, promoID, userEmail string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.usages[usageKey(promoID, userEmail)]
	return ok, nil
}

func (m *MemoryStore) RecordUsage(ctx context.Context, usage *Usage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := usageKey(usage.PromoCodeID, usage.UserEmail)
	if _, ok := m.usages[key]; ok {
		return false, nil
	}

	cp := *usage
	cp.UserEmail = NormalizeEmail(usage.UserEmail)
	m.usages[key] = &cp
	m.byID[cp.ID] = &cp
	m.order = append(m.order, cp.ID)
	return true, nil
}

func (m *MemoryStore) IncrementUses(ctx context.Context, promoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code, ok := m.codes[promoID]
	if !ok {
		return ErrCodeNotFound
	}
	if code.MaxUses > 0 && code.UsesCount >= code.MaxUses {
		// Cap already reached; the usage row still stands.
		return nil
	}
	code.UsesCount++
	code.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ListUsages(ctx context.Context, promoID string, after *pagination.Cursor, limit int) ([]*Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Usage
	// Newest first: walk the insertion order backwards.
	for i := len(m.order) - 1; i >= 0; i-- {
		u := m.byID[m.order[i]]
		if u.PromoCodeID != promoID {
			continue
		}
		if after != nil && !beforeCursor(u, after) {
			continue
		}
		cp := *u
		result = append(result, &cp)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// beforeCursor reports whether a usage sorts strictly after the cursor
// position in newest-first order.
func beforeCursor(u *Usage, c *pagination.Cursor) bool {
	if u.CreatedAt.Before(c.CreatedAt) {
		return true
	}
	return u.CreatedAt.Equal(c.CreatedAt) && u.ID < c.ID
}
