package fulfillment

import (
	"context"
	"database/sql"
)

// PostgresStore persists processed webhook events in PostgreSQL. The primary
// key on the provider event ID is what makes redelivery detection reliable
// across service restarts and replicas.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the processed events table
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS processed_events (
			id            VARCHAR(255) PRIMARY KEY,
			provider      VARCHAR(32) NOT NULL,
			event_type    VARCHAR(128) NOT NULL,
			order_id      VARCHAR(255),
			processed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_processed_events_order ON processed_events(order_id);
	`)
	return err
}

func (p *PostgresStore) MarkProcessed(ctx context.Context, event *Event) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO processed_events (id, provider, event_type, order_id, processed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, event.ID, event.Provider, event.Type, nullStringOrValue(event.OrderID), event.ProcessedAt)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Event, error) {
	event := &Event{}
	var orderID sql.NullString

	err := p.db.QueryRowContext(ctx, `
		SELECT id, provider, event_type, order_id, processed_at
		FROM processed_events WHERE id = $1
	`, id).Scan(&event.ID, &event.Provider, &event.Type, &orderID, &event.ProcessedAt)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	event.OrderID = orderID.String
	return event, nil
}

func nullStringOrValue(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
