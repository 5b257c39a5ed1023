package promo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/oasisai/commerce/internal/pagination"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL.
//
// The UNIQUE constraint on (promo_code_id, user_email) is what makes
// RecordUsage idempotent under concurrent webhook redelivery; the Go code
// never needs its own locking.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed promo store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the promo tables if they don't exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS promo_codes (
			id             VARCHAR(36) PRIMARY KEY,
			code           VARCHAR(64) NOT NULL UNIQUE,
			discount_type  VARCHAR(20) NOT NULL,
			discount_value BIGINT NOT NULL,
			applies_to     VARCHAR(20) NOT NULL,
			max_uses       BIGINT NOT NULL DEFAULT 0,
			uses_count     BIGINT NOT NULL DEFAULT 0,
			valid_from     TIMESTAMPTZ,
			valid_until    TIMESTAMPTZ,
			is_active      BOOLEAN NOT NULL DEFAULT TRUE,
			created_at     TIMESTAMPTZ DEFAULT NOW(),
			updated_at     TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS promo_code_usages (
			id                    VARCHAR(36) PRIMARY KEY,
			promo_code_id         VARCHAR(36) NOT NULL REFERENCES promo_codes(id),
			user_email            VARCHAR(320) NOT NULL,
			user_id               VARCHAR(64),
			order_id              VARCHAR(128),
			discount_amount_cents BIGINT NOT NULL DEFAULT 0,
			created_at            TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (promo_code_id, user_email)
		);
		CREATE INDEX IF NOT EXISTS idx_promo_usages_promo ON promo_code_usages(promo_code_id);
	`)
	return err
}

func (p *PostgresStore) Create(ctx context.Context, code *Code) error {
	code.Code = NormalizeCode(code.Code)
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO promo_codes (
			id, code, discount_type, discount_value, applies_to,
			max_uses, uses_count, valid_from, valid_until, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		code.ID, code.Code, string(code.DiscountType), code.DiscountValue, string(code.AppliesTo),
		code.MaxUses, code.UsesCount, nullTimeOrValue(code.ValidFrom), nullTimeOrValue(code.ValidUntil),
		code.IsActive, code.CreatedAt, code.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert promo code: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code string) (*Code, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, code, discount_type, discount_value, applies_to,
			max_uses, uses_count, valid_from, valid_until, is_active,
			created_at, updated_at
		FROM promo_codes WHERE code = $1
	`, NormalizeCode(code))

	promo, err := scanCode(row)
	if err == sql.ErrNoRows {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	return promo, nil
}

func (p *PostgresStore) SetActive(ctx context.Context, id string, active bool) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE promo_codes SET is_active = $2, updated_at = NOW() WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("set promo active: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (p *PostgresStore) ListCodes(ctx context.Context, limit int) ([]*Code, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, code, discount_type, discount_value, applies_to,
			max_uses, uses_count, valid_from, valid_until, is_active,
			created_at, updated_at
		FROM promo_codes ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Code
	for rows.Next() {
		code, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, code)
	}
	return result, rows.Err()
}

func (p *PostgresStore) HasUsage(ctx context.Context, promoID, userEmail string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM promo_code_usages
			WHERE promo_code_id = $1 AND user_email = $2
		)
	`, promoID, NormalizeEmail(userEmail)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check promo usage: %w", err)
	}
	return exists, nil
}

func (p *PostgresStore) RecordUsage(ctx context.Context, usage *Usage) (bool, error) {
	result, err := p.db.ExecContext(ctx, `
		INSERT INTO promo_code_usages (
			id, promo_code_id, user_email, user_id, order_id,
			discount_amount_cents, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (promo_code_id, user_email) DO NOTHING
	`,
		usage.ID, usage.PromoCodeID, NormalizeEmail(usage.UserEmail),
		nullStringOrValue(usage.UserID), nullStringOrValue(usage.OrderID),
		usage.DiscountAmount, usage.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("record promo usage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

// IncrementUses bumps uses_count atomically. The WHERE clause re-checks the
// cap so concurrent redemptions can never push the counter past max_uses.
// Not finding a row to update is not an error: the usage row already stands.
func (p *PostgresStore) IncrementUses(ctx context.Context, promoID string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE promo_codes
		SET uses_count = uses_count + 1, updated_at = NOW()
		WHERE id = $1 AND (max_uses = 0 OR uses_count < max_uses)
	`, promoID)
	if err != nil {
		return fmt.Errorf("increment promo uses: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListUsages(ctx context.Context, promoID string, after *pagination.Cursor, limit int) ([]*Usage, error) {
	query := `
		SELECT id, promo_code_id, user_email, user_id, order_id,
			discount_amount_cents, created_at
		FROM promo_code_usages
		WHERE promo_code_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2
	`
	args := []interface{}{promoID, limit}
	if after != nil {
		query = `
			SELECT id, promo_code_id, user_email, user_id, order_id,
				discount_amount_cents, created_at
			FROM promo_code_usages
			WHERE promo_code_id = $1 AND (created_at, id) < ($3, $4)
			ORDER BY created_at DESC, id DESC LIMIT $2
		`
		args = append(args, after.CreatedAt, after.ID)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list promo usages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Usage
	for rows.Next() {
		var u Usage
		var userID, orderID sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(
			&u.ID, &u.PromoCodeID, &u.UserEmail, &userID, &orderID,
			&u.DiscountAmount, &createdAt,
		); err != nil {
			return nil, err
		}
		u.UserID = userID.String
		u.OrderID = orderID.String
		if createdAt.Valid {
			u.CreatedAt = createdAt.Time
		}
		result = append(result, &u)
	}
	return result, rows.Err()
}

// scannable abstracts *sql.Row and *sql.Rows for shared scanning logic.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanCode(row scannable) (*Code, error) {
	var code Code
	var discountType, appliesTo string
	var validFrom, validUntil, createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&code.ID, &code.Code, &discountType, &code.DiscountValue, &appliesTo,
		&code.MaxUses, &code.UsesCount, &validFrom, &validUntil, &code.IsActive,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	code.DiscountType = DiscountType(discountType)
	code.AppliesTo = AppliesTo(appliesTo)
	if validFrom.Valid {
		code.ValidFrom = validFrom.Time
	}
	if validUntil.Valid {
		code.ValidUntil = validUntil.Time
	}
	if createdAt.Valid {
		code.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		code.UpdatedAt = updatedAt.Time
	}
	return &code, nil
}

// nullTimeOrValue returns a sql.NullTime: valid if t is non-zero, null otherwise.
func nullTimeOrValue(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// nullStringOrValue returns a sql.NullString: valid if s is non-empty.
func nullStringOrValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
