package agency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agencyhub/internal/agency/models"
	"agencyhub/internal/platform/postgres"
	"agencyhub/pkg/platform/sentinel"
)

// PostgresStore persists agencies in the agencies table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Agency) error {
	query := `
		INSERT INTO agencies (agency_id, name, address1, address2, state, city, phone_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.AgencyID, a.Name, a.Address1, a.Address2, a.State, a.City, a.PhoneNumber, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert agency: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, agencyID string) (*models.Agency, error) {
	query := `
		SELECT agency_id, name, address1, address2, state, city, phone_number, created_at, updated_at
		FROM agencies WHERE agency_id = $1
	`
	var a models.Agency
	err := s.db.QueryRowContext(ctx, query, agencyID).Scan(
		&a.AgencyID, &a.Name, &a.Address1, &a.Address2, &a.State, &a.City, &a.PhoneNumber, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find agency: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) Delete(ctx context.Context, agencyID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agencies WHERE agency_id = $1`, agencyID)
	if err != nil {
		return fmt.Errorf("delete agency: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete agency: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
