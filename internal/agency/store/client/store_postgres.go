package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"agencyhub/internal/agency/models"
	"agencyhub/internal/platform/postgres"
	"agencyhub/pkg/platform/sentinel"
)

const clientColumns = `client_id, agency_id, name, email, phone_number, total_bill, created_at, updated_at`

// PostgresStore persists clients in the clients table. Batches are inserted
// in one transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateMany(ctx context.Context, clients []*models.Client) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin client batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO clients (`+clientColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("prepare client insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range clients {
		_, err = stmt.ExecContext(ctx, c.ClientID, c.AgencyID, c.Name, c.Email, c.PhoneNumber, c.TotalBill, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.AlreadyUsed(c.ClientID)
			}
			return fmt.Errorf("insert client %s: %w", c.ClientID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit client batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindExistingIDs(ctx context.Context, clientIDs []string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT client_id FROM clients WHERE client_id = ANY($1)`, pq.Array(clientIDs))
	if err != nil {
		return nil, fmt.Errorf("find existing clients: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan client id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) FindByID(ctx context.Context, clientID string) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE client_id = $1`, clientID)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, clientID string, patch models.ClientPatch, now time.Time) (*models.Client, error) {
	args := []any{clientID}
	var sets []string
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.AgencyID != nil {
		set("agency_id", *patch.AgencyID)
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.PhoneNumber != nil {
		set("phone_number", *patch.PhoneNumber)
	}
	if patch.TotalBill != nil {
		set("total_bill", *patch.TotalBill)
	}
	set("updated_at", now)

	query := `UPDATE clients SET ` + strings.Join(sets, ", ") + ` WHERE client_id = $1 RETURNING ` + clientColumns
	c, err := scanClient(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

// DeleteMany removes the listed clients that still belong to agencyID.
func (s *PostgresStore) DeleteMany(ctx context.Context, agencyID string, clientIDs []string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE agency_id = $1 AND client_id = ANY($2)`, agencyID, pq.Array(clientIDs))
	if err != nil {
		return 0, fmt.Errorf("delete clients: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) CountByAgency(ctx context.Context, agencyID string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE agency_id = $1`, agencyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (*models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ClientID, &c.AgencyID, &c.Name, &c.Email, &c.PhoneNumber, &c.TotalBill, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
