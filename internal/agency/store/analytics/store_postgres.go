package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"agencyhub/internal/agency/models"
)

// PostgresStore ranks clients per agency with a window function.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const topClientsQuery = `
	WITH ranked AS (
		SELECT c.agency_id, c.name, c.total_bill, c.created_at, c.seq,
			RANK() OVER (PARTITION BY c.agency_id ORDER BY c.total_bill DESC) AS bill_rank
		FROM clients c
	)
	SELECT a.name, r.name, r.total_bill
	FROM ranked r
	JOIN agencies a ON a.agency_id = r.agency_id
	WHERE r.bill_rank = 1
	ORDER BY r.total_bill DESC, r.created_at, r.seq
`

func (s *PostgresStore) TopClientsPerAgency(ctx context.Context) ([]models.TopClient, error) {
	rows, err := s.db.QueryContext(ctx, topClientsQuery)
	if err != nil {
		return nil, fmt.Errorf("query top clients: %w", err)
	}
	defer rows.Close()

	var out []models.TopClient
	for rows.Next() {
		var t models.TopClient
		if err := rows.Scan(&t.AgencyName, &t.ClientName, &t.TotalBill); err != nil {
			return nil, fmt.Errorf("scan top client: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
