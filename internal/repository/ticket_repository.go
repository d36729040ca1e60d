package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-dashboard/internal/records"
)

// TicketSource reads and writes raw exported ticket rows.
type TicketSource interface {
	ListRaw(ctx context.Context) ([]records.RawRow, error)
	Upsert(ctx context.Context, rows []records.RawRow) (int, error)
}

type ticketSource struct {
	pool *pgxpool.Pool
}

// NewTicketSource instantiates the Postgres-backed source.
func NewTicketSource(pool *pgxpool.Pool) TicketSource {
	return &ticketSource{pool: pool}
}

func (r *ticketSource) ListRaw(ctx context.Context) ([]records.RawRow, error) {
	const query = `
        SELECT id,
               COALESCE(created_at_format, ''), COALESCE(closed_at_format, ''),
               COALESCE(status, ''), COALESCE(problem_category, ''),
               COALESCE(assigned_to_name, ''), COALESCE(department, ''),
               COALESCE(location, '')
        FROM ticket_export
        ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []records.RawRow
	for rows.Next() {
		var row records.RawRow
		if err := rows.Scan(
			&row.ID,
			&row.CreatedAt,
			&row.ClosedAt,
			&row.Status,
			&row.ProblemCategory,
			&row.AssignedTo,
			&row.Department,
			&row.Location,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Upsert writes rows keyed by id in a single batch and returns how many were sent.
// Rows without an id are skipped.
func (r *ticketSource) Upsert(ctx context.Context, rows []records.RawRow) (int, error) {
	const query = `
        INSERT INTO ticket_export (id, created_at_format, closed_at_format, status, problem_category,
            assigned_to_name, department, location)
        VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
        ON CONFLICT (id) DO UPDATE SET
            created_at_format = EXCLUDED.created_at_format,
            closed_at_format = EXCLUDED.closed_at_format,
            status = EXCLUDED.status,
            problem_category = EXCLUDED.problem_category,
            assigned_to_name = EXCLUDED.assigned_to_name,
            department = EXCLUDED.department,
            location = EXCLUDED.location,
            imported_at = NOW()`

	batch := &pgx.Batch{}
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		batch.Queue(query,
			row.ID,
			row.CreatedAt,
			row.ClosedAt,
			row.Status,
			row.ProblemCategory,
			row.AssignedTo,
			row.Department,
			row.Location,
		)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("upsert row %d: %w", i, err)
		}
	}
	return batch.Len(), nil
}
