package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

type PettyCashRepository interface {
	Create(ctx context.Context, e *domain.PettyCashEntry) (*domain.PettyCashEntry, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]domain.PettyCashEntry, error)
	Balance(ctx context.Context, projectID uuid.UUID) (float64, error)
}

type pettyCashRepository struct {
	pool *pgxpool.Pool
}

func NewPettyCashRepository(pool *pgxpool.Pool) PettyCashRepository {
	return &pettyCashRepository{pool: pool}
}

const pettyCashCols = `id, project_id, entry_type, amount, description, created_by, created_at`

func (r *pettyCashRepository) Create(ctx context.Context, e *domain.PettyCashEntry) (*domain.PettyCashEntry, error) {
	const q = `
		INSERT INTO petty_cash (project_id, entry_type, amount, description, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + pettyCashCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.PettyCashEntry
	err := r.pool.QueryRow(ctx, q, e.ProjectID, e.Type, e.Amount, e.Description, e.CreatedBy).Scan(
		&out.ID, &out.ProjectID, &out.Type, &out.Amount, &out.Description, &out.CreatedBy, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *pettyCashRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]domain.PettyCashEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + pettyCashCols + ` FROM petty_cash WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PettyCashEntry
	for rows.Next() {
		var e domain.PettyCashEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Type, &e.Amount, &e.Description, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pettyCashRepository) Balance(ctx context.Context, projectID uuid.UUID) (float64, error) {
	const q = `
		SELECT COALESCE(SUM(CASE WHEN entry_type = 'credit' THEN amount ELSE -amount END), 0)
		FROM petty_cash WHERE project_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var balance float64
	err := r.pool.QueryRow(ctx, q, projectID).Scan(&balance)
	return balance, err
}
