package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) (*domain.Activity, error)
	List(ctx context.Context, limit, offset int) ([]domain.Activity, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

const activityCols = `id, user_id, action, target_type, target_id, detail, created_at`

func (r *activityRepository) Create(ctx context.Context, a *domain.Activity) (*domain.Activity, error) {
	const q = `
		INSERT INTO activity (user_id, action, target_type, target_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + activityCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.Activity
	err := r.pool.QueryRow(ctx, q, a.UserID, a.Action, a.TargetType, a.TargetID, a.Detail).Scan(
		&out.ID, &out.UserID, &out.Action, &out.TargetType, &out.TargetID, &out.Detail, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *activityRepository) List(ctx context.Context, limit, offset int) ([]domain.Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + activityCols + ` FROM activity ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.TargetType, &a.TargetID, &a.Detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}
