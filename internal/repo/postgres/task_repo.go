package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, status *domain.TaskStatus, limit, offset int) ([]domain.Task, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type taskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskCols = `id, project_id, title, description, status, priority, assignee_id, due_date, created_by, created_at, updated_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.AssigneeID, &t.DueDate, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *taskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	const q = `
		INSERT INTO tasks (project_id, title, description, status, priority, assignee_id, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + taskCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := t.Status
	if status == "" {
		status = domain.TaskPending
	}
	priority := t.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	return scanTask(r.pool.QueryRow(ctx, q, t.ProjectID, t.Title, t.Description, status, priority, t.AssigneeID, t.DueDate, t.CreatedBy))
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	const q = `SELECT ` + taskCols + ` FROM tasks WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scanTask(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID uuid.UUID, status *domain.TaskStatus, limit, offset int) ([]domain.Task, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		const q = `SELECT ` + taskCols + ` FROM tasks WHERE project_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		rows, err = r.pool.Query(ctx, q, projectID, *status, limit, offset)
	} else {
		const q = `SELECT ` + taskCols + ` FROM tasks WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = r.pool.Query(ctx, q, projectID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.AssigneeID, &t.DueDate, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	const q = `
		UPDATE tasks SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			status      = COALESCE($4, status),
			priority    = COALESCE($5, priority),
			assignee_id = COALESCE($6, assignee_id),
			due_date    = COALESCE($7, due_date),
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + taskCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scanTask(r.pool.QueryRow(ctx, q, id, patch.Title, patch.Description, patch.Status, patch.Priority, patch.AssigneeID, patch.DueDate))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM tasks WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}
