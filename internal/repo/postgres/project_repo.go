package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) (*domain.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	// List returns every project ordered oldest-first; the fleet is small and
	// the import orchestrator picks the first as the admin default.
	List(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ProjectPatch) (*domain.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

const projectCols = `id, name, location, status, start_date, end_date, created_at, updated_at`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.Name, &p.Location, &p.Status, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	const q = `
		INSERT INTO projects (name, location, status, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + projectCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := p.Status
	if status == "" {
		status = domain.ProjectPlanning
	}

	return scanProject(r.pool.QueryRow(ctx, q, p.Name, p.Location, status, p.StartDate, p.EndDate))
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	const q = `SELECT ` + projectCols + ` FROM projects WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProject(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *projectRepository) List(ctx context.Context) ([]domain.Project, error) {
	const q = `SELECT ` + projectCols + ` FROM projects ORDER BY created_at ASC, id ASC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Location, &p.Status, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectRepository) Update(ctx context.Context, id uuid.UUID, patch domain.ProjectPatch) (*domain.Project, error) {
	const q = `
		UPDATE projects SET
			name       = COALESCE($2, name),
			location   = COALESCE($3, location),
			status     = COALESCE($4, status),
			start_date = COALESCE($5, start_date),
			end_date   = COALESCE($6, end_date),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + projectCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProject(r.pool.QueryRow(ctx, q, id, patch.Name, patch.Location, patch.Status, patch.StartDate, patch.EndDate))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM projects WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}
