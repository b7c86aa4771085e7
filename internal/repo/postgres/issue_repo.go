package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

type IssueRepository interface {
	Create(ctx context.Context, i *domain.Issue) (*domain.Issue, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Issue, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, status *domain.IssueStatus, limit, offset int) ([]domain.Issue, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.IssuePatch) (*domain.Issue, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueCols = `id, project_id, title, description, status, severity, assignee_id, reported_by, created_at, updated_at`

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var i domain.Issue
	err := row.Scan(
		&i.ID, &i.ProjectID, &i.Title, &i.Description, &i.Status, &i.Severity,
		&i.AssigneeID, &i.ReportedBy, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *issueRepository) Create(ctx context.Context, i *domain.Issue) (*domain.Issue, error) {
	const q = `
		INSERT INTO issues (project_id, title, description, status, severity, assignee_id, reported_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + issueCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := i.Status
	if status == "" {
		status = domain.IssueOpen
	}
	severity := i.Severity
	if severity == "" {
		severity = domain.SeverityMinor
	}

	return scanIssue(r.pool.QueryRow(ctx, q, i.ProjectID, i.Title, i.Description, status, severity, i.AssigneeID, i.ReportedBy))
}

func (r *issueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Issue, error) {
	const q = `SELECT ` + issueCols + ` FROM issues WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	i, err := scanIssue(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return i, err
}

func (r *issueRepository) ListByProject(ctx context.Context, projectID uuid.UUID, status *domain.IssueStatus, limit, offset int) ([]domain.Issue, error) {
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
		const q = `SELECT ` + issueCols + ` FROM issues WHERE project_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		rows, err = r.pool.Query(ctx, q, projectID, *status, limit, offset)
	} else {
		const q = `SELECT ` + issueCols + ` FROM issues WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = r.pool.Query(ctx, q, projectID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		var i domain.Issue
		if err := rows.Scan(
			&i.ID, &i.ProjectID, &i.Title, &i.Description, &i.Status, &i.Severity,
			&i.AssigneeID, &i.ReportedBy, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

func (r *issueRepository) Update(ctx context.Context, id uuid.UUID, patch domain.IssuePatch) (*domain.Issue, error) {
	const q = `
		UPDATE issues SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			status      = COALESCE($4, status),
			severity    = COALESCE($5, severity),
			assignee_id = COALESCE($6, assignee_id),
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + issueCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	i, err := scanIssue(r.pool.QueryRow(ctx, q, id, patch.Title, patch.Description, patch.Status, patch.Severity, patch.AssigneeID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return i, err
}

func (r *issueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM issues WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}
