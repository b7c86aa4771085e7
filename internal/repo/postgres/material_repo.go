package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

// ErrInsufficientStock is returned when a transfer or consumption would push
// a material's quantity below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

type MaterialRepository interface {
	Create(ctx context.Context, m *domain.Material) (*domain.Material, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Material, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Material, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta float64) (*domain.Material, error)
	Transfer(ctx context.Context, t *domain.Transfer) (*domain.Transfer, error)
	Consume(ctx context.Context, c *domain.Consumption) (*domain.Consumption, error)
	ListTransfers(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]domain.Transfer, error)
	ListConsumption(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]domain.Consumption, error)
}

type materialRepository struct {
	pool *pgxpool.Pool
}

func NewMaterialRepository(pool *pgxpool.Pool) MaterialRepository {
	return &materialRepository{pool: pool}
}

const materialCols = `id, project_id, name, unit, quantity, created_at, updated_at`

func scanMaterial(row pgx.Row) (*domain.Material, error) {
	var m domain.Material
	err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Unit, &m.Quantity, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *materialRepository) Create(ctx context.Context, m *domain.Material) (*domain.Material, error) {
	const q = `
		INSERT INTO materials (project_id, name, unit, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, name, unit)
		DO UPDATE SET quantity = materials.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING ` + materialCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanMaterial(r.pool.QueryRow(ctx, q, m.ProjectID, m.Name, m.Unit, m.Quantity))
}

func (r *materialRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Material, error) {
	const q = `SELECT ` + materialCols + ` FROM materials WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	m, err := scanMaterial(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *materialRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Material, error) {
	const q = `SELECT ` + materialCols + ` FROM materials WHERE project_id = $1 ORDER BY name ASC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []domain.Material
	for rows.Next() {
		var m domain.Material
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Unit, &m.Quantity, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (r *materialRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta float64) (*domain.Material, error) {
	const q = `
		UPDATE materials SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING ` + materialCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	m, err := scanMaterial(r.pool.QueryRow(ctx, q, id, delta))
	if err == pgx.ErrNoRows {
		return nil, ErrInsufficientStock
	}
	return m, err
}

// Transfer moves quantity between sites in one transaction: lock and decrement
// the source, upsert the same material at the destination, record the movement.
func (r *materialRepository) Transfer(ctx context.Context, t *domain.Transfer) (*domain.Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var (
		name     string
		unit     string
		quantity float64
	)
	err = tx.QueryRow(ctx, `SELECT name, unit, quantity FROM materials WHERE id = $1 AND project_id = $2 FOR UPDATE`,
		t.MaterialID, t.FromProjectID).Scan(&name, &unit, &quantity)
	if err == pgx.ErrNoRows {
		return nil, errors.New("material not found at source project")
	}
	if err != nil {
		return nil, err
	}
	if quantity < t.Quantity {
		return nil, ErrInsufficientStock
	}

	if _, err := tx.Exec(ctx, `UPDATE materials SET quantity = quantity - $2, updated_at = now() WHERE id = $1`,
		t.MaterialID, t.Quantity); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO materials (project_id, name, unit, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, name, unit)
		DO UPDATE SET quantity = materials.quantity + EXCLUDED.quantity, updated_at = now()`,
		t.ToProjectID, name, unit, t.Quantity); err != nil {
		return nil, err
	}

	var out domain.Transfer
	err = tx.QueryRow(ctx, `
		INSERT INTO transfers (material_id, from_project_id, to_project_id, quantity, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, material_id, from_project_id, to_project_id, quantity, notes, created_by, created_at`,
		t.MaterialID, t.FromProjectID, t.ToProjectID, t.Quantity, t.Notes, t.CreatedBy).Scan(
		&out.ID, &out.MaterialID, &out.FromProjectID, &out.ToProjectID, &out.Quantity, &out.Notes, &out.CreatedBy, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *materialRepository) Consume(ctx context.Context, c *domain.Consumption) (*domain.Consumption, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE materials SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND project_id = $3 AND quantity >= $2`,
		c.MaterialID, c.Quantity, c.ProjectID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInsufficientStock
	}

	var out domain.Consumption
	err = tx.QueryRow(ctx, `
		INSERT INTO consumption (material_id, project_id, task_id, quantity, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, material_id, project_id, task_id, quantity, notes, created_by, created_at`,
		c.MaterialID, c.ProjectID, c.TaskID, c.Quantity, c.Notes, c.CreatedBy).Scan(
		&out.ID, &out.MaterialID, &out.ProjectID, &out.TaskID, &out.Quantity, &out.Notes, &out.CreatedBy, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *materialRepository) ListTransfers(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]domain.Transfer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT id, material_id, from_project_id, to_project_id, quantity, notes, created_by, created_at
		FROM transfers
		WHERE from_project_id = $1 OR to_project_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(&t.ID, &t.MaterialID, &t.FromProjectID, &t.ToProjectID, &t.Quantity, &t.Notes, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func (r *materialRepository) ListConsumption(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]domain.Consumption, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT id, material_id, project_id, task_id, quantity, notes, created_by, created_at
		FROM consumption
		WHERE project_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Consumption
	for rows.Next() {
		var c domain.Consumption
		if err := rows.Scan(&c.ID, &c.MaterialID, &c.ProjectID, &c.TaskID, &c.Quantity, &c.Notes, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, c)
	}
	return entries, rows.Err()
}
