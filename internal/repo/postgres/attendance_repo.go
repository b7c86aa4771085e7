package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

type AttendanceFilter struct {
	UserID    *uuid.UUID
	ProjectID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type AttendanceSummary struct {
	Day        time.Time `json:"day"`
	Present    int       `json:"present"`
	HalfDay    int       `json:"half_day"`
	OnLeave    int       `json:"on_leave"`
	Absent     int       `json:"absent"`
	TotalHours float64   `json:"total_hours"`
}

type AttendanceRepository interface {
	Create(ctx context.Context, a *domain.Attendance) (*domain.Attendance, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attendance, error)
	GetByUserAndDay(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.Attendance, error)
	UpdateSpan(ctx context.Context, id uuid.UUID, checkIn, checkOut time.Time, workHours float64) (*domain.Attendance, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AttendanceStatus, notes string) (*domain.Attendance, error)
	List(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceExpanded, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.AttendanceExpanded, error)
	Summary(ctx context.Context, projectID uuid.UUID, from, to time.Time) ([]AttendanceSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type attendanceRepository struct {
	pool *pgxpool.Pool
}

func NewAttendanceRepository(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepository{pool: pool}
}

const attendanceCols = `id, user_id, project_id, day, check_in, check_out, work_hours,
status, latitude, longitude, photo_url, notes, created_at, updated_at`

func scanAttendance(row pgx.Row) (*domain.Attendance, error) {
	var a domain.Attendance
	err := row.Scan(
		&a.ID, &a.UserID, &a.ProjectID, &a.Day, &a.CheckIn, &a.CheckOut, &a.WorkHours,
		&a.Status, &a.Latitude, &a.Longitude, &a.PhotoURL, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// IsUniqueViolation reports whether err is the store's duplicate-key error.
// The attendance table carries UNIQUE (user_id, day) as a last-resort guard
// against concurrent imports creating twin records.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *attendanceRepository) Create(ctx context.Context, a *domain.Attendance) (*domain.Attendance, error) {
	const q = `
		INSERT INTO attendance (user_id, project_id, day, check_in, check_out, work_hours, status, latitude, longitude, photo_url, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + attendanceCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanAttendance(r.pool.QueryRow(ctx, q,
		a.UserID, a.ProjectID, a.Day, a.CheckIn, a.CheckOut, a.WorkHours,
		a.Status, a.Latitude, a.Longitude, a.PhotoURL, a.Notes,
	))
}

func (r *attendanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attendance, error) {
	const q = `SELECT ` + attendanceCols + ` FROM attendance WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAttendance(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *attendanceRepository) GetByUserAndDay(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.Attendance, error) {
	const q = `SELECT ` + attendanceCols + ` FROM attendance WHERE user_id = $1 AND day = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAttendance(r.pool.QueryRow(ctx, q, userID, day))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *attendanceRepository) UpdateSpan(ctx context.Context, id uuid.UUID, checkIn, checkOut time.Time, workHours float64) (*domain.Attendance, error) {
	const q = `
		UPDATE attendance SET check_in = $2, check_out = $3, work_hours = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + attendanceCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAttendance(r.pool.QueryRow(ctx, q, id, checkIn, checkOut, workHours))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *attendanceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AttendanceStatus, notes string) (*domain.Attendance, error) {
	const q = `
		UPDATE attendance SET status = $2, notes = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + attendanceCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAttendance(r.pool.QueryRow(ctx, q, id, status, notes))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

const attendanceExpandedSelect = `
	SELECT a.id, a.user_id, a.project_id, a.day, a.check_in, a.check_out, a.work_hours,
	       a.status, a.latitude, a.longitude, a.photo_url, a.notes, a.created_at, a.updated_at,
	       u.name, COALESCE(p.name, '')
	FROM attendance a
	JOIN users u ON u.id = a.user_id
	LEFT JOIN projects p ON p.id = a.project_id`

func collectExpanded(rows pgx.Rows) ([]domain.AttendanceExpanded, error) {
	var records []domain.AttendanceExpanded
	for rows.Next() {
		var rec domain.AttendanceExpanded
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ProjectID, &rec.Day, &rec.CheckIn, &rec.CheckOut, &rec.WorkHours,
			&rec.Status, &rec.Latitude, &rec.Longitude, &rec.PhotoURL, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt,
			&rec.UserName, &rec.ProjectName,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceExpanded, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	q := attendanceExpandedSelect + ` WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.UserID != nil {
		n++
		q += ` AND a.user_id = $` + strconv.Itoa(n)
		args = append(args, *filter.UserID)
	}
	if filter.ProjectID != nil {
		n++
		q += ` AND a.project_id = $` + strconv.Itoa(n)
		args = append(args, *filter.ProjectID)
	}
	if filter.From != nil {
		n++
		q += ` AND a.day >= $` + strconv.Itoa(n)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		n++
		q += ` AND a.day <= $` + strconv.Itoa(n)
		args = append(args, *filter.To)
	}

	q += ` ORDER BY a.day DESC, u.name ASC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectExpanded(rows)
}

// ListByIDs returns expanded records in the order the ids were touched.
func (r *attendanceRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.AttendanceExpanded, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const q = attendanceExpandedSelect + ` WHERE a.id = ANY($1)`
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := collectExpanded(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]domain.AttendanceExpanded, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	ordered := make([]domain.AttendanceExpanded, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
		}
	}
	return ordered, nil
}

func (r *attendanceRepository) Summary(ctx context.Context, projectID uuid.UUID, from, to time.Time) ([]AttendanceSummary, error) {
	const q = `
		SELECT day,
		       COUNT(*) FILTER (WHERE status = 'present'),
		       COUNT(*) FILTER (WHERE status = 'half_day'),
		       COUNT(*) FILTER (WHERE status = 'on_leave'),
		       COUNT(*) FILTER (WHERE status = 'absent'),
		       COALESCE(SUM(work_hours), 0)
		FROM attendance
		WHERE project_id = $1 AND day BETWEEN $2 AND $3
		GROUP BY day
		ORDER BY day ASC`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, projectID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendanceSummary
	for rows.Next() {
		var s AttendanceSummary
		if err := rows.Scan(&s.Day, &s.Present, &s.HalfDay, &s.OnLeave, &s.Absent, &s.TotalHours); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *attendanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM attendance WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

