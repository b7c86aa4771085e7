package importer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

// The importer consumes narrow slices of the persistence layer so tests can
// stub exactly what each stage touches. The postgres repositories satisfy
// these as-is.

type UserStore interface {
	Create(ctx context.Context, req *domain.CreateUserRequest, passwordHash string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByCreation(ctx context.Context) ([]domain.User, error)
}

type AttendanceStore interface {
	Create(ctx context.Context, a *domain.Attendance) (*domain.Attendance, error)
	GetByUserAndDay(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.Attendance, error)
	UpdateSpan(ctx context.Context, id uuid.UUID, checkIn, checkOut time.Time, workHours float64) (*domain.Attendance, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.AttendanceExpanded, error)
}

type ProjectStore interface {
	List(ctx context.Context) ([]domain.Project, error)
}

type ActivityStore interface {
	Create(ctx context.Context, a *domain.Activity) (*domain.Activity, error)
}
