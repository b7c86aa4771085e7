package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/pkg/config"
)

type memUserStore struct {
	users      []domain.User
	failCreate bool
}

func (s *memUserStore) add(name, email string) domain.User {
	u := domain.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Role:      domain.RoleEmployee,
		Active:    true,
		CreatedAt: time.Now().Add(time.Duration(len(s.users)) * time.Second),
	}
	s.users = append(s.users, u)
	return u
}

func (s *memUserStore) Create(_ context.Context, req *domain.CreateUserRequest, _ string) (*domain.User, error) {
	if s.failCreate {
		return nil, fmt.Errorf("user store unavailable")
	}
	u := s.add(req.Name, req.Email)
	u.Role = req.Role
	u.Department = req.Department
	u.ProjectIDs = req.ProjectIDs
	s.users[len(s.users)-1] = u
	return &u, nil
}

func (s *memUserStore) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for i := range s.users {
		if s.users[i].Email == email {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) ListByCreation(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

type memAttendanceStore struct {
	records map[uuid.UUID]*domain.Attendance
	users   *memUserStore
}

func newMemAttendanceStore(users *memUserStore) *memAttendanceStore {
	return &memAttendanceStore{records: make(map[uuid.UUID]*domain.Attendance), users: users}
}

func (s *memAttendanceStore) Create(_ context.Context, a *domain.Attendance) (*domain.Attendance, error) {
	rec := *a
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	s.records[rec.ID] = &rec
	out := rec
	return &out, nil
}

func (s *memAttendanceStore) GetByUserAndDay(_ context.Context, userID uuid.UUID, day time.Time) (*domain.Attendance, error) {
	for _, rec := range s.records {
		if rec.UserID == userID && rec.Day.Equal(day) {
			out := *rec
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memAttendanceStore) UpdateSpan(_ context.Context, id uuid.UUID, checkIn, checkOut time.Time, workHours float64) (*domain.Attendance, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	rec.CheckIn = checkIn
	out := checkOut
	rec.CheckOut = &out
	rec.WorkHours = workHours
	rec.UpdatedAt = time.Now()
	cp := *rec
	return &cp, nil
}

func (s *memAttendanceStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.AttendanceExpanded, error) {
	var out []domain.AttendanceExpanded
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		exp := domain.AttendanceExpanded{Attendance: *rec}
		if s.users != nil {
			if u, _ := s.users.FindByID(ctx, rec.UserID); u != nil {
				exp.UserName = u.Name
			}
		}
		out = append(out, exp)
	}
	return out, nil
}

type memProjectStore struct {
	projects []domain.Project
}

func (s *memProjectStore) List(_ context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

type memActivityStore struct {
	entries []domain.Activity
}

func (s *memActivityStore) Create(_ context.Context, a *domain.Activity) (*domain.Activity, error) {
	rec := *a
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	s.entries = append(s.entries, rec)
	return &rec, nil
}

type memBus struct {
	published []string
}

func (b *memBus) Publish(_ context.Context, subject string, _ interface{}) error {
	b.published = append(b.published, subject)
	return nil
}

func (b *memBus) Close() error { return nil }

type memMailer struct {
	digests int
}

func (m *memMailer) Send(_, _, _, _, _ string) (string, error) { return "", nil }

func (m *memMailer) SendImportDigest(_, _, _ string, _, _, _ int) error {
	m.digests++
	return nil
}

func (m *memMailer) SendIssueAssigned(_, _, _, _ string) error { return nil }

func testImportConfig() config.ImportConfig {
	return config.ImportConfig{
		WorkerEmailDomain: "worker.local",
		WorkerPassword:    "Worker@123",
		MaxUploadBytes:    1 << 20,
	}
}
