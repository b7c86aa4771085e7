package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/pkg/events"
)

type fakeActivityRepo struct {
	entries []domain.Activity
}

func (f *fakeActivityRepo) Create(_ context.Context, a *domain.Activity) (*domain.Activity, error) {
	rec := *a
	rec.ID = uuid.New()
	f.entries = append(f.entries, rec)
	return &rec, nil
}

func (f *fakeActivityRepo) List(_ context.Context, _, _ int) ([]domain.Activity, error) {
	return f.entries, nil
}

func message(t *testing.T, subject string, payload interface{}) *events.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &events.Message{Subject: subject, Data: data, Timestamp: time.Now()}
}

func TestHandleAppendsTaskEntry(t *testing.T) {
	repo := &fakeActivityRepo{}
	rec := NewRecorder(repo)

	actor := uuid.New()
	taskID := uuid.New()
	rec.handle(message(t, events.TaskCreated, events.TaskCreatedEvent{
		TaskID:    taskID,
		ProjectID: uuid.New(),
		Title:     "Pour slab",
		CreatedBy: actor,
		CreatedAt: time.Now(),
	}))

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, actor, entry.UserID)
	assert.Equal(t, "task_created", entry.Action)
	assert.Equal(t, "task", entry.TargetType)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, taskID, *entry.TargetID)
	assert.Equal(t, "Pour slab", entry.Detail)
}

func TestHandleAppendsAttendanceEntry(t *testing.T) {
	repo := &fakeActivityRepo{}
	rec := NewRecorder(repo)

	userID := uuid.New()
	rec.handle(message(t, events.AttendanceRecorded, events.AttendanceRecordedEvent{
		AttendanceID: uuid.New(),
		UserID:       userID,
		Day:          time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local),
		Status:       "present",
	}))

	require.Len(t, repo.entries, 1)
	assert.Equal(t, userID, repo.entries[0].UserID)
	assert.Equal(t, "status present on 2025-03-10", repo.entries[0].Detail)
}

func TestHandleIgnoresUnknownSubject(t *testing.T) {
	repo := &fakeActivityRepo{}
	rec := NewRecorder(repo)

	rec.handle(&events.Message{Subject: "something.else", Data: []byte(`{}`)})
	assert.Empty(t, repo.entries)
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	repo := &fakeActivityRepo{}
	rec := NewRecorder(repo)

	rec.handle(&events.Message{Subject: events.TaskCreated, Data: []byte(`not json`)})
	assert.Empty(t, repo.entries)
}
