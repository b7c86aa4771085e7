package importer

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

func mustScanTime(t *testing.T, raw string) time.Time {
	t.Helper()
	ts, err := parseScanTime(raw)
	require.NoError(t, err)
	return ts
}

func TestParseScanTimeLayouts(t *testing.T) {
	space := mustScanTime(t, "2025-03-10 08:00:00")
	iso := mustScanTime(t, "2025-03-10T08:00:00")
	assert.True(t, space.Equal(iso))
	assert.Equal(t, time.Local, space.Location())

	_, err := parseScanTime("10/03/2025 08:00")
	assert.Error(t, err)
}

func newTestEngine(t *testing.T) (*MergeEngine, *memUserStore, *memAttendanceStore) {
	t.Helper()
	users := &memUserStore{}
	attendance := newMemAttendanceStore(users)
	resolver := NewResolver(users, testImportConfig())
	require.NoError(t, resolver.Load(context.Background()))
	return NewMergeEngine(users, attendance, resolver), users, attendance
}

func TestApplyFirstScanCreatesCollapsedRecord(t *testing.T) {
	engine, users, attendance := newTestEngine(t)
	worker := users.add("Kumar", "kumar@site.example")
	project := uuid.New()

	sess := NewSession()
	ts := mustScanTime(t, "2025-03-10 08:00:00")
	require.NoError(t, engine.Apply(context.Background(), sess, worker.ID, ts, project))

	rec, err := attendance.GetByUserAndDay(context.Background(), worker.ID, domain.DayOf(ts))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.CheckIn.Equal(ts))
	require.NotNil(t, rec.CheckOut)
	assert.True(t, rec.CheckOut.Equal(ts))
	assert.Equal(t, 0.0, rec.WorkHours)
	assert.Equal(t, domain.AttendancePresent, rec.Status)
	require.NotNil(t, rec.ProjectID)
	assert.Equal(t, project, *rec.ProjectID)
	assert.Equal(t, []uuid.UUID{rec.ID}, sess.Touched())
}

func TestApplyFoldsScansToMinMaxSpan(t *testing.T) {
	engine, users, attendance := newTestEngine(t)
	worker := users.add("Kumar", "kumar@site.example")
	project := uuid.New()
	sess := NewSession()

	// Out of order on purpose.
	for _, raw := range []string{
		"2025-03-10 12:15:00",
		"2025-03-10 08:00:00",
		"2025-03-10 17:30:00",
		"2025-03-10 13:45:00",
	} {
		require.NoError(t, engine.Apply(context.Background(), sess, worker.ID, mustScanTime(t, raw), project))
	}

	rec, err := attendance.GetByUserAndDay(context.Background(), worker.ID, domain.DayOf(mustScanTime(t, "2025-03-10 08:00:00")))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.CheckIn.Equal(mustScanTime(t, "2025-03-10 08:00:00")))
	assert.True(t, rec.CheckOut.Equal(mustScanTime(t, "2025-03-10 17:30:00")))
	assert.Equal(t, 9.5, rec.WorkHours)

	// Four scans, one record, touched once.
	assert.Len(t, sess.Touched(), 1)
}

func TestApplyIsIdempotent(t *testing.T) {
	engine, users, attendance := newTestEngine(t)
	worker := users.add("Kumar", "kumar@site.example")
	project := uuid.New()

	scans := []string{"2025-03-10 08:00:00", "2025-03-10 17:30:00"}

	first := NewSession()
	for _, raw := range scans {
		require.NoError(t, engine.Apply(context.Background(), first, worker.ID, mustScanTime(t, raw), project))
	}
	second := NewSession()
	for _, raw := range scans {
		require.NoError(t, engine.Apply(context.Background(), second, worker.ID, mustScanTime(t, raw), project))
	}

	rec, err := attendance.GetByUserAndDay(context.Background(), worker.ID, domain.DayOf(mustScanTime(t, scans[0])))
	require.NoError(t, err)
	assert.Equal(t, 9.5, rec.WorkHours)
	assert.Len(t, attendance.records, 1)
}

func TestApplySeparatesDays(t *testing.T) {
	engine, users, attendance := newTestEngine(t)
	worker := users.add("Kumar", "kumar@site.example")
	sess := NewSession()

	require.NoError(t, engine.Apply(context.Background(), sess, worker.ID, mustScanTime(t, "2025-03-10 22:00:00"), uuid.New()))
	require.NoError(t, engine.Apply(context.Background(), sess, worker.ID, mustScanTime(t, "2025-03-11 06:00:00"), uuid.New()))

	assert.Len(t, attendance.records, 2)
	assert.Len(t, sess.Touched(), 2)
}

func TestResolveLogUserStrategies(t *testing.T) {
	engine, users, _ := newTestEngine(t)
	first := users.add("First Worker", "first@site.example")
	second := users.add("Second Worker", "second@site.example")
	require.NoError(t, engine.resolver.Load(context.Background()))

	sess := NewSession()
	mapped := uuid.New()
	sess.Mapping["42"] = mapped

	// Mapping wins over everything.
	got, ok := engine.resolveLogUser(context.Background(), sess, "42")
	require.True(t, ok)
	assert.Equal(t, mapped, got)

	// Direct persistent id.
	got, ok = engine.resolveLogUser(context.Background(), sess, second.ID.String())
	require.True(t, ok)
	assert.Equal(t, second.ID, got)

	// 1-based positional index into creation order.
	got, ok = engine.resolveLogUser(context.Background(), sess, "1")
	require.True(t, ok)
	assert.Equal(t, first.ID, got)

	got, ok = engine.resolveLogUser(context.Background(), sess, "2")
	require.True(t, ok)
	assert.Equal(t, second.ID, got)

	// Out of range index fails.
	_, ok = engine.resolveLogUser(context.Background(), sess, strconv.Itoa(len(users.users)+1))
	assert.False(t, ok)

	// Unknown uuid fails.
	_, ok = engine.resolveLogUser(context.Background(), sess, uuid.New().String())
	assert.False(t, ok)
}
