package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

// Scan timestamps as vendor exports write them. The primary layout uses a
// space separator; ISO-style lines with a T are normalized before parsing.
const (
	scanLayout    = "2006-01-02 15:04:05"
	scanLayoutISO = "2006-01-02T15:04:05"
)

// parseScanTime parses a biometric scan timestamp in server-local time.
func parseScanTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(scanLayout, raw, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(scanLayoutISO, strings.Replace(raw, " ", "T", 1), time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// resolveLogUser turns an Attendance Logs user-id cell into a user id, trying
// in order: the session mapping built from the User List, a direct lookup
// when the cell is already a persistent id, and a 1-based positional index
// into the creation-ordered snapshot.
//
// TODO: the positional fallback breaks if users are deleted between the
// vendor export and the import; drop it once all deployed devices emit ids.
func (e *MergeEngine) resolveLogUser(ctx context.Context, sess *Session, rawID string) (uuid.UUID, bool) {
	if id, ok := sess.Mapping[rawID]; ok {
		return id, true
	}

	if parsed, err := uuid.Parse(rawID); err == nil {
		user, err := e.users.FindByID(ctx, parsed)
		if err == nil && user != nil {
			return user.ID, true
		}
	}

	if idx, err := strconv.Atoi(rawID); err == nil {
		snapshot := e.resolver.Snapshot()
		if idx >= 1 && idx <= len(snapshot) {
			return snapshot[idx-1].ID, true
		}
	}

	if id, ok := sess.Mapping[rawID]; ok {
		return id, true
	}
	return uuid.Nil, false
}

// MergeEngine folds scan events into one attendance record per user per day,
// widening the check-in/check-out span as scans arrive in any order.
type MergeEngine struct {
	users      UserStore
	attendance AttendanceStore
	resolver   *Resolver
}

func NewMergeEngine(users UserStore, attendance AttendanceStore, resolver *Resolver) *MergeEngine {
	return &MergeEngine{users: users, attendance: attendance, resolver: resolver}
}

// Apply merges one scan into the user's record for that day. The first scan
// of a day creates the record with check-in and check-out both at the scan;
// later scans only move the span outward.
func (e *MergeEngine) Apply(ctx context.Context, sess *Session, userID uuid.UUID, ts time.Time, defaultProject uuid.UUID) error {
	day := domain.DayOf(ts)

	existing, err := e.attendance.GetByUserAndDay(ctx, userID, day)
	if err != nil {
		return fmt.Errorf("lookup attendance: %w", err)
	}

	if existing == nil {
		checkOut := ts
		rec := &domain.Attendance{
			UserID:    userID,
			ProjectID: &defaultProject,
			Day:       day,
			CheckIn:   ts,
			CheckOut:  &checkOut,
			WorkHours: 0,
			Status:    domain.AttendancePresent,
		}
		created, err := e.attendance.Create(ctx, rec)
		if err != nil {
			return fmt.Errorf("create attendance: %w", err)
		}
		sess.Touch(created.ID)
		return nil
	}

	checkIn := existing.CheckIn
	if ts.Before(checkIn) {
		checkIn = ts
	}
	checkOut := existing.CheckIn
	if existing.CheckOut != nil {
		checkOut = *existing.CheckOut
	}
	if ts.After(checkOut) {
		checkOut = ts
	}

	updated, err := e.attendance.UpdateSpan(ctx, existing.ID, checkIn, checkOut, domain.WorkHoursBetween(checkIn, checkOut))
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	sess.Touch(updated.ID)
	return nil
}
