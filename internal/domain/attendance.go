package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceOnLeave AttendanceStatus = "on_leave"
	AttendanceHalfDay AttendanceStatus = "half_day"
)

// Attendance holds at most one record per (user, day). Day is the calendar
// day truncated to server-local midnight; the store enforces uniqueness.
type Attendance struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	ProjectID *uuid.UUID       `json:"project_id,omitempty"`
	Day       time.Time        `json:"day"`
	CheckIn   time.Time        `json:"check_in"`
	CheckOut  *time.Time       `json:"check_out,omitempty"`
	WorkHours float64          `json:"work_hours"`
	Status    AttendanceStatus `json:"status"`
	Latitude  *float64         `json:"latitude,omitempty"`
	Longitude *float64         `json:"longitude,omitempty"`
	PhotoURL  *string          `json:"photo_url,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// AttendanceExpanded carries the display names the dashboard shows next to a
// record.
type AttendanceExpanded struct {
	Attendance
	UserName    string `json:"user_name"`
	ProjectName string `json:"project_name,omitempty"`
}

// DayOf truncates a timestamp to server-local midnight, the merge key for
// folding repeated scans.
func DayOf(t time.Time) time.Time {
	local := t.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

// WorkHoursBetween returns the span between two scans in hours, rounded to
// two decimals.
func WorkHoursBetween(checkIn, checkOut time.Time) float64 {
	h := checkOut.Sub(checkIn).Hours()
	return math.Round(h*100) / 100
}
