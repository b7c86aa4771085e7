package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayOf(t *testing.T) {
	ts := time.Date(2025, 3, 10, 17, 30, 45, 12345, time.Local)
	day := DayOf(ts)

	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local), day)
	// Midnight maps to itself.
	assert.Equal(t, day, DayOf(day))
}

func TestWorkHoursBetween(t *testing.T) {
	in := time.Date(2025, 3, 10, 8, 0, 0, 0, time.Local)

	assert.Equal(t, 9.5, WorkHoursBetween(in, in.Add(9*time.Hour+30*time.Minute)))
	assert.Equal(t, 0.0, WorkHoursBetween(in, in))
	// Rounded to two decimals.
	assert.Equal(t, 0.33, WorkHoursBetween(in, in.Add(20*time.Minute)))
}
