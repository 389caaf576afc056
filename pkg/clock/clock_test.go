package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCivilDateShiftsAcrossMidnight(t *testing.T) {
	c := New(5 * time.Hour)

	// 21:30 UTC is already the next calendar day at UTC+5.
	ts := time.Date(2024, 3, 10, 21, 30, 0, 0, time.UTC)
	require.Equal(t, "2024-03-11", c.CivilDate(ts))

	ts = time.Date(2024, 3, 10, 18, 59, 0, 0, time.UTC)
	require.Equal(t, "2024-03-10", c.CivilDate(ts))
}

func TestDayWindow(t *testing.T) {
	c := New(5 * time.Hour)

	// Local noon on 2024-03-10; window 15:00 local for 3h.
	ts := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)
	start, end := c.DayWindow(ts, 15*time.Hour, 3*time.Hour)

	require.Equal(t, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC), end)
}

func TestNewFrozen(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewFrozen(at, 0)
	require.Equal(t, at, c.Now())
	require.Equal(t, "2024-01-02", c.CivilDate(c.Now()))
}
