package clock

import "time"

// DateLayout is the normalized calendar-date key used across report joins.
const DateLayout = "2006-01-02"

// Clock supplies the current instant and the organisation's civil-day offset.
// All report correlation derives calendar dates through one Clock so that
// UTC-stored instants and local dates never disagree by a day.
type Clock interface {
	Now() time.Time
	CivilDate(ts time.Time) string
}

// Fixed is a Clock with a constant civil-day offset.
type Fixed struct {
	offset time.Duration
	now    func() time.Time
}

// New returns a Clock shifting instants by offset before date derivation.
func New(offset time.Duration) *Fixed {
	return &Fixed{offset: offset, now: func() time.Time { return time.Now().UTC() }}
}

// NewFrozen returns a Clock pinned to a fixed instant, for tests.
func NewFrozen(at time.Time, offset time.Duration) *Fixed {
	return &Fixed{offset: offset, now: func() time.Time { return at }}
}

// Now returns the current UTC instant.
func (c *Fixed) Now() time.Time {
	return c.now()
}

// Offset exposes the configured civil-day offset.
func (c *Fixed) Offset() time.Duration {
	return c.offset
}

// CivilDate converts an instant into the organisation's calendar-date key.
func (c *Fixed) CivilDate(ts time.Time) string {
	return ts.UTC().Add(c.offset).Format(DateLayout)
}

// DayWindow resolves the attendance window for the civil day containing ts.
// start is the offset from local midnight, duration the window length.
func (c *Fixed) DayWindow(ts time.Time, start, duration time.Duration) (time.Time, time.Time) {
	local := ts.UTC().Add(c.offset)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := midnight.Add(start).Add(-c.offset)
	return windowStart, windowStart.Add(duration)
}
