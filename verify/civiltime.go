package verify

import "time"

// CivilTime is a broken-down UTC timestamp (Y, M, D, h, m, s), matching
// the Verifier Context's "now" attribute and the "expires" field's
// ISO-8601 Z-suffixed grammar exactly — no location, no monotonic
// reading, nothing a bounded device would need to carry.
type CivilTime struct {
	Year                          uint16
	Month, Day, Hour, Minute, Sec uint8
}

// CivilTimeFromTime converts a standard library time.Time into a
// CivilTime, normalising it to UTC first.
func CivilTimeFromTime(t time.Time) CivilTime {
	t = t.UTC()
	return CivilTime{
		Year:   uint16(t.Year()),
		Month:  uint8(t.Month()),
		Day:    uint8(t.Day()),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Sec:    uint8(t.Second()),
	}
}

// After reports whether c is strictly later than other.
func (c CivilTime) After(other CivilTime) bool {
	if c.Year != other.Year {
		return c.Year > other.Year
	}
	if c.Month != other.Month {
		return c.Month > other.Month
	}
	if c.Day != other.Day {
		return c.Day > other.Day
	}
	if c.Hour != other.Hour {
		return c.Hour > other.Hour
	}
	if c.Minute != other.Minute {
		return c.Minute > other.Minute
	}
	return c.Sec > other.Sec
}
