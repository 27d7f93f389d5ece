package domain

import "time"

// TimestampLayout is the wire format for every timestamp: UTC, millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a value in TimestampLayout.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock truncated to millisecond precision.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
