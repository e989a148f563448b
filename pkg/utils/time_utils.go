package utils

import (
	"fmt"
	"time"
)

// TimestampLayout is the stored timestamp format: RFC 3339 with microseconds
// and a numeric offset, e.g. 2024-05-01T09:30:00.123456+00:00.
const TimestampLayout = "2006-01-02T15:04:05.999999-07:00"

// timestampLayouts lists the accepted timestamp forms. Every layout carries
// an offset, so a timestamp without one never parses.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
}

// NowUTC returns the current time in UTC
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatTimestamp formats t in TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp. Timestamps without an explicit
// offset are rejected.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q has no timezone offset or is malformed", value)
}
