package utils

import (
	"time"
)

// CompactTimestampUTC formats t as a second-resolution UTC stamp that
// is safe inside SQL identifiers, e.g. 20260825123045.
func CompactTimestampUTC(t time.Time) string {
	return t.UTC().Format("20060102150405")
}

// Iso8601Now returns the current time in ISO8601 format
func Iso8601Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
