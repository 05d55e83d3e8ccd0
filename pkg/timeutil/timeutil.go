// Package timeutil converts between wall-clock timestamps and the solver's
// internal clock, which counts seconds since midnight of the planning day.
package timeutil

import (
	"fmt"
	"time"
)

// SecondsSinceMidnight reduces an absolute timestamp to seconds since
// midnight of its own calendar day. Cross-midnight bookings are not
// supported: the date part is deliberately discarded.
func SecondsSinceMidnight(t time.Time) int64 {
	return int64(t.Hour())*3600 + int64(t.Minute())*60 + int64(t.Second())
}

// ToHHMM formats solver seconds as "HH:MM" for logs and debug output.
func ToHHMM(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := (seconds / 3600) % 24
	m := (seconds % 3600) / 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ToISOString expands solver seconds back into a UTC ISO 8601 timestamp on
// the given reference date.
func ToISOString(seconds int64, day time.Time) string {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(seconds) * time.Second).Format(time.RFC3339)
}
