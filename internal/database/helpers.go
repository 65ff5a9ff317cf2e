package database

import "time"

// Durations are stored as whole seconds (BIGINT); these helpers convert the
// nullable columns at the scan/exec boundary.

func durationToSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	s := int64(d.Seconds())
	return &s
}

func secondsToDuration(s *int64) *time.Duration {
	if s == nil {
		return nil
	}
	d := time.Duration(*s) * time.Second
	return &d
}
