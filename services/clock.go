package services

import "time"

const dayLayout = "2006-01-02"

// DayKey is the server-local calendar date of t.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

// previousDay steps one calendar day back. Anchoring at noon keeps DST
// transitions from skipping or repeating a date.
func previousDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()-1, 12, 0, 0, 0, loc)
}
