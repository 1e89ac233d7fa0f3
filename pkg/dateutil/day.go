package dateutil

import "time"

// Day returns the start of the UTC calendar day containing t.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the start of the UTC calendar day after the one containing t.
func NextDay(t time.Time) time.Time {
	return Day(t).AddDate(0, 0, 1)
}
