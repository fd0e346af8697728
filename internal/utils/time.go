package utils

import (
	"time"
)

func FormatTimeISO(t time.Time) string {
	return t.Format(time.RFC3339)
}

// DaysAgo returns the instant n whole days before now.
func DaysAgo(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
