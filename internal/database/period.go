package database

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	// timestampLayout is fixed-width so that string comparison in SQL matches
	// chronological order.
	timestampLayout = "2006-01-02 15:04:05.000000"
	dayLayout       = "2006-01-02"
)

// GetToday returns today's date as YYYY-MM-DD.
func GetToday() string {
	return Day(time.Now())
}

// Day returns the calendar day of t, in t's location, as YYYY-MM-DD.
func Day(t time.Time) string {
	return t.Format(dayLayout)
}

// LastDays returns n calendar days ending at today, most recent first.
func LastDays(today time.Time, n int) []string {
	days := make([]string, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, Day(today.AddDate(0, 0, -i)))
	}
	return days
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
