package util

import (
	"fmt"
	"time"
)

const yearMonthLayout = "2006-01"

// MonthBounds returns the first and last calendar day of the given month in UTC
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the next month is the last day of this one
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return first, last
}

// ParseYearMonth parses a YYYY-MM value and returns the bounds of that month
func ParseYearMonth(raw string) (time.Time, time.Time, error) {
	t, err := time.Parse(yearMonthLayout, raw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse month %q: %w", raw, err)
	}
	first, last := MonthBounds(t.Year(), t.Month())
	return first, last, nil
}
