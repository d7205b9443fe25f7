package models

import (
	"fmt"
	"strings"
	"time"
)

// YearMonthLayout is the wire format of a calendar month, e.g. "2024-03".
const YearMonthLayout = "2006-01"

// YearMonth identifies a calendar month.
// Commissions and client metrics are stored at month granularity, keyed by Start().
type YearMonth struct {
	Year  int        // four-digit year
	Month time.Month // 1-12
}

// ParseYearMonth parses a "YYYY-MM" string.
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return YearMonth{}, fmt.Errorf("month is required (format YYYY-MM)")
	}

	t, err := time.Parse(YearMonthLayout, s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q, expected format YYYY-MM", s)
	}

	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// YearMonthOf returns the month containing t, evaluated in UTC.
func YearMonthOf(t time.Time) YearMonth {
	t = t.UTC()
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Start returns the first instant of the month in UTC.
func (ym YearMonth) Start() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns 23:59:59 on the last day of the month in UTC.
// Month filters use the closed range [Start, End].
func (ym YearMonth) End() time.Time {
	return ym.Start().AddDate(0, 1, 0).Add(-time.Second)
}

func (ym YearMonth) String() string {
	return ym.Start().Format(YearMonthLayout)
}
