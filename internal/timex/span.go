package timex

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

// Span returns the calendar distance between start and end as display text,
// for example "1 year 2 months" or "3 days". Only the date part of each
// value matters. Equal dates give "0 days". An end before start is rejected
// with common.ErrInvalidDateRange.
//
// Whole months are counted first; the remaining days are measured from start
// advanced by that many months, clamped to the end of a shorter month
// (Jan 31 + 1 month = Feb 29 in a leap year).
func Span(start, end time.Time) (string, error) {
	s := day(start)
	e := day(end)
	if e.Before(s) {
		return "", common.ErrInvalidDateRange
	}

	months := (e.Year()-s.Year())*12 + int(e.Month()) - int(s.Month())
	if e.Day() < s.Day() {
		months--
	}
	anchor := addMonths(s, months)
	days := int(e.Sub(anchor).Hours() / 24)

	parts := make([]string, 0, 3)
	parts = appendUnit(parts, months/12, "year")
	parts = appendUnit(parts, months%12, "month")
	parts = appendUnit(parts, days, "day")
	if len(parts) == 0 {
		return "0 days", nil
	}
	return strings.Join(parts, " "), nil
}

func appendUnit(parts []string, n int, unit string) []string {
	switch {
	case n == 1:
		return append(parts, "1 "+unit)
	case n > 1:
		return append(parts, fmt.Sprintf("%d %ss", n, unit))
	}
	return parts
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	d := t.Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
