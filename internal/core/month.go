package core

import (
	"errors"
	"fmt"
	"time"
)

// MonthID is a calendar year+month identifier in "YYYY-MM" form. The
// textual form sorts chronologically, which the storage layer relies
// on for prior/next lookups.
type MonthID string

var ErrInvalidMonthID = errors.New("invalid month id, want YYYY-MM")

// ParseMonthID validates and normalizes a "YYYY-MM" identifier.
func ParseMonthID(s string) (MonthID, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", ErrInvalidMonthID
	}
	return MonthID(t.Format("2006-01")), nil
}

// MonthOf returns the identifier of the month the date falls in.
func MonthOf(d time.Time) MonthID {
	return MonthID(d.Format("2006-01"))
}

func (m MonthID) String() string { return string(m) }

func (m MonthID) Valid() bool {
	_, err := ParseMonthID(string(m))
	return err == nil
}

// Time returns the first instant of the month in UTC.
func (m MonthID) Time() time.Time {
	t, _ := time.Parse("2006-01", string(m))
	return t
}

// Next returns the identifier of the calendar month following m.
func (m MonthID) Next() MonthID {
	return MonthID(m.Time().AddDate(0, 1, 0).Format("2006-01"))
}

// Prev returns the identifier of the calendar month preceding m.
func (m MonthID) Prev() MonthID {
	return MonthID(m.Time().AddDate(0, -1, 0).Format("2006-01"))
}

// Contains reports whether the date falls inside this month.
func (m MonthID) Contains(d time.Time) bool {
	return MonthOf(d) == m
}

// FormatDate renders an entry date the way the entries table stores it.
func FormatDate(d time.Time) string {
	return d.Format("2006-01-02")
}

// ParseDate parses an entry date in "YYYY-MM-DD" form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
