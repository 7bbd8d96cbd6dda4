// Package dateutils provides common date operations used throughout the application.
// Source exports are day-first, so every ambiguous layout is tried day/month/year.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutDayFirst = "02/01/2006"
	DateLayoutDotted   = "02.01.2006"
	DateLayoutDashed   = "02-01-2006"
	DateLayoutShort    = "02/01/06"
	DateLayoutCompact  = "20060102"
	MonthKeyLayout     = "2006-01"
)

// CommonFormats is the ordered list of layouts ParseDate tries.
var CommonFormats = []string{
	DateLayoutDayFirst,
	DateLayoutISO,
	DateLayoutDotted,
	DateLayoutDashed,
	DateLayoutShort,
	"2/1/2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	DateLayoutCompact,
}

var (
	spaceRe = regexp.MustCompile(`\s+`)
	// OFX timestamps: YYYYMMDD[HHMMSS[.XXX]][[+-]TZ[:NAME]]
	compactRe = regexp.MustCompile(`^(\d{8})`)
)

// ParseDate parses a date string trying CommonFormats in order.
// The result carries no time component and is in UTC.
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return Day(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseCompactDate parses an OFX style timestamp, ignoring the time and zone.
func ParseCompactDate(s string) (time.Time, error) {
	m := compactRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("unable to parse compact date: %s", s)
	}
	t, err := time.Parse(DateLayoutCompact, m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse compact date %s: %w", s, err)
	}
	return t, nil
}

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDate is shorthand for a UTC calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// MonthKey returns the YYYY-MM key of date.
func MonthKey(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(MonthKeyLayout)
}

// ParseMonthKey parses a YYYY-MM key into the first day of that month.
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.Parse(MonthKeyLayout, strings.TrimSpace(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t, nil
}

// StartOfMonth returns the first day of the month of date.
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DayInMonth returns the given day of year/month, clamped to the month's
// last day so that a configured day 31 still lands in February.
func DayInMonth(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// DateRange is an inclusive calendar range.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// IsZero reports whether no date has been added to the range.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Include extends the range to cover date. Zero dates are ignored.
func (r DateRange) Include(date time.Time) DateRange {
	if date.IsZero() {
		return r
	}
	if r.Start.IsZero() || date.Before(r.Start) {
		r.Start = date
	}
	if r.End.IsZero() || date.After(r.End) {
		r.End = date
	}
	return r
}

// Merge combines two date ranges into one covering both.
func (r DateRange) Merge(other DateRange) DateRange {
	if other.IsZero() {
		return r
	}
	return r.Include(other.Start).Include(other.End)
}

// Overlaps reports whether the two inclusive ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	if r.IsZero() || other.IsZero() {
		return false
	}
	return !r.End.Before(other.Start) && !other.End.Before(r.Start)
}

// Contains reports whether date falls inside the inclusive range.
func (r DateRange) Contains(date time.Time) bool {
	if r.IsZero() {
		return false
	}
	return !date.Before(r.Start) && !date.After(r.End)
}

func (r DateRange) String() string {
	if r.IsZero() {
		return "empty"
	}
	return ToISODate(r.Start) + ".." + ToISODate(r.End)
}
