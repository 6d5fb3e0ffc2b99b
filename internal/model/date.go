package model

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 calendar date layout used on the wire and in the cache.
const DateFormat = "2006-01-02"

// readDateFormat is permissive about single-digit months and days.
const readDateFormat = "2006-1-2"

// Date is a calendar day. It is anchored at midnight UTC so that the
// distance between two dates is always a whole number of days.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.Time().Date()
	return d
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date { return NewDate(t.Date()) }

// Today returns the current local calendar day.
func Today() Date { return DateOf(time.Now()) }

// ParseDate accepts "2006-01-02" (single-digit month/day allowed) or an
// RFC 3339 timestamp, which is reduced to its UTC day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(readDateFormat, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t.UTC()), nil
	}
	return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d.y == 0 && d.m == 0 && d.d == 0 }
func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }
func (d Date) After(x Date) bool  { return d.Time().After(x.Time()) }

// Add returns the date i days later (earlier when i is negative).
func (d Date) Add(i int) Date { return NewDate(d.y, d.m, d.d+i) }

// Compare returns -1, 0 or +1, for use with slices.SortStableFunc.
func (d Date) Compare(x Date) int { return d.Time().Compare(x.Time()) }

// Sub returns the signed elapsed time from x to d.
func (d Date) Sub(x Date) time.Duration { return d.Time().Sub(x.Time()) }

// Format formats the day with a time layout.
func (d Date) Format(layout string) string { return d.Time().Format(layout) }

func (d Date) String() string { return d.Format(DateFormat) }

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
