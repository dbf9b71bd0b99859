package alerts

import (
	"fmt"
	"time"
)

// Profile is one user's alert settings as read from the user directory.
// The directory owns the record; this service only reads it and flips
// LastSent after a confirmed dispatch.
type Profile struct {
	ID        string // empty when the directory row has no id
	Email     string `validate:"required,email"`
	Name      string
	Location  string `validate:"required"`
	AlertTime string // raw, parsed by the gate
	LastSent  *Date  // nil = never sent

	// ReadErr is set by the directory when the record could not be read in
	// full. Such a profile is reported as a failure, never gated.
	ReadErr error `validate:"-"`
}

// Key returns the identity used for logging and for the sent-date update.
func (p Profile) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Email
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO "YYYY-MM-DD" date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) Equal(o Date) bool {
	return d == o
}

func (d Date) IsZero() bool {
	return d == Date{}
}
