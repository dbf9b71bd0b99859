package alerts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedAlertTime is returned when a stored alert time is not HH:MM[:SS].
var ErrMalformedAlertTime = errors.New("malformed alert time")

// ReferenceZone is the single fixed offset (UTC+05:30) all comparisons use,
// independent of the host timezone.
var ReferenceZone = time.FixedZone("IST", 5*60*60+30*60)

// TimeOfDay is a wall-clock time at minute granularity.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" with an optional fractional
// second and truncates to the minute.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrMalformedAlertTime, s)
	}

	h, err := twoDigits(parts[0], 23)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q: hour: %v", ErrMalformedAlertTime, s, err)
	}
	m, err := twoDigits(parts[1], 59)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q: minute: %v", ErrMalformedAlertTime, s, err)
	}
	if len(parts) == 3 {
		sec, _, _ := strings.Cut(parts[2], ".")
		if _, err := twoDigits(sec, 59); err != nil {
			return TimeOfDay{}, fmt.Errorf("%w: %q: second: %v", ErrMalformedAlertTime, s, err)
		}
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func twoDigits(s string, maxVal int) (int, error) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, errors.New("expected two digits")
	}
	n, _ := strconv.Atoi(s)
	if n > maxVal {
		return 0, fmt.Errorf("out of range (max %d)", maxVal)
	}
	return n, nil
}

// Moment is "now" expressed in the reference zone.
type Moment struct {
	Date Date
	Time TimeOfDay
}

// MomentAt converts an instant into the reference zone.
func MomentAt(t time.Time) Moment {
	local := t.In(ReferenceZone)
	return Moment{
		Date: DateOf(local),
		Time: TimeOfDay{Hour: local.Hour(), Minute: local.Minute()},
	}
}

// Decision is the gate's verdict for one user.
type Decision int

const (
	NotYet Decision = iota
	Due
	AlreadySent
)

func (d Decision) String() string {
	switch d {
	case Due:
		return "due"
	case AlreadySent:
		return "already_sent"
	default:
		return "not_due"
	}
}

// Evaluate decides whether p should get a report at now. The comparison is
// catch-up (now >= alert time) so irregular invocations still fire once the
// alert time has passed; a send already recorded for today disqualifies
// regardless of the time.
func Evaluate(now Moment, p Profile) (Decision, error) {
	alertAt, err := ParseTimeOfDay(p.AlertTime)
	if err != nil {
		return NotYet, err
	}
	if p.LastSent != nil && p.LastSent.Equal(now.Date) {
		return AlreadySent, nil
	}
	if now.Time.Minutes() < alertAt.Minutes() {
		return NotYet, nil
	}
	return Due, nil
}
