package daterange

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Layout is the canonical day label format
const Layout = "2006-01-02"

var (
	ErrInvalidFormat = errors.New("invalid date format")
	ErrInvalidDate   = errors.New("invalid date")
	ErrTooOld        = errors.New("date too old")
	ErrInFuture      = errors.New("date in future")
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Window is one UTC calendar day
type Window struct {
	Start time.Time // midnight, inclusive
	End   time.Time // 23:59:59.999
	Label string    // YYYY-MM-DD
}

// Resolver turns an optional caller supplied date into a validated Window
type Resolver struct {
	now          func() time.Time
	maxAgeMonths int
}

// NewResolver creates a resolver accepting dates no older than maxAgeMonths
// calendar months. A nil clock means time.Now.
func NewResolver(maxAgeMonths int, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	if maxAgeMonths <= 0 {
		maxAgeMonths = 1
	}
	return &Resolver{now: now, maxAgeMonths: maxAgeMonths}
}

// Resolve validates date and returns its window. An empty date means
// yesterday, which is never checked against the window.
func (r *Resolver) Resolve(date string) (Window, error) {
	now := r.now().UTC()

	if date == "" {
		return dayWindow(midnight(now).AddDate(0, 0, -1)), nil
	}

	if !datePattern.MatchString(date) {
		return Window{}, fmt.Errorf("%w: %q, expected YYYY-MM-DD", ErrInvalidFormat, date)
	}

	day, err := time.ParseInLocation(Layout, date, time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	oldest := midnight(now.AddDate(0, -r.maxAgeMonths, 0))
	if day.Before(oldest) {
		return Window{}, fmt.Errorf("%w: %s is before %s", ErrTooOld, date, oldest.Format(Layout))
	}

	if day.After(endOfDay(midnight(now))) {
		return Window{}, fmt.Errorf("%w: %s is after today", ErrInFuture, date)
	}

	return dayWindow(day), nil
}

func dayWindow(day time.Time) Window {
	return Window{
		Start: day,
		End:   endOfDay(day),
		Label: day.Format(Layout),
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Millisecond)
}
