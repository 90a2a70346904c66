package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ErrInvalidCalendar is returned when calendar settings are inconsistent
var ErrInvalidCalendar = errors.New("domain: invalid business calendar")

// Shift is a daily opening window [Open, Close) in business-local time
type Shift struct {
	Open  types.TimeString
	Close types.TimeString
}

// LastValidStart returns the latest minute-of-day at which a service of the given
// duration can start and still finish by Close. ok is false when the shift is
// shorter than the duration.
func (s Shift) LastValidStart(durationMinutes int) (minute int, ok bool) {
	last := s.Close.Minutes() - durationMinutes
	if last < s.Open.Minutes() {
		return 0, false
	}
	return last, true
}

// BusinessCalendar holds the opening hours and reservation horizon of the business.
// It is loaded once per request and passed around by value.
type BusinessCalendar struct {
	IntervalMinutes    int
	MaxReservationDays int
	FirstShift         Shift
	SecondShift        *Shift
	OpenWeekdays       []time.Weekday
	Timezone           string

	// Passthrough only, not used by scheduling
	PrimaryDiscountPercent   float64
	SecondaryDiscountPercent float64

	UpdatedAt time.Time

	loc *time.Location
}

// Location returns the calendar's time zone, UTC when unset or unknown
func (c *BusinessCalendar) Location() *time.Location {
	if c.loc != nil {
		return c.loc
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		loc = time.UTC
	}
	c.loc = loc
	return loc
}

// Shifts returns the configured shifts in chronological order
func (c *BusinessCalendar) Shifts() []Shift {
	if c.SecondShift == nil {
		return []Shift{c.FirstShift}
	}
	return []Shift{c.FirstShift, *c.SecondShift}
}

// IsOpenWeekday reports whether the business works on the given weekday
func (c *BusinessCalendar) IsOpenWeekday(day time.Weekday) bool {
	for _, d := range c.OpenWeekdays {
		if d == day {
			return true
		}
	}
	return false
}

// IsOpenInstant reports whether a service of the given duration may start at t:
// t falls on an open weekday and lies within [Open, Close-duration] of some shift.
func (c *BusinessCalendar) IsOpenInstant(t time.Time, durationMinutes int) bool {
	local := t.In(c.Location())
	if !c.IsOpenWeekday(local.Weekday()) {
		return false
	}

	sec := secondOfDay(local)
	for _, shift := range c.Shifts() {
		last, ok := shift.LastValidStart(durationMinutes)
		if !ok {
			continue
		}
		if sec >= shift.Open.Minutes()*60 && sec <= last*60 {
			return true
		}
	}
	return false
}

// IsAligned reports whether t starts on the booking grid defined by IntervalMinutes
func (c *BusinessCalendar) IsAligned(t time.Time) bool {
	if c.IntervalMinutes <= 0 {
		return true
	}
	sec := secondOfDay(t.In(c.Location()))
	return sec%(c.IntervalMinutes*60) == 0
}

// Horizon returns the latest instant that may still be booked
func (c *BusinessCalendar) Horizon(now time.Time) time.Time {
	return now.AddDate(0, 0, c.MaxReservationDays)
}

// DayKey identifies the business-local day of t, e.g. "2025-03-17"
func (c *BusinessCalendar) DayKey(t time.Time) string {
	return t.In(c.Location()).Format(DateFormat)
}

// Validate checks the calendar invariants
func (c *BusinessCalendar) Validate() error {
	if c.IntervalMinutes < MinIntervalMinutes || c.IntervalMinutes > MaxIntervalMinutes {
		return fmt.Errorf("%w: interval must be between %d and %d minutes", ErrInvalidCalendar, MinIntervalMinutes, MaxIntervalMinutes)
	}
	if c.MaxReservationDays < MinReservationDays || c.MaxReservationDays > MaxReservationDays {
		return fmt.Errorf("%w: max reservation days must be between %d and %d", ErrInvalidCalendar, MinReservationDays, MaxReservationDays)
	}
	if len(c.OpenWeekdays) == 0 {
		return fmt.Errorf("%w: at least one open weekday is required", ErrInvalidCalendar)
	}
	for _, d := range c.OpenWeekdays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: unknown weekday %d", ErrInvalidCalendar, d)
		}
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidCalendar, c.Timezone)
		}
	}
	if err := validateShift(c.FirstShift); err != nil {
		return err
	}
	if c.SecondShift != nil {
		if err := validateShift(*c.SecondShift); err != nil {
			return err
		}
		if !c.SecondShift.Open.IsAfter(c.FirstShift.Close) {
			return fmt.Errorf("%w: second shift must open after the first one closes", ErrInvalidCalendar)
		}
	}
	if c.PrimaryDiscountPercent < 0 || c.PrimaryDiscountPercent > MaxDiscountPercent ||
		c.SecondaryDiscountPercent < 0 || c.SecondaryDiscountPercent > MaxDiscountPercent {
		return fmt.Errorf("%w: discount must be between 0 and %d percent", ErrInvalidCalendar, MaxDiscountPercent)
	}
	return nil
}

func validateShift(s Shift) error {
	if !s.Open.IsValid() || !s.Close.IsValid() {
		return fmt.Errorf("%w: shift times must be HH:MM", ErrInvalidCalendar)
	}
	if !s.Open.IsBefore(s.Close) {
		return fmt.Errorf("%w: shift must open before it closes (%s-%s)", ErrInvalidCalendar, s.Open, s.Close)
	}
	return nil
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
