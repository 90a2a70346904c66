package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var (
	// ErrInvalidWeekday возвращается при неизвестном дне недели
	ErrInvalidWeekday = errors.New("invalid weekday")

	// ErrInvalidTime возвращается при времени не в формате HH:MM
	ErrInvalidTime = errors.New("invalid time, expected HH:MM")
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Request модели

// ShiftDTO смена в формате HH:MM
type ShiftDTO struct {
	Open  string `json:"open"`  // "09:00"
	Close string `json:"close"` // "13:00"
}

// UpdateCalendarRequest запрос на обновление календаря
// Все поля опциональны - обновляются только переданные значения
type UpdateCalendarRequest struct {
	UserID  int64 `json:"-"`
	IsStaff bool  `json:"-"`

	IntervalMinutes          *int      `json:"intervalMinutes,omitempty"`
	MaxReservationDays       *int      `json:"maxReservationDays,omitempty"`
	FirstShift               *ShiftDTO `json:"firstShift,omitempty"`
	SecondShift              *ShiftDTO `json:"secondShift,omitempty"`
	RemoveSecondShift        bool      `json:"removeSecondShift,omitempty"`
	OpenWeekdays             []string  `json:"openWeekdays,omitempty"`
	Timezone                 *string   `json:"timezone,omitempty"`
	PrimaryDiscountPercent   *float64  `json:"primaryDiscountPercent,omitempty"`
	SecondaryDiscountPercent *float64  `json:"secondaryDiscountPercent,omitempty"`
}

// ApplyTo применяет переданные поля к календарю
func (r *UpdateCalendarRequest) ApplyTo(cal *domain.BusinessCalendar) error {
	if r.IntervalMinutes != nil {
		cal.IntervalMinutes = *r.IntervalMinutes
	}
	if r.MaxReservationDays != nil {
		cal.MaxReservationDays = *r.MaxReservationDays
	}
	if r.FirstShift != nil {
		shift, err := r.FirstShift.toDomain()
		if err != nil {
			return err
		}
		cal.FirstShift = shift
	}
	if r.RemoveSecondShift {
		cal.SecondShift = nil
	}
	if r.SecondShift != nil {
		shift, err := r.SecondShift.toDomain()
		if err != nil {
			return err
		}
		cal.SecondShift = &shift
	}
	if r.OpenWeekdays != nil {
		days := make([]time.Weekday, 0, len(r.OpenWeekdays))
		for _, name := range r.OpenWeekdays {
			d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
			}
			days = append(days, d)
		}
		cal.OpenWeekdays = days
	}
	if r.Timezone != nil {
		cal.Timezone = *r.Timezone
	}
	if r.PrimaryDiscountPercent != nil {
		cal.PrimaryDiscountPercent = *r.PrimaryDiscountPercent
	}
	if r.SecondaryDiscountPercent != nil {
		cal.SecondaryDiscountPercent = *r.SecondaryDiscountPercent
	}
	return nil
}

func (s ShiftDTO) toDomain() (domain.Shift, error) {
	open, err := types.NewTimeStringFromString(s.Open)
	if err != nil {
		return domain.Shift{}, fmt.Errorf("%w: %q", ErrInvalidTime, s.Open)
	}
	closing, err := types.NewTimeStringFromString(s.Close)
	if err != nil {
		return domain.Shift{}, fmt.Errorf("%w: %q", ErrInvalidTime, s.Close)
	}
	return domain.Shift{Open: open, Close: closing}, nil
}

// Response модели

// CalendarResponse ответ с данными календаря
type CalendarResponse struct {
	IntervalMinutes          int       `json:"intervalMinutes"`
	MaxReservationDays       int       `json:"maxReservationDays"`
	FirstShift               ShiftDTO  `json:"firstShift"`
	SecondShift              *ShiftDTO `json:"secondShift,omitempty"`
	OpenWeekdays             []string  `json:"openWeekdays"`
	Timezone                 string    `json:"timezone"`
	PrimaryDiscountPercent   float64   `json:"primaryDiscountPercent"`
	SecondaryDiscountPercent float64   `json:"secondaryDiscountPercent"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

// FromDomainCalendar конвертирует domain модель в DTO
func FromDomainCalendar(c *domain.BusinessCalendar) *CalendarResponse {
	if c == nil {
		return nil
	}

	resp := &CalendarResponse{
		IntervalMinutes:          c.IntervalMinutes,
		MaxReservationDays:       c.MaxReservationDays,
		FirstShift:               ShiftDTO{Open: c.FirstShift.Open.String(), Close: c.FirstShift.Close.String()},
		OpenWeekdays:             make([]string, 0, len(c.OpenWeekdays)),
		Timezone:                 c.Timezone,
		PrimaryDiscountPercent:   c.PrimaryDiscountPercent,
		SecondaryDiscountPercent: c.SecondaryDiscountPercent,
		UpdatedAt:                c.UpdatedAt,
	}
	if c.SecondShift != nil {
		resp.SecondShift = &ShiftDTO{Open: c.SecondShift.Open.String(), Close: c.SecondShift.Close.String()}
	}
	for _, d := range c.OpenWeekdays {
		resp.OpenWeekdays = append(resp.OpenWeekdays, strings.ToLower(d.String()))
	}
	return resp
}
