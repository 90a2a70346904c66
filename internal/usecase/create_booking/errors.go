package create_booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrPackageNotFound возвращается, когда пакет не найден
	ErrPackageNotFound = errors.New("create_booking: package not found")

	// ErrCalendarNotConfigured возвращается, когда календарь работы еще не задан
	ErrCalendarNotConfigured = errors.New("create_booking: business calendar is not configured")

	// ErrCategoryNotConfigured возвращается, когда в категории нет активных специалистов или рабочих мест
	ErrCategoryNotConfigured = errors.New("create_booking: category has no professionals or workstations")

	// ErrSlotNotAvailable возвращается, когда на выбранное время не осталось свободных ресурсов
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrInvalidStart возвращается, когда время начала в прошлом, за горизонтом, вне сетки или вне рабочих часов
	ErrInvalidStart = errors.New("create_booking: invalid start time")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)

// CapacityError время занято. Alternatives ближайшие доступные старты того же пакета.
type CapacityError struct {
	StartsAt     time.Time
	Alternatives []time.Time
	Cause        error
}

func (e *CapacityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %s", ErrSlotNotAvailable, e.StartsAt.Format(time.RFC3339))
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Alternatives) > 0 {
		fmt.Fprintf(&b, " (%d alternatives)", len(e.Alternatives))
	}
	return b.String()
}

// Unwrap позволяет проверять и ErrSlotNotAvailable, и исходную причину
func (e *CapacityError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSlotNotAvailable}
	}
	return []error{ErrSlotNotAvailable, e.Cause}
}
