package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	if req.PackageID <= 0 {
		return fmt.Errorf("%w: packageID must be positive", ErrInvalidInput)
	}

	if req.StartsAt.IsZero() {
		return fmt.Errorf("%w: startsAt is required", ErrInvalidInput)
	}

	return nil
}

// validatePackage проверяет, что пакет можно забронировать
func validatePackage(pkg *domain.Package) error {
	if len(pkg.Services) == 0 {
		return fmt.Errorf("%w: package %d has no services", ErrInvalidInput, pkg.ID)
	}
	for _, s := range pkg.Services {
		if s.DurationMinutes <= 0 || s.DurationMinutes > domain.MaxServiceDurationMinutes {
			return fmt.Errorf("%w: service %d has invalid duration %d", ErrInvalidInput, s.ID, s.DurationMinutes)
		}
	}
	return nil
}

// validateStart проверяет, что время начала вообще может быть предложено клиенту.
// Занятость здесь не учитывается.
func validateStart(cal *domain.BusinessCalendar, pkg *domain.Package, start, now time.Time) error {
	if start.Before(now) {
		return fmt.Errorf("%w: %s is in the past", ErrInvalidStart, start.Format(time.RFC3339))
	}

	if start.After(cal.Horizon(now)) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrInvalidStart, cal.MaxReservationDays)
	}

	if !cal.IsAligned(start) {
		return fmt.Errorf("%w: start must be a multiple of %d minutes", ErrInvalidStart, cal.IntervalMinutes)
	}

	offsets := pkg.Offsets()
	for i, s := range pkg.Services {
		at := start.Add(time.Duration(offsets[i]) * time.Minute)
		if !cal.IsOpenInstant(at, s.DurationMinutes) {
			return fmt.Errorf("%w: service %d at %s is outside business hours",
				ErrInvalidStart, s.ID, at.In(cal.Location()).Format(domain.DateTimeFormat))
		}
	}

	return nil
}

// lockKeys ключи блокировок (категория, день бизнеса) для всех услуг пакета
func lockKeys(cal *domain.BusinessCalendar, pkg *domain.Package, start time.Time) []string {
	offsets := pkg.Offsets()
	keys := make([]string, 0, len(pkg.Services))
	for i, s := range pkg.Services {
		at := start.Add(time.Duration(offsets[i]) * time.Minute)
		keys = append(keys, fmt.Sprintf("category:%d:%s", s.CategoryID, cal.DayKey(at)))
	}
	return keys
}
