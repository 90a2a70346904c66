package calendar

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	calendarRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar/models"
)

// Service сервис для работы с календарем работы
type Service struct {
	calendarRepo CalendarRepository
	logger       Logger
}

// NewService создает новый экземпляр сервиса календаря
func NewService(calendarRepo CalendarRepository, logger Logger) *Service {
	return &Service{
		calendarRepo: calendarRepo,
		logger:       logger,
	}
}

// Get получает текущий календарь
// Публичный метод - доступен всем
func (s *Service) Get(ctx context.Context) (*models.CalendarResponse, error) {
	s.logger.Info("Get: fetching business calendar")

	cal, err := s.calendarRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, calendarRepo.ErrCalendarNotFound) {
			s.logger.Warn("Get: business calendar is not configured")
			return nil, ErrCalendarNotFound
		}
		s.logger.Error("Get: repository error: %v", err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainCalendar(cal), nil
}

// Update обновляет календарь
// Доступно только персоналу. Если календаря еще нет, поля применяются к значениям по умолчанию.
func (s *Service) Update(ctx context.Context, req *models.UpdateCalendarRequest) (*models.CalendarResponse, error) {
	s.logger.Info("Update: updating business calendar by user=%d", req.UserID)

	if !req.IsStaff {
		s.logger.Warn("Update: user=%d is not staff", req.UserID)
		return nil, ErrAccessDenied
	}

	// 1. Получаем текущий календарь
	cal, err := s.calendarRepo.Get(ctx)
	switch {
	case errors.Is(err, calendarRepo.ErrCalendarNotFound):
		s.logger.Info("Update: business calendar is not configured yet, starting from defaults")
		cal = defaultCalendar()
	case err != nil:
		s.logger.Error("Update: repository error: %v", err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	// 2. Применяем обновления
	if err := req.ApplyTo(cal); err != nil {
		s.logger.Warn("Update: invalid request: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 3. Валидируем итоговый календарь
	if err := cal.Validate(); err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 4. Сохраняем
	saved, err := s.calendarRepo.Save(ctx, cal)
	if err != nil {
		s.logger.Error("Update: repository error: %v", err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: successfully updated business calendar (interval=%d, horizon=%d days)",
		saved.IntervalMinutes, saved.MaxReservationDays)
	return models.FromDomainCalendar(saved), nil
}

func defaultCalendar() *domain.BusinessCalendar {
	return &domain.BusinessCalendar{
		IntervalMinutes:    domain.DefaultIntervalMinutes,
		MaxReservationDays: domain.DefaultMaxReservationDays,
		Timezone:           domain.DefaultTimezone,
	}
}
