package calendar

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// CalendarRepository интерфейс хранилища календаря
type CalendarRepository interface {
	Get(ctx context.Context) (*domain.BusinessCalendar, error)
	Save(ctx context.Context, cal *domain.BusinessCalendar) (*domain.BusinessCalendar, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
