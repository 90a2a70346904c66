package get_available_starts

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/scheduling"
)

// PackageRepository интерфейс каталога пакетов
type PackageRepository interface {
	GetPackage(ctx context.Context, id int64) (*domain.Package, error)
}

// CalendarRepository интерфейс хранилища календаря
type CalendarRepository interface {
	Get(ctx context.Context) (*domain.BusinessCalendar, error)
}

// AssignmentRepository интерфейс чтения занятости
type AssignmentRepository interface {
	ListActiveAssignments(ctx context.Context, categoryIDs []int64, from, to time.Time) ([]domain.ServiceAssignment, error)
}

// PoolLoader интерфейс загрузки пулов ресурсов
type PoolLoader interface {
	LoadAll(ctx context.Context, categoryIDs []int64) (map[int64]*scheduling.Pool, error)
}

// Metrics интерфейс бизнес-метрик
type Metrics interface {
	ObserveAvailability(seconds float64, found int)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
