package expire_pending

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/audit"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Appointment, error)
	Cancel(ctx context.Context, id int64, reason string) error
	ReleaseAssignments(ctx context.Context, appointmentID int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditPublisher интерфейс публикации событий аудита
type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event)
}

// Metrics интерфейс бизнес-метрик
type Metrics interface {
	ObserveExpired(n int)
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
