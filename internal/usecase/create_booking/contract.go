package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/audit"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/payment"
	"github.com/m04kA/SMC-AppointmentService/internal/service/scheduling"
	"github.com/m04kA/SMC-AppointmentService/pkg/redislock"
)

// PackageRepository интерфейс каталога пакетов
type PackageRepository interface {
	GetPackage(ctx context.Context, id int64) (*domain.Package, error)
}

// CalendarRepository интерфейс хранилища календаря
type CalendarRepository interface {
	Get(ctx context.Context) (*domain.BusinessCalendar, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
	ListActiveAssignments(ctx context.Context, categoryIDs []int64, from, to time.Time) ([]domain.ServiceAssignment, error)
	ListResourceAssignments(ctx context.Context, professionalIDs, workstationIDs []int64, from, to time.Time) ([]domain.ServiceAssignment, error)
	SetPayment(ctx context.Context, id int64, reference, url string) error
}

// PoolLoader интерфейс загрузки пулов ресурсов
type PoolLoader interface {
	LoadAll(ctx context.Context, categoryIDs []int64) (map[int64]*scheduling.Pool, error)
}

// AssignmentEngine интерфейс выбора ресурсов для услуги
type AssignmentEngine interface {
	Assign(ctx context.Context, req scheduling.AssignRequest) (*domain.ServiceAssignment, error)
}

// Locker интерфейс распределенных блокировок
type Locker interface {
	Acquire(ctx context.Context, keys []string) (redislock.ReleaseFunc, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentGateway интерфейс платежного провайдера
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.Checkout, error)
}

// AuditPublisher интерфейс публикации событий аудита
type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event)
}

// Metrics интерфейс бизнес-метрик
type Metrics interface {
	ObserveBooking(outcome string)
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
