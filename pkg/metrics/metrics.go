package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор Prometheus метрик сервиса
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueryDuration     *prometheus.HistogramVec
	DBQueryErrors       *prometheus.CounterVec
	DBOpenConnections   *prometheus.GaugeVec
	DBInUseConnections  *prometheus.GaugeVec
	DBIdleConnections   *prometheus.GaugeVec
	DBWaitCount         *prometheus.GaugeVec
	DBTransactionsTotal *prometheus.CounterVec

	// Бизнес-метрики
	BookingOutcomes      *prometheus.CounterVec
	AvailabilityDuration *prometheus.HistogramVec
	AvailableStartsTotal *prometheus.CounterVec
	ExpiredAppointments  *prometheus.CounterVec
	AuditPublishFailures *prometheus.CounterVec
}

// New регистрирует метрики в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry регистрирует метрики в переданном реестре (используется в тестах)
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database queries",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		DBOpenConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: constLabels,
		}, []string{}),
		DBInUseConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{}),
		DBIdleConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}, []string{}),
		DBWaitCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{}),
		DBTransactionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_transactions_total",
			Help:        "Total number of database transactions by result",
			ConstLabels: constLabels,
		}, []string{"result"}),

		BookingOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_outcomes_total",
			Help:        "Booking attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		AvailabilityDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "availability_query_duration_seconds",
			Help:        "Duration of available starts computation",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{}),
		AvailableStartsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "available_starts_total",
			Help:        "Total number of available starts returned",
			ConstLabels: constLabels,
		}, []string{}),
		ExpiredAppointments: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "expired_appointments_total",
			Help:        "Pending appointments cancelled by payment timeout",
			ConstLabels: constLabels,
		}, []string{}),
		AuditPublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "audit_publish_failures_total",
			Help:        "Audit events that failed to publish",
			ConstLabels: constLabels,
		}, []string{}),
	}
}

// Booking outcomes
const (
	OutcomeBooked        = "booked"
	OutcomeCapacity      = "capacity"
	OutcomeInvalid       = "invalid"
	OutcomeLockTimeout   = "lock_timeout"
	OutcomeInternalError = "error"
)

// ObserveBooking увеличивает счетчик исходов бронирования. Безопасен для nil.
func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.BookingOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveAvailability фиксирует длительность и размер результата поиска. Безопасен для nil.
func (m *Metrics) ObserveAvailability(seconds float64, found int) {
	if m == nil {
		return
	}
	m.AvailabilityDuration.WithLabelValues().Observe(seconds)
	m.AvailableStartsTotal.WithLabelValues().Add(float64(found))
}

// ObserveExpired увеличивает счетчик просроченных записей. Безопасен для nil.
func (m *Metrics) ObserveExpired(n int) {
	if m == nil {
		return
	}
	m.ExpiredAppointments.WithLabelValues().Add(float64(n))
}

// ObserveAuditFailure увеличивает счетчик неотправленных событий аудита. Безопасен для nil.
func (m *Metrics) ObserveAuditFailure() {
	if m == nil {
		return
	}
	m.AuditPublishFailures.WithLabelValues().Inc()
}
