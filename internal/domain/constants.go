package domain

// Default configuration values
const (
	DefaultIntervalMinutes    = 30
	DefaultMaxReservationDays = 30
	DefaultTimezone           = "UTC"
)

// Business validation constants
const (
	MinIntervalMinutes          = 5
	MaxIntervalMinutes          = 240
	MinReservationDays          = 1
	MaxReservationDays          = 365
	MaxDiscountPercent          = 100
	MaxServiceDurationMinutes   = 480 // 8 hours
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	TimeFormat     = "15:04"      // HH:MM
	DateFormat     = "2006-01-02" // YYYY-MM-DD
	DateTimeFormat = "2006-01-02T15:04:05Z07:00"
)

// PaymentTimeoutReason причина отмены записи, не оплаченной вовремя
const PaymentTimeoutReason = "payment timeout"

// ReleasingStatuses статусы, при переходе в которые ресурсы записи освобождаются
var ReleasingStatuses = []AppointmentStatus{
	StatusCancelled,
	StatusInactive,
}

// TerminalStatuses статусы, из которых нет переходов
var TerminalStatuses = []AppointmentStatus{
	StatusCompleted,
	StatusCancelled,
	StatusInactive,
}
