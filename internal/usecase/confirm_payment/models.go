package confirm_payment

import "time"

// Request уведомление платежного провайдера об оплате
type Request struct {
	AppointmentID    int64
	PaymentReference string // Обязательна, если запись хранит ссылку платежа
	PaidAmount       float64
}

// Response результат подтверждения
type Response struct {
	AppointmentID int64
	Status        string
	PaidAmount    float64
	PaidAt        time.Time
	// AlreadyPaid повторное уведомление по уже активной записи
	AlreadyPaid bool
}
