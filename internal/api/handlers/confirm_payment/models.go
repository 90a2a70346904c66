package confirm_payment

import (
	"time"

	confirmPayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/confirm_payment"
)

// PaymentCallbackRequest уведомление об оплате
type PaymentCallbackRequest struct {
	AppointmentID int64   `json:"appointmentId"`
	PaidAmount    float64 `json:"paidAmount"`
	Reference     string  `json:"reference,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *PaymentCallbackRequest) ToUseCaseRequest() *confirmPayment.Request {
	return &confirmPayment.Request{
		AppointmentID:    r.AppointmentID,
		PaymentReference: r.Reference,
		PaidAmount:       r.PaidAmount,
	}
}

// PaymentCallbackResponse HTTP response model
type PaymentCallbackResponse struct {
	AppointmentID int64     `json:"appointmentId"`
	Status        string    `json:"status"`
	PaidAmount    float64   `json:"paidAmount"`
	PaidAt        time.Time `json:"paidAt"`
	AlreadyPaid   bool      `json:"alreadyPaid"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *confirmPayment.Response) *PaymentCallbackResponse {
	return &PaymentCallbackResponse{
		AppointmentID: resp.AppointmentID,
		Status:        resp.Status,
		PaidAmount:    resp.PaidAmount,
		PaidAt:        resp.PaidAt,
		AlreadyPaid:   resp.AlreadyPaid,
	}
}
