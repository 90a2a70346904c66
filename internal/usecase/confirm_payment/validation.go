package confirm_payment

import (
	"fmt"
	"math"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Допуск на округление денежных сумм
const amountEpsilon = 0.005

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.AppointmentID <= 0 {
		return fmt.Errorf("%w: appointmentID must be positive", ErrInvalidInput)
	}

	if req.PaidAmount < 0 || math.IsNaN(req.PaidAmount) || math.IsInf(req.PaidAmount, 0) {
		return fmt.Errorf("%w: paidAmount must be a non-negative number", ErrInvalidInput)
	}

	return nil
}

// validatePayment проверяет, что оплата относится к записи и покрывает ее стоимость.
// Если у записи есть ссылка платежа, уведомление обязано ее повторить.
func validatePayment(a *domain.Appointment, req *Request) error {
	if a.PaymentReference != nil && *a.PaymentReference != req.PaymentReference {
		return ErrReferenceMismatch
	}

	if req.PaidAmount+amountEpsilon < a.TotalPrice {
		return fmt.Errorf("%w: paid %.2f of %.2f", ErrUnderpaid, req.PaidAmount, a.TotalPrice)
	}

	return nil
}
