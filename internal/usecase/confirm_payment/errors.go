package confirm_payment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("confirm_payment: appointment not found")

	// ErrInvalidStatus возвращается, когда запись уже нельзя оплатить
	ErrInvalidStatus = errors.New("confirm_payment: appointment cannot be paid in its current status")

	// ErrUnderpaid возвращается, когда оплаченная сумма меньше стоимости записи
	ErrUnderpaid = errors.New("confirm_payment: paid amount is less than total price")

	// ErrReferenceMismatch возвращается, когда ссылка платежа не совпадает с сохраненной
	ErrReferenceMismatch = errors.New("confirm_payment: payment reference mismatch")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("confirm_payment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("confirm_payment: internal error")
)
