package payment

import "errors"

var (
	// ErrProvider ошибка платежного провайдера
	ErrProvider = errors.New("payment: provider error")

	// ErrInvalidAmount сумма не может быть оплачена
	ErrInvalidAmount = errors.New("payment: invalid amount")
)
