package payment

// CheckoutRequest запрос на создание платежа за запись
type CheckoutRequest struct {
	AppointmentID int64
	ClientID      int64
	Description   string
	Amount        float64
}

// Checkout платежная ссылка, которую клиент должен открыть для оплаты
type Checkout struct {
	Reference   string
	RedirectURL string
}
