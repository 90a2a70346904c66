package confirm_payment

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	confirmPayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/confirm_payment"
)

const (
	signatureHeader = "Stripe-Signature"
	maxPayloadBytes = 64 << 10

	msgNotConfigured      = "прием уведомлений об оплате не настроен"
	msgMissingSignature   = "отсутствует заголовок Stripe-Signature"
	msgInvalidSignature   = "некорректная подпись уведомления"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "запись не найдена"
	msgInvalidStatus      = "запись нельзя оплатить в текущем статусе"
	msgUnderpaid          = "оплаченная сумма меньше стоимости записи"
	msgReferenceMismatch  = "платеж не относится к этой записи"
	msgInvalidInput       = "некорректные данные платежа"
)

// WebhookSettings параметры проверки подписи уведомлений
type WebhookSettings struct {
	Secret    string
	Tolerance time.Duration
}

type Handler struct {
	useCase  ConfirmPaymentUseCase
	settings WebhookSettings
	logger   Logger
}

func NewHandler(useCase ConfirmPaymentUseCase, settings WebhookSettings, logger Logger) *Handler {
	return &Handler{
		useCase:  useCase,
		settings: settings,
		logger:   logger,
	}
}

// Handle POST /api/v1/payments/callback
// Аутентификация только по подписи Stripe-Signature.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(h.settings.Secret) == "" {
		h.logger.Warn("POST /payments/callback - Webhook secret is not configured")
		handlers.RespondError(w, http.StatusServiceUnavailable, msgNotConfigured)
		return
	}

	signature := r.Header.Get(signatureHeader)
	if strings.TrimSpace(signature) == "" {
		h.logger.Warn("POST /payments/callback - Missing %s header", signatureHeader)
		handlers.RespondUnauthorized(w, msgMissingSignature)
		return
	}

	if r.Body == nil {
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Warn("POST /payments/callback - Failed to read body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := webhook.ValidatePayloadWithTolerance(payload, signature, h.settings.Secret, h.settings.Tolerance); err != nil {
		h.logger.Warn("POST /payments/callback - Invalid signature: %v", err)
		handlers.RespondUnauthorized(w, msgInvalidSignature)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(payload))

	var req PaymentCallbackRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /payments/callback - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, confirmPayment.ErrAppointmentNotFound):
			h.logger.Warn("POST /payments/callback - Appointment not found: appointment_id=%d", req.AppointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, confirmPayment.ErrInvalidStatus):
			h.logger.Warn("POST /payments/callback - Invalid status: appointment_id=%d, error=%v", req.AppointmentID, err)
			handlers.RespondConflict(w, msgInvalidStatus)

		case errors.Is(err, confirmPayment.ErrUnderpaid):
			h.logger.Warn("POST /payments/callback - Underpaid: appointment_id=%d, amount=%.2f", req.AppointmentID, req.PaidAmount)
			handlers.RespondBadRequest(w, msgUnderpaid)

		case errors.Is(err, confirmPayment.ErrReferenceMismatch):
			h.logger.Warn("POST /payments/callback - Reference mismatch: appointment_id=%d", req.AppointmentID)
			handlers.RespondBadRequest(w, msgReferenceMismatch)

		case errors.Is(err, confirmPayment.ErrInvalidInput):
			h.logger.Warn("POST /payments/callback - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /payments/callback - Failed to confirm payment: appointment_id=%d, error=%v",
				req.AppointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /payments/callback - Payment confirmed: appointment_id=%d, already_paid=%t",
		result.AppointmentID, result.AlreadyPaid)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
