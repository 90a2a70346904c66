package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingStartsAt    = "время начала обязательно, ожидается RFC 3339"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgForbidden          = "записывать других клиентов может только персонал"
	msgSlotNotAvailable   = "выбранное время недоступно"
	msgPackageNotFound    = "пакет не найден"
	msgCalendarNotSet     = "календарь работы не настроен"
	msgCategoryNotSet     = "для категории услуг не настроены специалисты или рабочие места"
	msgInvalidStart       = "выбранное время нельзя забронировать"
	msgInvalidInput       = "некорректные данные записи"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /appointments - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Клиент записывает себя, персонал может записать любого клиента
	clientID := userID
	if req.ClientID != nil && *req.ClientID != userID {
		if !middleware.IsStaff(r.Context()) {
			h.logger.Warn("POST /appointments - Access denied: user_id=%d, client_id=%d", userID, *req.ClientID)
			handlers.RespondForbidden(w, msgForbidden)
			return
		}
		clientID = *req.ClientID
	}

	useCaseReq, err := req.ToUseCaseRequest(clientID)
	if err != nil {
		h.logger.Warn("POST /appointments - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgMissingStartsAt)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		var capacityErr *createBooking.CapacityError
		switch {
		case errors.As(err, &capacityErr):
			h.logger.Warn("POST /appointments - Slot not available: client_id=%d, package_id=%d, alternatives=%d",
				clientID, req.PackageID, len(capacityErr.Alternatives))
			handlers.RespondJSON(w, http.StatusConflict, FromCapacityError(msgSlotNotAvailable, capacityErr))

		case errors.Is(err, createBooking.ErrSlotNotAvailable):
			h.logger.Warn("POST /appointments - Slot not available: client_id=%d, package_id=%d", clientID, req.PackageID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrPackageNotFound):
			h.logger.Warn("POST /appointments - Package not found: package_id=%d", req.PackageID)
			handlers.RespondNotFound(w, msgPackageNotFound)

		case errors.Is(err, createBooking.ErrCalendarNotConfigured):
			h.logger.Warn("POST /appointments - Calendar not configured")
			handlers.RespondUnprocessable(w, msgCalendarNotSet)

		case errors.Is(err, createBooking.ErrCategoryNotConfigured):
			h.logger.Warn("POST /appointments - Category not configured: package_id=%d", req.PackageID)
			handlers.RespondUnprocessable(w, msgCategoryNotSet)

		case errors.Is(err, createBooking.ErrInvalidStart):
			h.logger.Warn("POST /appointments - Invalid start: client_id=%d, error=%v", clientID, err)
			handlers.RespondBadRequest(w, msgInvalidStart)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Invalid input: client_id=%d, error=%v", clientID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /appointments - Failed to create appointment: client_id=%d, package_id=%d, error=%v",
				clientID, req.PackageID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment created successfully: appointment_id=%d, client_id=%d, package_id=%d",
		result.ID, clientID, req.PackageID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
