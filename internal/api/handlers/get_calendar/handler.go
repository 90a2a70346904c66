package get_calendar

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
)

const msgNotFound = "календарь работы не настроен"

type Handler struct {
	service CalendarService
	logger  Logger
}

func NewHandler(service CalendarService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/calendar
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Get(r.Context())
	if err != nil {
		if errors.Is(err, calendar.ErrCalendarNotFound) {
			h.logger.Warn("GET /calendar - Calendar not configured")
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("GET /calendar - Failed to get calendar: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /calendar - Calendar retrieved successfully")
	handlers.RespondJSON(w, http.StatusOK, result)
}
