package get_available_starts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	getAvailableStarts "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_starts"
)

const (
	msgInvalidPackageID     = "некорректный ID пакета"
	msgInvalidPage          = "некорректный номер страницы"
	msgInvalidPageSize      = "некорректный размер страницы"
	msgPackageNotFound      = "пакет не найден"
	msgCalendarNotSet       = "календарь работы не настроен"
	msgCategoryNotSet       = "для категории услуг не настроены специалисты или рабочие места"
	msgInvalidRequestParams = "некорректные параметры запроса"
)

type Handler struct {
	useCase GetAvailableStartsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableStartsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/packages/{packageId}/available-starts
// Query params: page (optional, from 1), pageSize (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	packageID, err := strconv.ParseInt(mux.Vars(r)["packageId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /packages/{id}/available-starts - Invalid package ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPackageID)
		return
	}

	page, ok := queryInt(r, "page")
	if !ok {
		h.logger.Warn("GET /packages/{id}/available-starts - Invalid page: %q", r.URL.Query().Get("page"))
		handlers.RespondBadRequest(w, msgInvalidPage)
		return
	}
	pageSize, ok := queryInt(r, "pageSize")
	if !ok {
		h.logger.Warn("GET /packages/{id}/available-starts - Invalid page size: %q", r.URL.Query().Get("pageSize"))
		handlers.RespondBadRequest(w, msgInvalidPageSize)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableStarts.Request{
		PackageID: packageID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableStarts.ErrPackageNotFound):
			h.logger.Warn("GET /packages/{id}/available-starts - Package not found: package_id=%d", packageID)
			handlers.RespondNotFound(w, msgPackageNotFound)

		case errors.Is(err, getAvailableStarts.ErrCalendarNotConfigured):
			h.logger.Warn("GET /packages/{id}/available-starts - Calendar not configured")
			handlers.RespondUnprocessable(w, msgCalendarNotSet)

		case errors.Is(err, getAvailableStarts.ErrCategoryNotConfigured):
			h.logger.Warn("GET /packages/{id}/available-starts - Category not configured: package_id=%d", packageID)
			handlers.RespondUnprocessable(w, msgCategoryNotSet)

		case errors.Is(err, getAvailableStarts.ErrInvalidInput):
			h.logger.Warn("GET /packages/{id}/available-starts - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestParams)

		default:
			h.logger.Error("GET /packages/{id}/available-starts - Failed to get starts: package_id=%d, error=%v",
				packageID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /packages/{id}/available-starts - Starts retrieved: package_id=%d, page=%d, count=%d, total=%d",
		packageID, result.Page, len(result.Starts), result.Total)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

// queryInt читает необязательный целый параметр, пустое значение дает 0
func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
