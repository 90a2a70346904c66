package get_available_starts

import (
	"time"

	getAvailableStarts "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_starts"
)

// AvailableStartsResponse HTTP response model
type AvailableStartsResponse struct {
	PackageID       int64       `json:"packageId"`
	Timezone        string      `json:"timezone"`
	DurationMinutes int         `json:"durationMinutes"`
	Page            int         `json:"page"`
	PageSize        int         `json:"pageSize"`
	Total           int         `json:"total"`
	Starts          []time.Time `json:"starts"` // RFC 3339 в часовом поясе бизнеса
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *getAvailableStarts.Response) *AvailableStartsResponse {
	loc, err := time.LoadLocation(resp.Timezone)
	if err != nil {
		loc = time.UTC
	}

	starts := make([]time.Time, len(resp.Starts))
	for i, s := range resp.Starts {
		starts[i] = s.In(loc)
	}

	return &AvailableStartsResponse{
		PackageID:       resp.PackageID,
		Timezone:        resp.Timezone,
		DurationMinutes: resp.DurationMinutes,
		Page:            resp.Page,
		PageSize:        resp.PageSize,
		Total:           resp.Total,
		Starts:          starts,
	}
}
