package create_booking

import (
	"errors"
	"time"

	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

// ErrMissingStartsAt время начала не передано
var ErrMissingStartsAt = errors.New("startsAt is required")

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ClientID  *int64     `json:"clientId,omitempty"` // Персонал может записать клиента, по умолчанию текущий пользователь
	PackageID int64      `json:"packageId"`
	StartsAt  *time.Time `json:"startsAt"` // RFC 3339 с часовым поясом
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(clientID int64) (*createBooking.Request, error) {
	if r.StartsAt == nil {
		return nil, ErrMissingStartsAt
	}
	return &createBooking.Request{
		ClientID:  clientID,
		PackageID: r.PackageID,
		StartsAt:  *r.StartsAt,
	}, nil
}

// AssignmentResponse назначенные ресурсы одной услуги
type AssignmentResponse struct {
	ServiceID       int64     `json:"serviceId"`
	ServiceName     string    `json:"serviceName"`
	Position        int       `json:"position"`
	ProfessionalID  int64     `json:"professionalId"`
	WorkstationID   int64     `json:"workstationId"`
	StartsAt        time.Time `json:"startsAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Price           float64   `json:"price"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	ID               int64                `json:"id"`
	ClientID         int64                `json:"clientId"`
	PackageID        int64                `json:"packageId"`
	StartsAt         time.Time            `json:"startsAt"`
	EndsAt           time.Time            `json:"endsAt"`
	Status           string               `json:"status"`
	TotalPrice       float64              `json:"totalPrice"`
	PaymentReference *string              `json:"paymentReference,omitempty"`
	PaymentURL       *string              `json:"paymentUrl,omitempty"`
	Assignments      []AssignmentResponse `json:"assignments"`
	CreatedAt        time.Time            `json:"createdAt"`
}

// SlotNotAvailableResponse тело ответа 409 с ближайшими свободными стартами
type SlotNotAvailableResponse struct {
	Error        string      `json:"error"`
	StartsAt     time.Time   `json:"startsAt"`
	Alternatives []time.Time `json:"alternatives"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	result := &CreateBookingResponse{
		ID:               resp.ID,
		ClientID:         resp.ClientID,
		PackageID:        resp.PackageID,
		StartsAt:         resp.StartsAt,
		EndsAt:           resp.EndsAt,
		Status:           resp.Status,
		TotalPrice:       resp.TotalPrice,
		PaymentReference: resp.PaymentReference,
		PaymentURL:       resp.PaymentURL,
		Assignments:      make([]AssignmentResponse, 0, len(resp.Assignments)),
		CreatedAt:        resp.CreatedAt,
	}
	for _, a := range resp.Assignments {
		result.Assignments = append(result.Assignments, AssignmentResponse{
			ServiceID:       a.ServiceID,
			ServiceName:     a.ServiceName,
			Position:        a.Position,
			ProfessionalID:  a.ProfessionalID,
			WorkstationID:   a.WorkstationID,
			StartsAt:        a.StartsAt,
			DurationMinutes: a.DurationMinutes,
			Price:           a.Price,
		})
	}
	return result
}

// FromCapacityError формирует тело ответа 409
func FromCapacityError(message string, e *createBooking.CapacityError) *SlotNotAvailableResponse {
	alternatives := e.Alternatives
	if alternatives == nil {
		alternatives = []time.Time{}
	}
	return &SlotNotAvailableResponse{
		Error:        message,
		StartsAt:     e.StartsAt,
		Alternatives: alternatives,
	}
}
