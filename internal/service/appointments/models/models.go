package models

import (
	"errors"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid appointment status")
)

// Request модели

// Actor кто выполняет запрос
type Actor struct {
	UserID  int64
	IsStaff bool
}

// CancelRequest запрос на отмену записи
type CancelRequest struct {
	Actor  Actor
	Reason string
}

// UpdateStatusRequest запрос на смену статуса (только персонал)
type UpdateStatusRequest struct {
	Actor  Actor
	Status string
}

// ListClientAppointmentsRequest запрос истории записей клиента
type ListClientAppointmentsRequest struct {
	Actor    Actor
	ClientID int64
	Status   *string
	Limit    int
	Offset   int
}

// Response модели

// AssignmentResponse назначение специалиста и рабочего места на услугу
type AssignmentResponse struct {
	ServiceID       int64     `json:"serviceId"`
	ServiceName     string    `json:"serviceName"`
	Position        int       `json:"position"`
	ProfessionalID  int64     `json:"professionalId"`
	WorkstationID   int64     `json:"workstationId"`
	StartsAt        time.Time `json:"startsAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Price           float64   `json:"price"`
	Released        bool      `json:"released"`
}

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"clientId"`
	PackageID  int64     `json:"packageId"`
	StartsAt   time.Time `json:"startsAt"`
	EndsAt     time.Time `json:"endsAt"`
	Status     string    `json:"status"`
	TotalPrice float64   `json:"totalPrice"`

	PaymentReference *string    `json:"paymentReference,omitempty"`
	PaymentURL       *string    `json:"paymentUrl,omitempty"`
	PaidAmount       *float64   `json:"paidAmount,omitempty"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601

	Assignments []AssignmentResponse `json:"assignments"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:                 a.ID,
		ClientID:           a.ClientID,
		PackageID:          a.PackageID,
		StartsAt:           a.StartsAt,
		EndsAt:             a.EndsAt,
		Status:             string(a.Status),
		TotalPrice:         a.TotalPrice,
		PaymentReference:   a.PaymentReference,
		PaymentURL:         a.PaymentURL,
		PaidAmount:         a.PaidAmount,
		PaidAt:             a.PaidAt,
		CancellationReason: a.CancellationReason,
		Assignments:        make([]AssignmentResponse, 0, len(a.Assignments)),
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}

	if a.CancelledAt != nil {
		cancelledStr := a.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	for _, as := range a.Assignments {
		resp.Assignments = append(resp.Assignments, AssignmentResponse{
			ServiceID:       as.ServiceID,
			ServiceName:     as.ServiceName,
			Position:        as.Position,
			ProfessionalID:  as.ProfessionalID,
			WorkstationID:   as.WorkstationID,
			StartsAt:        as.StartsAt,
			DurationMinutes: as.DurationMinutes,
			Price:           as.Price,
			Released:        as.Released,
		})
	}

	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(appointments []*domain.Appointment) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(appointments)),
	}
	for _, a := range appointments {
		resp.Appointments = append(resp.Appointments, *FromDomainAppointment(a))
	}
	return resp
}

// ToDomainStatus валидирует и конвертирует статус, регистр не важен
func ToDomainStatus(status string) (domain.AppointmentStatus, error) {
	s := domain.AppointmentStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
