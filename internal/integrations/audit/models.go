package audit

import (
	"time"

	"github.com/google/uuid"
)

// Типы событий аудита
const (
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentStatus    = "appointment.status_changed"
	EventAppointmentPaid      = "appointment.paid"
	EventAppointmentExpired   = "appointment.expired"
)

// Event событие аудита
type Event struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	AppointmentID int64             `json:"appointment_id"`
	ActorID       int64             `json:"actor_id,omitempty"`
	Status        string            `json:"status,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// NewEvent создает событие с уникальным идентификатором
func NewEvent(eventType string, appointmentID, actorID int64, status string) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		AppointmentID: appointmentID,
		ActorID:       actorID,
		Status:        status,
		OccurredAt:    time.Now().UTC(),
	}
}

// With добавляет атрибут
func (e Event) With(key, value string) Event {
	attrs := make(map[string]string, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attributes = attrs
	return e
}
