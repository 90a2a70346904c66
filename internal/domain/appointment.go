package domain

import "time"

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "PENDING"
	StatusActive     AppointmentStatus = "ACTIVE"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusDelinquent AppointmentStatus = "DELINQUENT"
	StatusInactive   AppointmentStatus = "INACTIVE"
	StatusCancelled  AppointmentStatus = "CANCELLED"
)

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:    {StatusActive, StatusCancelled, StatusInactive, StatusDelinquent},
	StatusActive:     {StatusCompleted, StatusDelinquent, StatusInactive, StatusCancelled},
	StatusDelinquent: {StatusCompleted, StatusCancelled},
}

// IsValid returns true for known statuses
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusDelinquent, StatusInactive, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows s -> next
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no transitions leave this status
func (s AppointmentStatus) IsTerminal() bool {
	for _, t := range TerminalStatuses {
		if t == s {
			return true
		}
	}
	return false
}

// ReleasesResources returns true if entering this status frees the assigned professionals and workstations
func (s AppointmentStatus) ReleasesResources() bool {
	for _, r := range ReleasingStatuses {
		if r == s {
			return true
		}
	}
	return false
}

// Appointment is a booked package for one client
type Appointment struct {
	ID         int64
	ClientID   int64
	PackageID  int64
	StartsAt   time.Time
	EndsAt     time.Time
	Status     AppointmentStatus
	TotalPrice float64

	PaymentReference *string
	PaymentURL       *string
	PaidAmount       *float64
	PaidAt           *time.Time

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Assignments []ServiceAssignment
}

// IsOwnedBy returns true if the appointment belongs to the client
func (a *Appointment) IsOwnedBy(clientID int64) bool {
	return a.ClientID == clientID
}

// CanBeCancelled returns true if the appointment may still be cancelled
func (a *Appointment) CanBeCancelled() bool {
	return a.Status.CanTransitionTo(StatusCancelled)
}

// IsPaid returns true if a payment was confirmed
func (a *Appointment) IsPaid() bool {
	return a.PaidAt != nil
}

// ServiceAssignment binds one service of an appointment to a professional and a workstation
type ServiceAssignment struct {
	ID             int64
	AppointmentID  int64
	ServiceID      int64
	CategoryID     int64
	ProfessionalID int64
	WorkstationID  int64
	Position       int
	StartsAt       time.Time

	// Snapshots taken at booking time
	ServiceName     string
	DurationMinutes int
	Price           float64

	Released  bool
	CreatedAt time.Time
}

// EndsAt returns the end of the assignment
func (a *ServiceAssignment) EndsAt() time.Time {
	return a.StartsAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Window returns the occupied interval [StartsAt, EndsAt)
func (a *ServiceAssignment) Window() Window {
	return NewWindow(a.StartsAt, a.DurationMinutes)
}

// AppointmentFilter filters a client's appointment history
type AppointmentFilter struct {
	ClientID int64
	Status   *AppointmentStatus
	Limit    int
	Offset   int
}
