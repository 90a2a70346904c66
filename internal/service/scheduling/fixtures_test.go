package scheduling

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// 2025-03-17 это понедельник
var monday = time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

func clock(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func testCalendar() domain.BusinessCalendar {
	return domain.BusinessCalendar{
		IntervalMinutes:    10,
		MaxReservationDays: 1,
		FirstShift:         domain.Shift{Open: "09:00", Close: "20:00"},
		OpenWeekdays:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Timezone:           "UTC",
	}
}

func testPool(categoryID int64, professionals, workstations int) *Pool {
	pool := &Pool{CategoryID: categoryID}
	for i := 1; i <= professionals; i++ {
		pool.Professionals = append(pool.Professionals, domain.Professional{ID: int64(100 + i)})
	}
	for i := 1; i <= workstations; i++ {
		pool.Workstations = append(pool.Workstations, domain.Workstation{ID: int64(200 + i), State: domain.ResourceStateActive})
	}
	return pool
}

func booked(appointmentID, categoryID, professionalID, workstationID int64, start time.Time, duration int) domain.ServiceAssignment {
	return domain.ServiceAssignment{
		AppointmentID:   appointmentID,
		CategoryID:      categoryID,
		ProfessionalID:  professionalID,
		WorkstationID:   workstationID,
		StartsAt:        start,
		DurationMinutes: duration,
	}
}

type fakeDirectory struct {
	professionals map[int64][]domain.Professional
	workstations  map[int64][]domain.Workstation
	err           error
}

func (d *fakeDirectory) ListProfessionals(_ context.Context, categoryID int64) ([]domain.Professional, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.professionals[categoryID], nil
}

func (d *fakeDirectory) ListWorkstations(_ context.Context, categoryID int64) ([]domain.Workstation, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.workstations[categoryID], nil
}

type fakeAssignmentRepo struct {
	nextID  int64
	created []domain.ServiceAssignment
	err     error
}

func (r *fakeAssignmentRepo) CreateAssignment(_ context.Context, a *domain.ServiceAssignment) (*domain.ServiceAssignment, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	a.ID = r.nextID
	r.created = append(r.created, *a)
	return a, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
