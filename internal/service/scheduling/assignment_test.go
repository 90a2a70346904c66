package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

func TestEngine_Assign(t *testing.T) {
	service := domain.Service{ID: 7, CategoryID: 1, Name: "Facial", DurationMinutes: 30, Price: 40}
	start := clock(10, 0)

	t.Run("picks free resources and records them in occupancy", func(t *testing.T) {
		repo := &fakeAssignmentRepo{}
		engine := NewEngine(repo, FirstFreePolicy{}, nopLogger{})
		occupancy := NewOccupancy([]domain.ServiceAssignment{
			booked(1, 1, 101, 201, start, 30),
		})

		got, err := engine.Assign(context.Background(), AssignRequest{
			AppointmentID: 2,
			Service:       service,
			Position:      0,
			StartsAt:      start,
			Pool:          testPool(1, 2, 2),
			Occupancy:     occupancy,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(102), got.ProfessionalID)
		assert.Equal(t, int64(202), got.WorkstationID)
		assert.Equal(t, 30, got.DurationMinutes)
		assert.InDelta(t, 40.0, got.Price, 1e-9)
		assert.Equal(t, "Facial", got.ServiceName)
		assert.Len(t, occupancy.InCategory(1), 2)
		assert.Len(t, repo.created, 1)
	})

	t.Run("no free professional", func(t *testing.T) {
		engine := NewEngine(&fakeAssignmentRepo{}, FirstFreePolicy{}, nopLogger{})
		occupancy := NewOccupancy([]domain.ServiceAssignment{
			booked(1, 1, 101, 201, start.Add(10*time.Minute), 30),
		})

		_, err := engine.Assign(context.Background(), AssignRequest{
			AppointmentID: 2,
			Service:       service,
			StartsAt:      start,
			Pool:          testPool(1, 1, 3),
			Occupancy:     occupancy,
		})

		assert.ErrorIs(t, err, ErrCapacityExhausted)
		assert.ErrorIs(t, err, ErrNoFreeProfessional)
	})

	t.Run("no free workstation", func(t *testing.T) {
		engine := NewEngine(&fakeAssignmentRepo{}, FirstFreePolicy{}, nopLogger{})
		occupancy := NewOccupancy([]domain.ServiceAssignment{
			booked(1, 1, 101, 201, start, 30),
		})

		_, err := engine.Assign(context.Background(), AssignRequest{
			AppointmentID: 2,
			Service:       service,
			StartsAt:      start,
			Pool:          testPool(1, 3, 1),
			Occupancy:     occupancy,
		})

		assert.ErrorIs(t, err, ErrNoFreeWorkstation)
	})

	t.Run("own appointment does not contend", func(t *testing.T) {
		engine := NewEngine(&fakeAssignmentRepo{}, FirstFreePolicy{}, nopLogger{})
		occupancy := NewOccupancy([]domain.ServiceAssignment{
			booked(5, 1, 101, 201, start.Add(-30*time.Minute), 30),
		})

		got, err := engine.Assign(context.Background(), AssignRequest{
			AppointmentID: 5,
			Service:       service,
			Position:      1,
			StartsAt:      start,
			Pool:          testPool(1, 1, 1),
			Occupancy:     occupancy,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(101), got.ProfessionalID)
	})

	t.Run("professional busy in another category", func(t *testing.T) {
		engine := NewEngine(&fakeAssignmentRepo{}, FirstFreePolicy{}, nopLogger{})
		occupancy := NewOccupancy([]domain.ServiceAssignment{
			booked(1, 2, 101, 301, start, 60),
		})

		got, err := engine.Assign(context.Background(), AssignRequest{
			AppointmentID: 2,
			Service:       service,
			StartsAt:      start,
			Pool:          testPool(1, 2, 1),
			Occupancy:     occupancy,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(102), got.ProfessionalID)
		assert.Equal(t, int64(201), got.WorkstationID)
	})

	t.Run("repository failure", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		engine := NewEngine(&fakeAssignmentRepo{err: dbErr}, nil, nopLogger{})

		_, err := engine.Assign(context.Background(), AssignRequest{
			AppointmentID: 2,
			Service:       service,
			StartsAt:      start,
			Pool:          testPool(1, 1, 1),
			Occupancy:     NewOccupancy(nil),
		})

		assert.ErrorIs(t, err, ErrSaveAssignment)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestEngine_Assign_NeverDoubleBooks(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	engine := NewEngine(repo, RandomPolicy{}, nopLogger{})
	pool := testPool(1, 2, 3)
	occupancy := NewOccupancy(nil)
	service := domain.Service{ID: 1, CategoryID: 1, DurationMinutes: 45}

	var appointmentID int64
	for start := clock(9, 0); start.Before(clock(12, 0)); start = start.Add(15 * time.Minute) {
		for attempt := 0; attempt < 3; attempt++ {
			appointmentID++
			_, _ = engine.Assign(context.Background(), AssignRequest{
				AppointmentID: appointmentID,
				Service:       service,
				StartsAt:      start,
				Pool:          pool,
				Occupancy:     occupancy,
			})
		}
	}

	require.NotEmpty(t, repo.created)
	for i, a := range repo.created {
		for _, b := range repo.created[i+1:] {
			if !a.Window().Overlaps(b.Window()) {
				continue
			}
			assert.NotEqual(t, a.ProfessionalID, b.ProfessionalID, "professional double-booked")
			assert.NotEqual(t, a.WorkstationID, b.WorkstationID, "workstation double-booked")
		}
	}
}

func TestFreeResources(t *testing.T) {
	pool := testPool(1, 3, 2)
	colliding := []domain.ServiceAssignment{
		booked(1, 1, 101, 201, clock(10, 0), 30),
		booked(2, 1, 103, 201, clock(10, 0), 30),
	}

	professionals := FreeProfessionals(pool.Professionals, colliding)
	workstations := FreeWorkstations(pool.Workstations, colliding)

	require.Len(t, professionals, 1)
	assert.Equal(t, int64(102), professionals[0].ID)
	require.Len(t, workstations, 1)
	assert.Equal(t, int64(202), workstations[0].ID)

	assert.Len(t, FreeProfessionals(pool.Professionals, nil), 3)
}

func TestRoundRobinPolicy(t *testing.T) {
	policy := &RoundRobinPolicy{}
	free := testPool(1, 3, 1).Professionals

	picked := []int64{
		policy.PickProfessional(free).ID,
		policy.PickProfessional(free).ID,
		policy.PickProfessional(free).ID,
		policy.PickProfessional(free).ID,
	}
	assert.Equal(t, []int64{101, 102, 103, 101}, picked)
}
