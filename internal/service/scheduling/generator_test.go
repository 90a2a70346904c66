package scheduling

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

func TestGenerator_Candidates_EmptyDay(t *testing.T) {
	pools := map[int64]*Pool{1: testPool(1, 1, 1)}
	gen := NewGenerator(testCalendar(), pools, nil, clock(8, 0), 10)

	starts := slices.Collect(gen.Candidates(CandidateQuery{CategoryID: 1, DurationMinutes: 45}))

	// 09:00 ... 19:10 с шагом 10 минут, следующий день закрыт горизонтом
	require.Len(t, starts, 62)
	assert.Equal(t, clock(9, 0), starts[0])
	assert.Equal(t, clock(19, 10), starts[len(starts)-1])
}

func TestGenerator_Candidates_ClosingBoundary(t *testing.T) {
	cal := testCalendar()
	cal.IntervalMinutes = 5
	pools := map[int64]*Pool{1: testPool(1, 1, 1)}
	gen := NewGenerator(cal, pools, nil, clock(8, 0), 5)

	starts := slices.Collect(gen.Candidates(CandidateQuery{CategoryID: 1, DurationMinutes: 45}))

	require.NotEmpty(t, starts)
	assert.Equal(t, clock(19, 15), starts[len(starts)-1], "20:00 close minus 45 minutes")
	for _, s := range starts {
		assert.True(t, cal.IsOpenInstant(s, 45), "candidate %s must be open", s)
		assert.False(t, s.Add(45*time.Minute).After(clock(20, 0)))
	}
}

func TestGenerator_Candidates_StartRoundsUp(t *testing.T) {
	pools := map[int64]*Pool{1: testPool(1, 1, 1)}
	gen := NewGenerator(testCalendar(), pools, nil, clock(11, 3), 10)

	assert.Equal(t, clock(11, 10), gen.Start())

	first, ok := firstOf(gen, CandidateQuery{CategoryID: 1, DurationMinutes: 30})
	require.True(t, ok)
	assert.Equal(t, clock(11, 10), first)
}

func TestGenerator_Candidates_Horizon(t *testing.T) {
	cal := testCalendar()
	cal.MaxReservationDays = 3
	now := clock(12, 0)
	pools := map[int64]*Pool{1: testPool(1, 1, 1)}
	gen := NewGenerator(cal, pools, nil, now, 10)

	var last time.Time
	for s := range gen.Candidates(CandidateQuery{CategoryID: 1, DurationMinutes: 30}) {
		assert.False(t, s.Before(now))
		assert.False(t, s.After(now.AddDate(0, 0, 3)), "candidate %s is beyond the horizon", s)
		last = s
	}
	assert.Equal(t, clock(12, 0).AddDate(0, 0, 3), last, "Thursday 12:00 is exactly on the horizon")
}

func TestGenerator_Candidates_Aligned(t *testing.T) {
	cal := testCalendar()
	cal.IntervalMinutes = 30
	pools := map[int64]*Pool{1: testPool(1, 1, 1)}
	gen := NewGenerator(cal, pools, nil, clock(8, 0), 10)

	starts := slices.Collect(gen.Candidates(CandidateQuery{CategoryID: 1, DurationMinutes: 30, Aligned: true}))

	require.NotEmpty(t, starts)
	assert.Equal(t, []time.Time{clock(9, 0), clock(9, 30), clock(10, 0)}, starts[:3])
	for _, s := range starts {
		assert.Zero(t, s.Minute()%30)
	}
}

func TestGenerator_Candidates_StepFollowsInterval(t *testing.T) {
	cal := testCalendar()
	cal.IntervalMinutes = 15
	gen := NewGenerator(cal, map[int64]*Pool{1: testPool(1, 1, 1)}, nil, clock(8, 0), 10)

	assert.Equal(t, 5*time.Minute, gen.Step())

	starts := slices.Collect(gen.Candidates(CandidateQuery{CategoryID: 1, DurationMinutes: 30, Aligned: true}))
	assert.Equal(t, []time.Time{clock(9, 0), clock(9, 15), clock(9, 30)}, starts[:3])
}

func TestGenerator_Candidates_Idempotent(t *testing.T) {
	occupancy := NewOccupancy([]domain.ServiceAssignment{
		booked(1, 1, 101, 201, clock(10, 0), 60),
	})
	gen := NewGenerator(testCalendar(), map[int64]*Pool{1: testPool(1, 1, 1)}, occupancy, clock(8, 0), 10)
	q := CandidateQuery{CategoryID: 1, DurationMinutes: 30}

	first := slices.Collect(gen.Candidates(q))
	second := slices.Collect(gen.Candidates(q))

	assert.Equal(t, first, second)
}

func TestGenerator_Capacity(t *testing.T) {
	q := CandidateQuery{CategoryID: 1, DurationMinutes: 45}
	target := clock(10, 0)

	tests := []struct {
		name     string
		existing []domain.ServiceAssignment
		want     bool
	}{
		{
			name: "no bookings",
			want: true,
		},
		{
			name:     "one overlapping booking fits two professionals",
			existing: []domain.ServiceAssignment{booked(1, 1, 101, 201, target, 45)},
			want:     true,
		},
		{
			name: "two overlapping bookings exhaust two professionals",
			existing: []domain.ServiceAssignment{
				booked(1, 1, 101, 201, target, 45),
				booked(2, 1, 102, 202, target.Add(-20*time.Minute), 45),
			},
			want: false,
		},
		{
			name: "released bookings are ignored",
			existing: []domain.ServiceAssignment{
				booked(1, 1, 101, 201, target, 45),
				func() domain.ServiceAssignment {
					a := booked(2, 1, 102, 202, target, 45)
					a.Released = true
					return a
				}(),
			},
			want: true,
		},
		{
			name: "bookings of another category are ignored",
			existing: []domain.ServiceAssignment{
				booked(1, 2, 101, 201, target, 45),
				booked(2, 2, 102, 202, target, 45),
			},
			want: true,
		},
		{
			name: "bookings outside the widened window are ignored",
			existing: []domain.ServiceAssignment{
				booked(1, 1, 101, 201, target.Add(-90*time.Minute), 45),
				booked(2, 1, 102, 202, target.Add(45*time.Minute), 45),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pools := map[int64]*Pool{1: testPool(1, 2, 3)}
			gen := NewGenerator(testCalendar(), pools, NewOccupancy(tt.existing), clock(8, 0), 10)

			assert.Equal(t, tt.want, gen.IsAvailable(q, target))
			assert.Equal(t, tt.want, slices.Contains(slices.Collect(gen.Candidates(q)), target))
		})
	}
}

func TestGenerator_IsAvailable_Bounds(t *testing.T) {
	gen := NewGenerator(testCalendar(), map[int64]*Pool{1: testPool(1, 1, 1)}, nil, clock(12, 0), 10)
	q := CandidateQuery{CategoryID: 1, DurationMinutes: 30}

	assert.False(t, gen.IsAvailable(q, clock(11, 0)), "past")
	assert.True(t, gen.IsAvailable(q, clock(12, 0)))
	assert.False(t, gen.IsAvailable(q, clock(12, 0).AddDate(0, 0, 2)), "beyond horizon")
	assert.False(t, gen.IsAvailable(CandidateQuery{CategoryID: 9, DurationMinutes: 30}, clock(13, 0)), "unknown category")
}

func firstOf(gen *Generator, q CandidateQuery) (time.Time, bool) {
	for s := range gen.Candidates(q) {
		return s, true
	}
	return time.Time{}, false
}
