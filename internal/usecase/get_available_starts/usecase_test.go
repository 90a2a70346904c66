package get_available_starts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	calendarRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/calendar"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/service/scheduling"
)

// 2025-03-17 это понедельник
var monday = time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

func clock(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fakePackages struct {
	packages map[int64]*domain.Package
	err      error
}

func (f *fakePackages) GetPackage(_ context.Context, id int64) (*domain.Package, error) {
	if f.err != nil {
		return nil, f.err
	}
	pkg, ok := f.packages[id]
	if !ok {
		return nil, catalogRepo.ErrPackageNotFound
	}
	return pkg, nil
}

type fakeCalendar struct {
	calendar *domain.BusinessCalendar
}

func (f *fakeCalendar) Get(context.Context) (*domain.BusinessCalendar, error) {
	if f.calendar == nil {
		return nil, calendarRepo.ErrCalendarNotFound
	}
	cal := *f.calendar
	return &cal, nil
}

type fakeAssignments struct {
	assignments []domain.ServiceAssignment
	from, to    time.Time
}

func (f *fakeAssignments) ListActiveAssignments(_ context.Context, _ []int64, from, to time.Time) ([]domain.ServiceAssignment, error) {
	f.from, f.to = from, to
	return f.assignments, nil
}

type fakePools struct {
	pools map[int64]*scheduling.Pool
	err   error
}

func (f *fakePools) LoadAll(_ context.Context, ids []int64) (map[int64]*scheduling.Pool, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pools, nil
}

type spyMetrics struct {
	calls int
	found int
}

func (m *spyMetrics) ObserveAvailability(_ float64, found int) {
	m.calls++
	m.found = found
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func facialPackage() *domain.Package {
	return &domain.Package{
		ID: 1,
		Services: []domain.Service{
			{ID: 11, CategoryID: 1, Name: "A", DurationMinutes: 30, Price: 30},
			{ID: 12, CategoryID: 1, Name: "B", DurationMinutes: 20, Price: 20},
		},
	}
}

func morningCalendar() *domain.BusinessCalendar {
	return &domain.BusinessCalendar{
		IntervalMinutes:    10,
		MaxReservationDays: 1,
		FirstShift:         domain.Shift{Open: "09:00", Close: "13:00"},
		OpenWeekdays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		Timezone: "UTC",
	}
}

func facialPool() map[int64]*scheduling.Pool {
	return map[int64]*scheduling.Pool{
		1: {
			CategoryID:    1,
			Professionals: []domain.Professional{{ID: 101}},
			Workstations:  []domain.Workstation{{ID: 201, State: domain.ResourceStateActive}},
		},
	}
}

type fixture struct {
	uc          *UseCase
	packages    *fakePackages
	calendar    *fakeCalendar
	assignments *fakeAssignments
	pools       *fakePools
	metrics     *spyMetrics
}

func newFixture() *fixture {
	f := &fixture{
		packages:    &fakePackages{packages: map[int64]*domain.Package{1: facialPackage()}},
		calendar:    &fakeCalendar{calendar: morningCalendar()},
		assignments: &fakeAssignments{},
		pools:       &fakePools{pools: facialPool()},
		metrics:     &spyMetrics{},
	}
	f.uc = NewUseCase(f.packages, f.calendar, f.assignments, f.pools, f.metrics,
		Settings{StepMinutes: 10, DefaultPageSize: 5, MaxPageSize: 50}, nopLogger{})
	f.uc.timeProvider = fixedTime{now: clock(8, 0)}
	return f
}

func TestUseCase_Execute_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		pageSize  int
		wantFirst time.Time
		wantLen   int
	}{
		{name: "first page with default size", page: 1, pageSize: 0, wantFirst: clock(9, 0), wantLen: 5},
		{name: "page defaults to 1", page: 0, pageSize: 3, wantFirst: clock(9, 0), wantLen: 3},
		{name: "last full page", page: 4, pageSize: 5, wantFirst: clock(11, 30), wantLen: 5},
		{name: "partial page", page: 3, pageSize: 8, wantFirst: clock(11, 40), wantLen: 4},
		{name: "beyond the end", page: 5, pageSize: 5, wantLen: 0},
		{name: "very large page", page: math.MaxInt / 10, pageSize: 5, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			resp, err := f.uc.Execute(context.Background(), &Request{PackageID: 1, Page: tt.page, PageSize: tt.pageSize})

			require.NoError(t, err)
			assert.Equal(t, 20, resp.Total)
			assert.Equal(t, 50, resp.DurationMinutes)
			assert.Equal(t, "UTC", resp.Timezone)
			require.Len(t, resp.Starts, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, resp.Starts[0])
			}
		})
	}
}

func TestUseCase_Execute_EndToEndStarts(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), &Request{PackageID: 1, Page: 1, PageSize: 50})

	require.NoError(t, err)
	require.Len(t, resp.Starts, 20)
	assert.Equal(t, clock(9, 0), resp.Starts[0])
	assert.Equal(t, clock(9, 10), resp.Starts[1])
	assert.Equal(t, clock(12, 10), resp.Starts[19])

	assert.Equal(t, 1, f.metrics.calls)
	assert.Equal(t, 20, f.metrics.found)

	// занятость читается с запасом на расширенное окно
	assert.True(t, f.assignments.from.Before(clock(8, 0)))
	assert.True(t, f.assignments.to.After(clock(8, 0).AddDate(0, 0, 1)))
}

func TestUseCase_Execute_SkipsBookedStarts(t *testing.T) {
	f := newFixture()
	f.assignments.assignments = []domain.ServiceAssignment{
		{AppointmentID: 9, CategoryID: 1, ProfessionalID: 101, WorkstationID: 201, StartsAt: clock(9, 0), DurationMinutes: 30},
		{AppointmentID: 9, CategoryID: 1, ProfessionalID: 101, WorkstationID: 201, StartsAt: clock(9, 30), DurationMinutes: 20},
	}

	resp, err := f.uc.Execute(context.Background(), &Request{PackageID: 1, PageSize: 1})

	require.NoError(t, err)
	require.Len(t, resp.Starts, 1)
	assert.Equal(t, clock(10, 20), resp.Starts[0])
}

func TestUseCase_Execute_Idempotent(t *testing.T) {
	f := newFixture()
	req := func() *Request { return &Request{PackageID: 1, Page: 1, PageSize: 50} }

	first, err := f.uc.Execute(context.Background(), req())
	require.NoError(t, err)
	second, err := f.uc.Execute(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, first.Starts, second.Starts)
}

func TestUseCase_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		req     *Request
		wantErr error
	}{
		{
			name:    "invalid package id",
			req:     &Request{PackageID: 0},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "negative page",
			req:     &Request{PackageID: 1, Page: -1},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "offset overflows",
			req:     &Request{PackageID: 1, Page: math.MaxInt, PageSize: 10},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "page size above maximum",
			req:     &Request{PackageID: 1, PageSize: 51},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "package not found",
			req:     &Request{PackageID: 2},
			wantErr: ErrPackageNotFound,
		},
		{
			name: "empty package",
			setup: func(f *fixture) {
				f.packages.packages[1] = &domain.Package{ID: 1}
			},
			req:     &Request{PackageID: 1},
			wantErr: ErrInvalidInput,
		},
		{
			name: "calendar not configured",
			setup: func(f *fixture) {
				f.calendar.calendar = nil
			},
			req:     &Request{PackageID: 1},
			wantErr: ErrCalendarNotConfigured,
		},
		{
			name: "category without resources",
			setup: func(f *fixture) {
				f.pools.err = fmt.Errorf("%w: category 1", scheduling.ErrCategoryNotConfigured)
			},
			req:     &Request{PackageID: 1},
			wantErr: ErrCategoryNotConfigured,
		},
		{
			name: "directory down",
			setup: func(f *fixture) {
				f.pools.err = fmt.Errorf("%w: timeout", scheduling.ErrDirectoryUnavailable)
			},
			req:     &Request{PackageID: 1},
			wantErr: ErrInternal,
		},
		{
			name: "catalog failure",
			setup: func(f *fixture) {
				f.packages.err = errors.New("connection reset")
			},
			req:     &Request{PackageID: 1},
			wantErr: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			resp, err := f.uc.Execute(context.Background(), tt.req)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
