package create_booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	calendarRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/calendar"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/audit"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/payment"
	"github.com/m04kA/SMC-AppointmentService/internal/service/scheduling"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/redislock"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

// 2025-03-17 это понедельник
var monday = time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

func clock(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

// memStore хранилище записей в памяти. Транзакции выполняются строго по очереди
// и откатывают все изменения при ошибке.
type memStore struct {
	txMu sync.Mutex

	mu           sync.Mutex
	nextID       int64
	appointments map[int64]*domain.Appointment
	assignments  []domain.ServiceAssignment
	// createErrs по очереди возвращаются из CreateAppointment
	createErrs []error
}

func newMemStore() *memStore {
	return &memStore{appointments: make(map[int64]*domain.Appointment)}
}

func (s *memStore) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	savedAppointments := make(map[int64]*domain.Appointment, len(s.appointments))
	for id, a := range s.appointments {
		savedAppointments[id] = a
	}
	savedAssignments := append([]domain.ServiceAssignment(nil), s.assignments...)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.appointments = savedAppointments
		s.assignments = savedAssignments
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) CreateAppointment(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		return nil, err
	}

	s.nextID++
	stored := *a
	stored.ID = s.nextID
	stored.CreatedAt = clock(8, 0)
	s.appointments[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *memStore) CreateAssignment(_ context.Context, a *domain.ServiceAssignment) (*domain.ServiceAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.assignments {
		if other.Released || !other.Window().Overlaps(a.Window()) {
			continue
		}
		if other.ProfessionalID == a.ProfessionalID || other.WorkstationID == a.WorkstationID {
			return nil, fmt.Errorf("%w: exclusion violation", appointmentRepo.ErrResourceConflict)
		}
	}
	s.nextID++
	created := *a
	created.ID = s.nextID
	s.assignments = append(s.assignments, created)
	return &created, nil
}

func (s *memStore) ListActiveAssignments(_ context.Context, categoryIDs []int64, from, to time.Time) ([]domain.ServiceAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := domain.Window{Start: from, End: to}
	result := make([]domain.ServiceAssignment, 0)
	for _, a := range s.assignments {
		if a.Released || !a.Window().Overlaps(window) {
			continue
		}
		for _, id := range categoryIDs {
			if a.CategoryID == id {
				result = append(result, a)
			}
		}
	}
	return result, nil
}

func (s *memStore) ListResourceAssignments(_ context.Context, professionalIDs, workstationIDs []int64, from, to time.Time) ([]domain.ServiceAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := domain.Window{Start: from, End: to}
	result := make([]domain.ServiceAssignment, 0)
	for _, a := range s.assignments {
		if a.Released || !a.Window().Overlaps(window) {
			continue
		}
		if slices.Contains(professionalIDs, a.ProfessionalID) || slices.Contains(workstationIDs, a.WorkstationID) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *memStore) SetPayment(_ context.Context, id int64, reference, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	a.PaymentReference = &reference
	a.PaymentURL = &url
	return nil
}

type fakePackages struct {
	packages map[int64]*domain.Package
}

func (f *fakePackages) GetPackage(_ context.Context, id int64) (*domain.Package, error) {
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

type fakePools struct {
	pools map[int64]*scheduling.Pool
	err   error
}

func (f *fakePools) LoadAll(context.Context, []int64) (map[int64]*scheduling.Pool, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pools, nil
}

type fakeLocker struct {
	mu       sync.Mutex
	err      error
	acquired [][]string
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, keys []string) (redislock.ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.acquired = append(l.acquired, keys)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

type fakeGateway struct {
	err error
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Checkout{
		Reference:   fmt.Sprintf("cs_test_%d", req.AppointmentID),
		RedirectURL: fmt.Sprintf("https://pay.example.com/%d", req.AppointmentID),
	}, nil
}

type spyAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *spyAudit) Publish(_ context.Context, e audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

type spyMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *spyMetrics) ObserveBooking(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

// retryingTx повторяет транзакцию memStore при ошибках сериализации, как txmanager.DoSerializable
type retryingTx struct {
	store       *memStore
	maxAttempts int
	attempts    int
}

func (r *retryingTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for r.attempts = 1; ; r.attempts++ {
		err = r.store.DoSerializable(ctx, fn)
		if !txmanager.IsRetryable(err) || r.attempts >= r.maxAttempts {
			return err
		}
	}
}

// failingEngine проваливает назначение на заданной позиции
type failingEngine struct {
	inner    AssignmentEngine
	position int
}

func (e *failingEngine) Assign(ctx context.Context, req scheduling.AssignRequest) (*domain.ServiceAssignment, error) {
	if req.Position == e.position {
		return nil, fmt.Errorf("%w: disk full", scheduling.ErrSaveAssignment)
	}
	return e.inner.Assign(ctx, req)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	uc       *UseCase
	store    *memStore
	calendar *fakeCalendar
	pools    *fakePools
	locker   *fakeLocker
	gateway  *fakeGateway
	audit    *spyAudit
	metrics  *spyMetrics
}

func newFixture() *fixture {
	f := &fixture{
		store: newMemStore(),
		calendar: &fakeCalendar{calendar: &domain.BusinessCalendar{
			IntervalMinutes:    10,
			MaxReservationDays: 1,
			FirstShift:         domain.Shift{Open: "09:00", Close: "13:00"},
			OpenWeekdays: []time.Weekday{
				time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
				time.Thursday, time.Friday, time.Saturday,
			},
			Timezone: "UTC",
		}},
		pools: &fakePools{pools: map[int64]*scheduling.Pool{
			1: {
				CategoryID:    1,
				Professionals: []domain.Professional{{ID: 101}},
				Workstations:  []domain.Workstation{{ID: 201, State: domain.ResourceStateActive}},
			},
		}},
		locker:  &fakeLocker{},
		gateway: &fakeGateway{},
		audit:   &spyAudit{},
		metrics: &spyMetrics{},
	}

	packages := &fakePackages{packages: map[int64]*domain.Package{
		1: {
			ID:   1,
			Name: "Facial combo",
			Services: []domain.Service{
				{ID: 11, CategoryID: 1, Name: "A", DurationMinutes: 30, Price: 30},
				{ID: 12, CategoryID: 1, Name: "B", DurationMinutes: 20, Price: 20},
			},
		},
		2: {ID: 2, Name: "Empty"},
	}}

	engine := scheduling.NewEngine(f.store, scheduling.FirstFreePolicy{}, nopLogger{})
	f.uc = NewUseCase(packages, f.calendar, f.store, f.pools, engine, f.locker, f.store,
		f.gateway, f.audit, f.metrics, Settings{StepMinutes: 10, AlternativesCount: 3}, nopLogger{})
	f.uc.timeProvider = fixedTime{now: clock(8, 0)}
	return f
}

func TestUseCase_Execute_Success(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)})

	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ClientID)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Equal(t, clock(9, 50), resp.EndsAt)
	assert.Equal(t, 50.0, resp.TotalPrice)

	require.Len(t, resp.Assignments, 2)
	assert.Equal(t, clock(9, 0), resp.Assignments[0].StartsAt)
	assert.Equal(t, clock(9, 30), resp.Assignments[1].StartsAt)
	assert.Equal(t, "B", resp.Assignments[1].ServiceName)
	for _, a := range resp.Assignments {
		assert.Equal(t, int64(101), a.ProfessionalID)
		assert.Equal(t, int64(201), a.WorkstationID)
	}

	require.NotNil(t, resp.PaymentURL)
	assert.Equal(t, fmt.Sprintf("https://pay.example.com/%d", resp.ID), *resp.PaymentURL)

	require.Len(t, f.locker.acquired, 1)
	assert.Equal(t, []string{"category:1:2025-03-17", "category:1:2025-03-17"}, f.locker.acquired[0])
	assert.Equal(t, 1, f.locker.released)

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, audit.EventAppointmentCreated, f.audit.events[0].Type)
	assert.Equal(t, []string{metrics.OutcomeBooked}, f.metrics.outcomes)
}

func TestUseCase_Execute_SecondBookingSameStart(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)})
	require.NoError(t, err)

	resp, err := f.uc.Execute(context.Background(), &Request{ClientID: 8, PackageID: 1, StartsAt: clock(9, 0)})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, []time.Time{clock(10, 20), clock(10, 30), clock(10, 40)}, capErr.Alternatives)
	assert.Equal(t, []string{metrics.OutcomeBooked, metrics.OutcomeCapacity}, f.metrics.outcomes)
	assert.Len(t, f.store.assignments, 2)
}

func TestUseCase_Execute_ConcurrentBookings(t *testing.T) {
	f := newFixture()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Execute(context.Background(), &Request{ClientID: int64(100 + i), PackageID: 1, StartsAt: clock(9, 0)})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrSlotNotAvailable)
	}
	assert.Equal(t, 1, succeeded)

	// Ни один специалист и ни одно рабочее место не заняты дважды
	for i, a := range f.store.assignments {
		for _, b := range f.store.assignments[i+1:] {
			if !a.Window().Overlaps(b.Window()) {
				continue
			}
			assert.NotEqual(t, a.ProfessionalID, b.ProfessionalID)
			assert.NotEqual(t, a.WorkstationID, b.WorkstationID)
		}
	}
}

func TestUseCase_Execute_RollsBackPartialAssignment(t *testing.T) {
	f := newFixture()
	f.uc.engine = &failingEngine{
		inner:    scheduling.NewEngine(f.store, scheduling.FirstFreePolicy{}, nopLogger{}),
		position: 1,
	}

	resp, err := f.uc.Execute(context.Background(), &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, f.store.appointments)
	assert.Empty(t, f.store.assignments)
	assert.Empty(t, f.audit.events)
}

func TestUseCase_Execute_SerializationFailure(t *testing.T) {
	serializationFailure := &pq.Error{Code: "40001", Message: "could not serialize access"}

	t.Run("retried and booked", func(t *testing.T) {
		f := newFixture()
		f.store.createErrs = []error{serializationFailure}
		tx := &retryingTx{store: f.store, maxAttempts: 3}
		f.uc.txManager = tx

		resp, err := f.uc.Execute(context.Background(), &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)})

		require.NoError(t, err)
		assert.Equal(t, 2, tx.attempts)
		assert.Len(t, resp.Assignments, 2)
		assert.Len(t, f.store.appointments, 1)
		assert.Equal(t, []string{metrics.OutcomeBooked}, f.metrics.outcomes)
	})

	t.Run("retries exhausted become capacity error", func(t *testing.T) {
		f := newFixture()
		f.store.createErrs = []error{serializationFailure, serializationFailure, serializationFailure}
		tx := &retryingTx{store: f.store, maxAttempts: 3}
		f.uc.txManager = tx

		resp, err := f.uc.Execute(context.Background(), &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)})

		assert.Nil(t, resp)
		assert.Equal(t, 3, tx.attempts)
		var capErr *CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.True(t, txmanager.IsRetryable(capErr.Cause))
		assert.Equal(t, []string{metrics.OutcomeCapacity}, f.metrics.outcomes)
		assert.Empty(t, f.store.appointments)
	})
}

func TestUseCase_Execute_ProfessionalBusyInOtherCategory(t *testing.T) {
	f := newFixture()
	f.pools.pools[1].Professionals = []domain.Professional{{ID: 101}, {ID: 102}}
	// Специалист 101 работает и в категории 2, где уже занят
	f.store.assignments = []domain.ServiceAssignment{{
		ID:              900,
		AppointmentID:   50,
		CategoryID:      2,
		ProfessionalID:  101,
		WorkstationID:   301,
		StartsAt:        clock(9, 0),
		DurationMinutes: 60,
	}}
	f.store.nextID = 1000

	resp, err := f.uc.Execute(context.Background(), &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)})

	require.NoError(t, err)
	require.Len(t, resp.Assignments, 2)
	for _, a := range resp.Assignments {
		assert.Equal(t, int64(102), a.ProfessionalID)
	}
}

func TestUseCase_Execute_PaymentFailureKeepsBooking(t *testing.T) {
	f := newFixture()
	f.gateway.err = errors.New("provider down")

	resp, err := f.uc.Execute(context.Background(), &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)})

	require.NoError(t, err)
	assert.Nil(t, resp.PaymentURL)
	assert.Nil(t, resp.PaymentReference)
	assert.Len(t, f.store.appointments, 1)
}

func TestUseCase_Execute_Locks(t *testing.T) {
	t.Run("contention becomes capacity error", func(t *testing.T) {
		f := newFixture()
		f.locker.err = redislock.ErrNotAcquired

		_, err := f.uc.Execute(context.Background(), &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)})

		var capErr *CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.ErrorIs(t, err, redislock.ErrNotAcquired)
		assert.NotEmpty(t, capErr.Alternatives)
		assert.Equal(t, []string{metrics.OutcomeLockTimeout}, f.metrics.outcomes)
		assert.Empty(t, f.store.appointments)
	})

	t.Run("redis down falls back to transaction", func(t *testing.T) {
		f := newFixture()
		f.locker.err = errors.New("dial tcp: connection refused")

		resp, err := f.uc.Execute(context.Background(), &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)})

		require.NoError(t, err)
		assert.Len(t, resp.Assignments, 2)
	})
}

func TestUseCase_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		req     *Request
		wantErr error
	}{
		{
			name:    "missing client",
			req:     &Request{PackageID: 1, StartsAt: clock(9, 0)},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing start",
			req:     &Request{ClientID: 7, PackageID: 1},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "package not found",
			req:     &Request{ClientID: 7, PackageID: 3, StartsAt: clock(9, 0)},
			wantErr: ErrPackageNotFound,
		},
		{
			name:    "empty package",
			req:     &Request{ClientID: 7, PackageID: 2, StartsAt: clock(9, 0)},
			wantErr: ErrInvalidInput,
		},
		{
			name: "calendar not configured",
			setup: func(f *fixture) {
				f.calendar.calendar = nil
			},
			req:     &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)},
			wantErr: ErrCalendarNotConfigured,
		},
		{
			name:    "start in the past",
			req:     &Request{ClientID: 7, PackageID: 1, StartsAt: clock(7, 0)},
			wantErr: ErrInvalidStart,
		},
		{
			name:    "start beyond horizon",
			req:     &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0).AddDate(0, 0, 2)},
			wantErr: ErrInvalidStart,
		},
		{
			name:    "start off the grid",
			req:     &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 5)},
			wantErr: ErrInvalidStart,
		},
		{
			name:    "second service runs past closing",
			req:     &Request{ClientID: 7, PackageID: 1, StartsAt: clock(12, 20)},
			wantErr: ErrInvalidStart,
		},
		{
			name: "category without resources",
			setup: func(f *fixture) {
				f.pools.err = fmt.Errorf("%w: category 1", scheduling.ErrCategoryNotConfigured)
			},
			req:     &Request{ClientID: 7, PackageID: 1, StartsAt: clock(9, 0)},
			wantErr: ErrCategoryNotConfigured,
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
			assert.Empty(t, f.store.appointments)
		})
	}
}

func TestCapacityError(t *testing.T) {
	cause := fmt.Errorf("%w: category 1", scheduling.ErrCapacityExhausted)
	err := error(&CapacityError{StartsAt: clock(9, 0), Alternatives: []time.Time{clock(9, 10)}, Cause: cause})

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.ErrorIs(t, err, scheduling.ErrCapacityExhausted)
	assert.Contains(t, err.Error(), "2025-03-17T09:00:00Z")
	assert.Contains(t, err.Error(), "1 alternatives")
}
