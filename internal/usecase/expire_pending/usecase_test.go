package expire_pending

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/audit"
)

var now = time.Date(2025, 3, 17, 12, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fakeRepo struct {
	appointments []*domain.Appointment
	released     map[int64]bool
	cancelErr    error
	limit        int
}

func (r *fakeRepo) ListExpiredPending(_ context.Context, createdBefore time.Time, limit int) ([]*domain.Appointment, error) {
	r.limit = limit
	result := make([]*domain.Appointment, 0)
	for _, a := range r.appointments {
		if a.Status == domain.StatusPending && a.CreatedAt.Before(createdBefore) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeRepo) Cancel(_ context.Context, id int64, reason string) error {
	if r.cancelErr != nil {
		return r.cancelErr
	}
	for _, a := range r.appointments {
		if a.ID == id {
			a.Status = domain.StatusCancelled
			a.CancellationReason = &reason
		}
	}
	return nil
}

func (r *fakeRepo) ReleaseAssignments(_ context.Context, id int64) error {
	r.released[id] = true
	return nil
}

type directTx struct{}

func (directTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type spyAudit struct {
	events []audit.Event
}

func (a *spyAudit) Publish(_ context.Context, e audit.Event) {
	a.events = append(a.events, e)
}

type spyMetrics struct {
	expired int
}

func (m *spyMetrics) ObserveExpired(n int) {
	m.expired += n
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newRepo() *fakeRepo {
	return &fakeRepo{
		appointments: []*domain.Appointment{
			{ID: 1, Status: domain.StatusPending, CreatedAt: now.Add(-40 * time.Minute)},
			{ID: 2, Status: domain.StatusPending, CreatedAt: now.Add(-5 * time.Minute)},
			{ID: 3, Status: domain.StatusActive, CreatedAt: now.Add(-2 * time.Hour)},
		},
		released: make(map[int64]bool),
	}
}

func TestUseCase_Execute_CancelsExpired(t *testing.T) {
	repo := newRepo()
	spy := &spyAudit{}
	m := &spyMetrics{}
	uc := NewUseCase(repo, directTx{}, spy, m, Settings{TTL: 30 * time.Minute}, nopLogger{})
	uc.timeProvider = fixedTime{now: now}

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{1}, resp.Expired)
	assert.Equal(t, now.Add(-30*time.Minute), resp.CreatedBefore)
	assert.Equal(t, DefaultBatchSize, repo.limit)

	assert.Equal(t, domain.StatusCancelled, repo.appointments[0].Status)
	require.NotNil(t, repo.appointments[0].CancellationReason)
	assert.Equal(t, domain.PaymentTimeoutReason, *repo.appointments[0].CancellationReason)
	assert.True(t, repo.released[1])

	assert.Equal(t, domain.StatusPending, repo.appointments[1].Status)
	assert.Equal(t, domain.StatusActive, repo.appointments[2].Status)

	require.Len(t, spy.events, 1)
	assert.Equal(t, audit.EventAppointmentExpired, spy.events[0].Type)
	assert.Equal(t, 1, m.expired)
}

func TestUseCase_Execute_Disabled(t *testing.T) {
	repo := newRepo()
	uc := NewUseCase(repo, directTx{}, &spyAudit{}, &spyMetrics{}, Settings{}, nopLogger{})

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.False(t, uc.Enabled())
	assert.Empty(t, resp.Expired)
	assert.Equal(t, domain.StatusPending, repo.appointments[0].Status)
}

func TestUseCase_Execute_StorageFailure(t *testing.T) {
	repo := newRepo()
	repo.cancelErr = errors.New("connection reset")
	spy := &spyAudit{}
	uc := NewUseCase(repo, directTx{}, spy, &spyMetrics{}, Settings{TTL: 30 * time.Minute}, nopLogger{})
	uc.timeProvider = fixedTime{now: now}

	resp, err := uc.Execute(context.Background())

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, spy.events)
}

type countingRunner struct {
	runs atomic.Int32
}

func (r *countingRunner) Execute(context.Context) (*Response, error) {
	r.runs.Add(1)
	return &Response{}, nil
}

func TestNewScheduler(t *testing.T) {
	_, err := NewScheduler(&countingRunner{}, "not a schedule", nopLogger{})
	assert.Error(t, err)

	s, err := NewScheduler(&countingRunner{}, "@every 1m", nopLogger{})
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
