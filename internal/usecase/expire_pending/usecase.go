package expire_pending

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/audit"
)

// UseCase отменяет записи, не оплаченные за отведенное время, и освобождает их ресурсы
type UseCase struct {
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	audit           AuditPublisher
	metrics         Metrics
	settings        Settings
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	auditPublisher AuditPublisher,
	metrics Metrics,
	settings Settings,
	logger Logger,
) *UseCase {
	if settings.BatchSize <= 0 {
		settings.BatchSize = DefaultBatchSize
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		audit:           auditPublisher,
		metrics:         metrics,
		settings:        settings,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Enabled включена ли очистка
func (uc *UseCase) Enabled() bool {
	return uc.settings.TTL > 0
}

// Execute отменяет одну пачку просроченных записей
func (uc *UseCase) Execute(ctx context.Context) (*Response, error) {
	resp := &Response{Expired: []int64{}}
	if !uc.Enabled() {
		return resp, nil
	}

	resp.CreatedBefore = uc.timeProvider.Now().Add(-uc.settings.TTL)

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		expired, err := uc.appointmentRepo.ListExpiredPending(txCtx, resp.CreatedBefore, uc.settings.BatchSize)
		if err != nil {
			return fmt.Errorf("%w: failed to list pending appointments: %v", ErrInternal, err)
		}

		for _, a := range expired {
			if err := uc.appointmentRepo.Cancel(txCtx, a.ID, domain.PaymentTimeoutReason); err != nil {
				return fmt.Errorf("%w: failed to cancel appointment id=%d: %v", ErrInternal, a.ID, err)
			}
			if err := uc.appointmentRepo.ReleaseAssignments(txCtx, a.ID); err != nil {
				return fmt.Errorf("%w: failed to release appointment id=%d: %v", ErrInternal, a.ID, err)
			}
			resp.Expired = append(resp.Expired, a.ID)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("ExpirePending: %v", err)
		return nil, err
	}

	if len(resp.Expired) == 0 {
		return resp, nil
	}

	for _, id := range resp.Expired {
		uc.audit.Publish(ctx, audit.NewEvent(audit.EventAppointmentExpired, id, 0, string(domain.StatusCancelled)).
			With("reason", domain.PaymentTimeoutReason))
	}
	uc.metrics.ObserveExpired(len(resp.Expired))

	uc.logger.Info("ExpirePending: cancelled %d appointments created before %s",
		len(resp.Expired), resp.CreatedBefore.Format(domain.DateTimeFormat))

	return resp, nil
}
