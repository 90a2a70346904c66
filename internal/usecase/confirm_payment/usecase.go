package confirm_payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/audit"
)

// UseCase use case подтверждения оплаты записи (PENDING -> ACTIVE)
type UseCase struct {
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	audit           AuditPublisher
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	auditPublisher AuditPublisher,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		audit:           auditPublisher,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case подтверждения оплаты
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ConfirmPayment: appointment=%d, amount=%.2f", req.AppointmentID, req.PaidAmount)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ConfirmPayment: validation failed: %v", err)
		return nil, err
	}

	var resp *Response
	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		appointment, err := uc.appointmentRepo.GetByID(txCtx, req.AppointmentID)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				uc.logger.Warn("ConfirmPayment: appointment id=%d not found", req.AppointmentID)
				return ErrAppointmentNotFound
			}
			uc.logger.Error("ConfirmPayment: failed to get appointment id=%d: %v", req.AppointmentID, err)
			return fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
		}

		// Провайдер может прислать уведомление повторно
		if appointment.Status == domain.StatusActive && appointment.IsPaid() {
			uc.logger.Info("ConfirmPayment: appointment id=%d is already paid", appointment.ID)
			resp = &Response{
				AppointmentID: appointment.ID,
				Status:        string(appointment.Status),
				PaidAmount:    *appointment.PaidAmount,
				PaidAt:        *appointment.PaidAt,
				AlreadyPaid:   true,
			}
			return nil
		}

		if appointment.Status != domain.StatusPending {
			uc.logger.Warn("ConfirmPayment: appointment id=%d has status %s", appointment.ID, appointment.Status)
			return fmt.Errorf("%w: %s", ErrInvalidStatus, appointment.Status)
		}

		if err := validatePayment(appointment, req); err != nil {
			uc.logger.Warn("ConfirmPayment: appointment id=%d: %v", appointment.ID, err)
			return err
		}

		paidAt := uc.timeProvider.Now().UTC()
		if err := uc.appointmentRepo.MarkPaid(txCtx, appointment.ID, req.PaidAmount, paidAt); err != nil {
			uc.logger.Error("ConfirmPayment: failed to mark appointment id=%d paid: %v", appointment.ID, err)
			return fmt.Errorf("%w: failed to mark paid: %v", ErrInternal, err)
		}

		resp = &Response{
			AppointmentID: appointment.ID,
			Status:        string(domain.StatusActive),
			PaidAmount:    req.PaidAmount,
			PaidAt:        paidAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !resp.AlreadyPaid {
		uc.audit.Publish(ctx, audit.NewEvent(audit.EventAppointmentPaid, resp.AppointmentID, 0, resp.Status).
			With("paid_amount", strconv.FormatFloat(resp.PaidAmount, 'f', 2, 64)).
			With("paid_at", resp.PaidAt.Format(time.RFC3339)))
		uc.logger.Info("ConfirmPayment: appointment id=%d is now active", resp.AppointmentID)
	}

	return resp, nil
}
