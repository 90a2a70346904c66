package appointments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/audit"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

const (
	// DefaultListLimit сколько записей отдавать в истории по умолчанию
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Service сервис для работы с уже созданными записями
type Service struct {
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	audit           AuditPublisher
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	auditPublisher AuditPublisher,
	logger Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		audit:           auditPublisher,
		logger:          logger,
	}
}

// GetByID получает запись по ID
// Клиент видит только свои записи, персонал видит все
func (s *Service) GetByID(ctx context.Context, id int64, actor models.Actor) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%d for user=%d", id, actor.UserID)

	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.repoError("GetByID", id, err)
	}

	if !canAccess(appointment, actor) {
		s.logger.Warn("GetByID: access denied for user=%d to appointment id=%d", actor.UserID, id)
		return nil, ErrAccessDenied
	}

	s.logger.Info("GetByID: successfully fetched appointment id=%d", id)
	return models.FromDomainAppointment(appointment), nil
}

// ListClient получает историю записей клиента
// Опционально фильтрует по статусу
func (s *Service) ListClient(ctx context.Context, req *models.ListClientAppointmentsRequest) (*models.AppointmentListResponse, error) {
	s.logger.Info("ListClient: fetching appointments for client=%d, status=%v", req.ClientID, req.Status)

	if req.ClientID <= 0 {
		return nil, fmt.Errorf("%w: clientId must be positive", ErrInvalidInput)
	}
	if !actorIsClientOrStaff(req.ClientID, req.Actor) {
		s.logger.Warn("ListClient: access denied for user=%d to client=%d", req.Actor.UserID, req.ClientID)
		return nil, ErrAccessDenied
	}
	if req.Limit < 0 || req.Limit > MaxListLimit || req.Offset < 0 {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d, offset must not be negative", ErrInvalidInput, MaxListLimit)
	}

	filter := domain.AppointmentFilter{
		ClientID: req.ClientID,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultListLimit
	}

	// Конвертируем статус из строки в domain.AppointmentStatus
	if req.Status != nil {
		status, err := models.ToDomainStatus(*req.Status)
		if err != nil {
			s.logger.Warn("ListClient: invalid status=%s for client=%d", *req.Status, req.ClientID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Status = &status
	}

	appointments, err := s.appointmentRepo.ListByClient(ctx, filter)
	if err != nil {
		s.logger.Error("ListClient: repository error for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: ListClient - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListClient: successfully fetched %d appointments for client=%d", len(appointments), req.ClientID)
	return models.FromDomainAppointmentList(appointments), nil
}

// Cancel отменяет запись и освобождает специалистов и рабочие места
// Клиент может отменить только свою запись, персонал любую
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelRequest) error {
	s.logger.Info("Cancel: cancelling appointment id=%d by user=%d", id, req.Actor.UserID)

	if utf8.RuneCountInString(req.Reason) > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: cancellation reason is longer than %d characters",
			ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	var previous domain.AppointmentStatus
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Получаем запись (строка блокируется до конца транзакции)
		appointment, err := s.appointmentRepo.GetByID(txCtx, id)
		if err != nil {
			return s.repoError("Cancel", id, err)
		}

		// 2. Проверяем права доступа
		if !canAccess(appointment, req.Actor) {
			s.logger.Warn("Cancel: access denied for user=%d to cancel appointment id=%d", req.Actor.UserID, id)
			return ErrAccessDenied
		}

		// 3. Проверяем, можно ли отменить запись
		if !appointment.CanBeCancelled() {
			s.logger.Warn("Cancel: appointment id=%d cannot be cancelled, status=%s", id, appointment.Status)
			return ErrCannotCancel
		}
		previous = appointment.Status

		// 4. Отменяем и освобождаем ресурсы
		if err := s.appointmentRepo.Cancel(txCtx, id, req.Reason); err != nil {
			return s.repoError("Cancel", id, err)
		}
		if err := s.appointmentRepo.ReleaseAssignments(txCtx, id); err != nil {
			s.logger.Error("Cancel: failed to release appointment id=%d: %v", id, err)
			return fmt.Errorf("%w: Cancel - release assignments: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Publish(ctx, audit.NewEvent(audit.EventAppointmentCancelled, id, req.Actor.UserID, string(domain.StatusCancelled)).
		With("previous_status", string(previous)).
		With("reason", req.Reason).
		With("by_staff", strconv.FormatBool(req.Actor.IsStaff)))

	s.logger.Info("Cancel: successfully cancelled appointment id=%d", id)
	return nil
}

// UpdateStatus переводит запись в новый статус по машине состояний
// Доступно только персоналу
func (s *Service) UpdateStatus(ctx context.Context, id int64, req *models.UpdateStatusRequest) error {
	s.logger.Info("UpdateStatus: updating appointment id=%d to status=%s by user=%d",
		id, req.Status, req.Actor.UserID)

	if !req.Actor.IsStaff {
		s.logger.Warn("UpdateStatus: user=%d is not staff", req.Actor.UserID)
		return ErrAccessDenied
	}

	// Валидируем и конвертируем статус
	newStatus, err := models.ToDomainStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for appointment id=%d", req.Status, id)
		return fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	var previous domain.AppointmentStatus
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		appointment, err := s.appointmentRepo.GetByID(txCtx, id)
		if err != nil {
			return s.repoError("UpdateStatus", id, err)
		}
		previous = appointment.Status

		if !appointment.Status.CanTransitionTo(newStatus) {
			s.logger.Warn("UpdateStatus: transition %s -> %s is not allowed for appointment id=%d",
				appointment.Status, newStatus, id)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appointment.Status, newStatus)
		}

		if newStatus == domain.StatusCancelled {
			err = s.appointmentRepo.Cancel(txCtx, id, "")
		} else {
			err = s.appointmentRepo.UpdateStatus(txCtx, id, newStatus)
		}
		if err != nil {
			return s.repoError("UpdateStatus", id, err)
		}

		if newStatus.ReleasesResources() {
			if err := s.appointmentRepo.ReleaseAssignments(txCtx, id); err != nil {
				s.logger.Error("UpdateStatus: failed to release appointment id=%d: %v", id, err)
				return fmt.Errorf("%w: UpdateStatus - release assignments: %v", ErrInternal, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	eventType := audit.EventAppointmentStatus
	if newStatus == domain.StatusCancelled {
		eventType = audit.EventAppointmentCancelled
	}
	s.audit.Publish(ctx, audit.NewEvent(eventType, id, req.Actor.UserID, string(newStatus)).
		With("previous_status", string(previous)))

	s.logger.Info("UpdateStatus: successfully updated appointment id=%d to status=%s", id, newStatus)
	return nil
}

// Вспомогательные методы

// repoError переводит ошибку репозитория в ошибку сервиса
func (s *Service) repoError(op string, id int64, err error) error {
	if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
		s.logger.Warn("%s: appointment id=%d not found", op, id)
		return ErrAppointmentNotFound
	}
	s.logger.Error("%s: repository error for appointment id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func canAccess(a *domain.Appointment, actor models.Actor) bool {
	return actor.IsStaff || a.IsOwnedBy(actor.UserID)
}

func actorIsClientOrStaff(clientID int64, actor models.Actor) bool {
	return actor.IsStaff || actor.UserID == clientID
}
