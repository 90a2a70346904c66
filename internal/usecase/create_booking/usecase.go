package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

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

// UseCase use case для создания записи на пакет услуг
type UseCase struct {
	packageRepo     PackageRepository
	calendarRepo    CalendarRepository
	appointmentRepo AppointmentRepository
	pools           PoolLoader
	engine          AssignmentEngine
	locker          Locker
	txManager       TransactionManager
	payments        PaymentGateway
	audit           AuditPublisher
	metrics         Metrics
	settings        Settings
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	packageRepo PackageRepository,
	calendarRepo CalendarRepository,
	appointmentRepo AppointmentRepository,
	pools PoolLoader,
	engine AssignmentEngine,
	locker Locker,
	txManager TransactionManager,
	payments PaymentGateway,
	auditPublisher AuditPublisher,
	metrics Metrics,
	settings Settings,
	logger Logger,
) *UseCase {
	return &UseCase{
		packageRepo:     packageRepo,
		calendarRepo:    calendarRepo,
		appointmentRepo: appointmentRepo,
		pools:           pools,
		engine:          engine,
		locker:          locker,
		txManager:       txManager,
		payments:        payments,
		audit:           auditPublisher,
		metrics:         metrics,
		settings:        settings,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case создания записи.
// Заголовок и все назначения сохраняются в одной сериализуемой транзакции,
// дополнительно сериализованной блокировками (категория, день) в Redis.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: client=%d, package=%d, start=%s",
		req.ClientID, req.PackageID, req.StartsAt.Format(time.RFC3339))

	result, err := uc.execute(ctx, req)
	uc.metrics.ObserveBooking(outcomeOf(err))
	return result, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Получаем пакет
	pkg, err := uc.packageRepo.GetPackage(ctx, req.PackageID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrPackageNotFound) {
			uc.logger.Warn("CreateBooking: package id=%d not found", req.PackageID)
			return nil, ErrPackageNotFound
		}
		uc.logger.Error("CreateBooking: failed to get package id=%d: %v", req.PackageID, err)
		return nil, fmt.Errorf("%w: failed to get package: %v", ErrInternal, err)
	}

	if err := validatePackage(pkg); err != nil {
		uc.logger.Warn("CreateBooking: %v", err)
		return nil, err
	}

	// 3. Календарь
	cal, err := uc.calendarRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, calendarRepo.ErrCalendarNotFound) {
			uc.logger.Warn("CreateBooking: business calendar is not configured")
			return nil, ErrCalendarNotConfigured
		}
		uc.logger.Error("CreateBooking: failed to get calendar: %v", err)
		return nil, fmt.Errorf("%w: failed to get calendar: %v", ErrInternal, err)
	}

	// 4. Время начала должно быть на сетке, в рабочих часах и в пределах горизонта
	if err := validateStart(cal, pkg, req.StartsAt, now); err != nil {
		uc.logger.Warn("CreateBooking: %v", err)
		return nil, err
	}

	// 5. Пулы ресурсов
	pools, err := uc.pools.LoadAll(ctx, pkg.CategoryIDs())
	if err != nil {
		if errors.Is(err, scheduling.ErrCategoryNotConfigured) {
			uc.logger.Warn("CreateBooking: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrCategoryNotConfigured, err)
		}
		uc.logger.Error("CreateBooking: failed to load resource pools: %v", err)
		return nil, fmt.Errorf("%w: failed to load resource pools: %v", ErrInternal, err)
	}

	// 6. Блокировки (категория, день) на время проверки и записи
	release, err := uc.locker.Acquire(ctx, lockKeys(cal, pkg, req.StartsAt))
	switch {
	case errors.Is(err, redislock.ErrNotAcquired):
		uc.logger.Warn("CreateBooking: lock contention for package=%d at %s", pkg.ID, req.StartsAt.Format(time.RFC3339))
		return nil, uc.capacityError(ctx, cal, pkg, pools, now, req.StartsAt, err)
	case err != nil:
		// Без Redis корректность держится на транзакции и EXCLUDE ограничениях
		uc.logger.Warn("CreateBooking: locks unavailable, continuing without them: %v", err)
	default:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				uc.logger.Warn("CreateBooking: failed to release locks: %v", err)
			}
		}()
	}

	// 7. Повторная проверка и запись в одной транзакции
	var created *domain.Appointment
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		lookup := scheduling.LookupRange(req.StartsAt, req.StartsAt, pkg.TotalDurationMinutes())
		assignments, err := uc.appointmentRepo.ListActiveAssignments(txCtx, pkg.CategoryIDs(), lookup.Start, lookup.End)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get assignments: %v", err)
			return fmt.Errorf("%w: failed to get assignments: %w", ErrInternal, err)
		}

		occupancy := scheduling.NewOccupancy(assignments)
		gen := scheduling.NewGenerator(*cal, pools, occupancy, now, uc.settings.StepMinutes)
		if !gen.IsPackageAvailable(pkg, req.StartsAt) {
			return fmt.Errorf("%w: package %d at %s", scheduling.ErrCapacityExhausted, pkg.ID, req.StartsAt.Format(time.RFC3339))
		}

		// Ресурсы пулов могут быть заняты в других категориях
		professionalIDs, workstationIDs := scheduling.ResourceIDs(pools)
		busy, err := uc.appointmentRepo.ListResourceAssignments(txCtx, professionalIDs, workstationIDs, lookup.Start, lookup.End)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get resource assignments: %v", err)
			return fmt.Errorf("%w: failed to get resource assignments: %w", ErrInternal, err)
		}
		for _, a := range busy {
			occupancy.Add(a)
		}

		appointment, err := uc.appointmentRepo.CreateAppointment(txCtx, &domain.Appointment{
			ClientID:   req.ClientID,
			PackageID:  pkg.ID,
			StartsAt:   req.StartsAt,
			EndsAt:     req.StartsAt.Add(time.Duration(pkg.TotalDurationMinutes()) * time.Minute),
			Status:     domain.StatusPending,
			TotalPrice: pkg.TotalPrice(),
		})
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create appointment: %v", err)
			return fmt.Errorf("%w: failed to create appointment: %w", ErrInternal, err)
		}

		// Услуги идут подряд, каждая начинается по окончании предыдущей
		cursor := req.StartsAt
		for i, service := range pkg.Services {
			assignment, err := uc.engine.Assign(txCtx, scheduling.AssignRequest{
				AppointmentID: appointment.ID,
				Service:       service,
				Position:      i,
				StartsAt:      cursor,
				Pool:          pools[service.CategoryID],
				Occupancy:     occupancy,
			})
			if err != nil {
				return err
			}
			appointment.Assignments = append(appointment.Assignments, *assignment)
			cursor = cursor.Add(time.Duration(service.DurationMinutes) * time.Minute)
		}

		created = appointment
		return nil
	})

	if err != nil {
		if isCapacityFailure(err) {
			uc.logger.Warn("CreateBooking: slot taken: %v", err)
			return nil, uc.capacityError(ctx, cal, pkg, pools, now, req.StartsAt, err)
		}
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateBooking: created appointment id=%d with %d assignments", created.ID, len(created.Assignments))

	// 8. Платеж инициируется после фиксации записи, его сбой запись не отменяет
	uc.initiatePayment(ctx, created, pkg)

	uc.audit.Publish(ctx, audit.NewEvent(audit.EventAppointmentCreated, created.ID, req.ClientID, string(created.Status)).
		With("package_id", strconv.FormatInt(pkg.ID, 10)).
		With("starts_at", created.StartsAt.Format(time.RFC3339)))

	return toResponse(created), nil
}

// initiatePayment запрашивает платежную ссылку и сохраняет ее в записи
func (uc *UseCase) initiatePayment(ctx context.Context, a *domain.Appointment, pkg *domain.Package) {
	checkout, err := uc.payments.CreateCheckout(ctx, payment.CheckoutRequest{
		AppointmentID: a.ID,
		ClientID:      a.ClientID,
		Description:   pkg.Name,
		Amount:        a.TotalPrice,
	})
	if err != nil {
		uc.logger.Warn("CreateBooking: payment initiation failed for appointment id=%d: %v", a.ID, err)
		return
	}
	if checkout == nil {
		return
	}

	if err := uc.appointmentRepo.SetPayment(ctx, a.ID, checkout.Reference, checkout.RedirectURL); err != nil {
		uc.logger.Error("CreateBooking: failed to save payment reference for appointment id=%d: %v", a.ID, err)
		return
	}

	a.PaymentReference = &checkout.Reference
	a.PaymentURL = &checkout.RedirectURL
}

// capacityError собирает ошибку занятости с ближайшими альтернативами.
// Альтернативы считаются по свежему снимку вне транзакции.
func (uc *UseCase) capacityError(
	ctx context.Context,
	cal *domain.BusinessCalendar,
	pkg *domain.Package,
	pools map[int64]*scheduling.Pool,
	now, start time.Time,
	cause error,
) *CapacityError {
	capErr := &CapacityError{StartsAt: start, Cause: cause}
	if uc.settings.AlternativesCount <= 0 {
		return capErr
	}

	lookup := scheduling.LookupRange(now, cal.Horizon(now), pkg.TotalDurationMinutes())
	assignments, err := uc.appointmentRepo.ListActiveAssignments(ctx, pkg.CategoryIDs(), lookup.Start, lookup.End)
	if err != nil {
		uc.logger.Warn("CreateBooking: failed to compute alternatives: %v", err)
		return capErr
	}

	gen := scheduling.NewGenerator(*cal, pools, scheduling.NewOccupancy(assignments), now, uc.settings.StepMinutes)
	capErr.Alternatives = gen.Alternatives(pkg, start, uc.settings.AlternativesCount)
	return capErr
}

// isCapacityFailure ошибки, означающие, что время заняли конкуренты
func isCapacityFailure(err error) bool {
	return errors.Is(err, scheduling.ErrCapacityExhausted) ||
		errors.Is(err, appointmentRepo.ErrResourceConflict) ||
		txmanager.IsRetryable(err)
}

func outcomeOf(err error) string {
	var capErr *CapacityError
	switch {
	case err == nil:
		return metrics.OutcomeBooked
	case errors.As(err, &capErr) && errors.Is(capErr.Cause, redislock.ErrNotAcquired):
		return metrics.OutcomeLockTimeout
	case errors.As(err, &capErr):
		return metrics.OutcomeCapacity
	case errors.Is(err, ErrInternal):
		return metrics.OutcomeInternalError
	default:
		return metrics.OutcomeInvalid
	}
}

func toResponse(a *domain.Appointment) *Response {
	assignments := make([]Assignment, 0, len(a.Assignments))
	for _, s := range a.Assignments {
		assignments = append(assignments, Assignment{
			ServiceID:       s.ServiceID,
			ServiceName:     s.ServiceName,
			Position:        s.Position,
			ProfessionalID:  s.ProfessionalID,
			WorkstationID:   s.WorkstationID,
			StartsAt:        s.StartsAt,
			DurationMinutes: s.DurationMinutes,
			Price:           s.Price,
		})
	}

	return &Response{
		ID:               a.ID,
		ClientID:         a.ClientID,
		PackageID:        a.PackageID,
		StartsAt:         a.StartsAt,
		EndsAt:           a.EndsAt,
		Status:           string(a.Status),
		TotalPrice:       a.TotalPrice,
		PaymentReference: a.PaymentReference,
		PaymentURL:       a.PaymentURL,
		Assignments:      assignments,
		CreatedAt:        a.CreatedAt,
	}
}
