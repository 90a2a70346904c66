package get_available_starts

import (
	"context"
	"errors"
	"fmt"
	"time"

	calendarRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/calendar"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/service/scheduling"
)

// UseCase use case для получения доступных стартов пакета
type UseCase struct {
	packageRepo    PackageRepository
	calendarRepo   CalendarRepository
	assignmentRepo AssignmentRepository
	pools          PoolLoader
	metrics        Metrics
	settings       Settings
	timeProvider   TimeProvider
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	packageRepo PackageRepository,
	calendarRepo CalendarRepository,
	assignmentRepo AssignmentRepository,
	pools PoolLoader,
	metrics Metrics,
	settings Settings,
	logger Logger,
) *UseCase {
	return &UseCase{
		packageRepo:    packageRepo,
		calendarRepo:   calendarRepo,
		assignmentRepo: assignmentRepo,
		pools:          pools,
		metrics:        metrics,
		settings:       settings,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// Execute выполняет use case получения доступных стартов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableStarts: package=%d, page=%d, pageSize=%d", req.PackageID, req.Page, req.PageSize)

	// 1. Валидация входных данных
	if err := validateRequest(req, uc.settings); err != nil {
		uc.logger.Warn("GetAvailableStarts: validation failed: %v", err)
		return nil, err
	}

	started := time.Now()
	now := uc.timeProvider.Now()

	// 2. Получаем пакет
	pkg, err := uc.packageRepo.GetPackage(ctx, req.PackageID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrPackageNotFound) {
			uc.logger.Warn("GetAvailableStarts: package id=%d not found", req.PackageID)
			return nil, ErrPackageNotFound
		}
		uc.logger.Error("GetAvailableStarts: failed to get package id=%d: %v", req.PackageID, err)
		return nil, fmt.Errorf("%w: failed to get package: %v", ErrInternal, err)
	}

	if err := validatePackage(pkg); err != nil {
		uc.logger.Warn("GetAvailableStarts: %v", err)
		return nil, err
	}

	// 3. Календарь читается один раз на запрос
	cal, err := uc.calendarRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, calendarRepo.ErrCalendarNotFound) {
			uc.logger.Warn("GetAvailableStarts: business calendar is not configured")
			return nil, ErrCalendarNotConfigured
		}
		uc.logger.Error("GetAvailableStarts: failed to get calendar: %v", err)
		return nil, fmt.Errorf("%w: failed to get calendar: %v", ErrInternal, err)
	}

	// 4. Пулы ресурсов всех категорий пакета
	pools, err := uc.pools.LoadAll(ctx, pkg.CategoryIDs())
	if err != nil {
		if errors.Is(err, scheduling.ErrCategoryNotConfigured) {
			uc.logger.Warn("GetAvailableStarts: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrCategoryNotConfigured, err)
		}
		uc.logger.Error("GetAvailableStarts: failed to load resource pools: %v", err)
		return nil, fmt.Errorf("%w: failed to load resource pools: %v", ErrInternal, err)
	}

	// 5. Занятость на всем горизонте
	lookup := scheduling.LookupRange(now, cal.Horizon(now), pkg.TotalDurationMinutes())
	assignments, err := uc.assignmentRepo.ListActiveAssignments(ctx, pkg.CategoryIDs(), lookup.Start, lookup.End)
	if err != nil {
		uc.logger.Error("GetAvailableStarts: failed to get assignments: %v", err)
		return nil, fmt.Errorf("%w: failed to get assignments: %v", ErrInternal, err)
	}

	// 6. Пересечение стартов всех услуг пакета и пагинация
	gen := scheduling.NewGenerator(*cal, pools, scheduling.NewOccupancy(assignments), now, uc.settings.StepMinutes)

	offset := (req.Page - 1) * req.PageSize
	starts := make([]time.Time, 0, req.PageSize)
	total := 0
	for t := range gen.PackageStarts(pkg) {
		if total >= offset && len(starts) < req.PageSize {
			starts = append(starts, t)
		}
		total++
	}

	uc.metrics.ObserveAvailability(time.Since(started).Seconds(), total)

	uc.logger.Info("GetAvailableStarts: package=%d, found %d starts, returning %d (page %d)",
		req.PackageID, total, len(starts), req.Page)

	return &Response{
		PackageID:       pkg.ID,
		Timezone:        cal.Location().String(),
		DurationMinutes: pkg.TotalDurationMinutes(),
		Page:            req.Page,
		PageSize:        req.PageSize,
		Total:           total,
		Starts:          starts,
	}, nil
}
