package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// AssignRequest назначение одной услуги пакета
type AssignRequest struct {
	AppointmentID int64
	Service       domain.Service
	Position      int
	StartsAt      time.Time
	Pool          *Pool
	// Occupancy пополняется созданным назначением, чтобы следующие услуги его видели.
	// Должен содержать и назначения ресурсов пула в других категориях.
	Occupancy *Occupancy
}

// Engine выбирает и сохраняет специалиста и рабочее место для услуги
type Engine struct {
	repo   AssignmentRepository
	policy AssignmentPolicy
	logger Logger
}

// NewEngine создает движок назначений. nil policy означает RandomPolicy.
func NewEngine(repo AssignmentRepository, policy AssignmentPolicy, logger Logger) *Engine {
	if policy == nil {
		policy = RandomPolicy{}
	}
	return &Engine{repo: repo, policy: policy, logger: logger}
}

// Assign выбирает свободные ресурсы и сохраняет назначение.
// Вызывается внутри транзакции бронирования.
func (e *Engine) Assign(ctx context.Context, req AssignRequest) (*domain.ServiceAssignment, error) {
	if req.Pool == nil {
		return nil, fmt.Errorf("%w: category %d", ErrCategoryNotConfigured, req.Service.CategoryID)
	}

	// Занятость ресурса считается по всем категориям снимка
	colliding := CollidingExcept(
		req.Occupancy.All(),
		req.StartsAt,
		req.Service.DurationMinutes,
		req.AppointmentID,
	)

	freeProfessionals := FreeProfessionals(req.Pool.Professionals, colliding)
	if len(freeProfessionals) == 0 {
		return nil, fmt.Errorf("%w: category %d at %s: %w",
			ErrCapacityExhausted, req.Service.CategoryID, req.StartsAt.Format(time.RFC3339), ErrNoFreeProfessional)
	}

	freeWorkstations := FreeWorkstations(req.Pool.Workstations, colliding)
	if len(freeWorkstations) == 0 {
		return nil, fmt.Errorf("%w: category %d at %s: %w",
			ErrCapacityExhausted, req.Service.CategoryID, req.StartsAt.Format(time.RFC3339), ErrNoFreeWorkstation)
	}

	professional := e.policy.PickProfessional(freeProfessionals)
	workstation := e.policy.PickWorkstation(freeWorkstations)

	assignment := &domain.ServiceAssignment{
		AppointmentID:   req.AppointmentID,
		ServiceID:       req.Service.ID,
		CategoryID:      req.Service.CategoryID,
		ProfessionalID:  professional.ID,
		WorkstationID:   workstation.ID,
		Position:        req.Position,
		StartsAt:        req.StartsAt,
		ServiceName:     req.Service.Name,
		DurationMinutes: req.Service.DurationMinutes,
		Price:           req.Service.Price,
	}

	created, err := e.repo.CreateAssignment(ctx, assignment)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSaveAssignment, err)
	}

	req.Occupancy.Add(*created)

	e.logger.Info("Assign: appointment=%d service=%d start=%s professional=%d workstation=%d",
		req.AppointmentID, req.Service.ID, req.StartsAt.Format(time.RFC3339), professional.ID, workstation.ID)

	return created, nil
}

// FreeProfessionals специалисты пула, не занятые ни одним из colliding назначений
func FreeProfessionals(pool []domain.Professional, colliding []domain.ServiceAssignment) []domain.Professional {
	busy := make(map[int64]struct{}, len(colliding))
	for _, a := range colliding {
		busy[a.ProfessionalID] = struct{}{}
	}

	free := make([]domain.Professional, 0, len(pool))
	for _, p := range pool {
		if _, ok := busy[p.ID]; !ok {
			free = append(free, p)
		}
	}
	return free
}

// FreeWorkstations рабочие места пула, не занятые ни одним из colliding назначений
func FreeWorkstations(pool []domain.Workstation, colliding []domain.ServiceAssignment) []domain.Workstation {
	busy := make(map[int64]struct{}, len(colliding))
	for _, a := range colliding {
		busy[a.WorkstationID] = struct{}{}
	}

	free := make([]domain.Workstation, 0, len(pool))
	for _, w := range pool {
		if _, ok := busy[w.ID]; !ok {
			free = append(free, w)
		}
	}
	return free
}
