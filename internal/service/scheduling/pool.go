package scheduling

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Pool активные ресурсы одной категории
type Pool struct {
	CategoryID    int64
	Professionals []domain.Professional
	Workstations  []domain.Workstation
}

// ProfessionalCount количество специалистов, учитываемых в емкости
func (p *Pool) ProfessionalCount() int {
	return len(p.Professionals)
}

// WorkstationCount количество рабочих мест, учитываемых в емкости
func (p *Pool) WorkstationCount() int {
	return len(p.Workstations)
}

// Admits проверяет, что при colliding пересечениях осталось место.
// Емкость ограничена и специалистами, и рабочими местами одновременно.
func (p *Pool) Admits(colliding int) bool {
	return colliding < p.ProfessionalCount() && colliding < p.WorkstationCount()
}

// ResourceIDs уникальные идентификаторы специалистов и рабочих мест всех пулов.
// Один специалист может входить в несколько категорий.
func ResourceIDs(pools map[int64]*Pool) (professionalIDs, workstationIDs []int64) {
	professionals := make(map[int64]struct{})
	workstations := make(map[int64]struct{})
	for _, pool := range pools {
		if pool == nil {
			continue
		}
		for _, p := range pool.Professionals {
			professionals[p.ID] = struct{}{}
		}
		for _, w := range pool.Workstations {
			workstations[w.ID] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(professionals)), slices.Sorted(maps.Keys(workstations))
}

// PoolLoader собирает пулы категорий из справочника персонала
type PoolLoader struct {
	directory Directory
}

// NewPoolLoader создает загрузчик пулов
func NewPoolLoader(directory Directory) *PoolLoader {
	return &PoolLoader{directory: directory}
}

// ProfessionalsFor возвращает активных специалистов категории
func (l *PoolLoader) ProfessionalsFor(ctx context.Context, categoryID int64) ([]domain.Professional, error) {
	all, err := l.directory.ListProfessionals(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: professionals of category %d: %v", ErrDirectoryUnavailable, categoryID, err)
	}

	active := make([]domain.Professional, 0, len(all))
	for _, p := range all {
		if p.IsAvailable() {
			active = append(active, p)
		}
	}
	return active, nil
}

// WorkstationsFor возвращает активные рабочие места категории
func (l *PoolLoader) WorkstationsFor(ctx context.Context, categoryID int64) ([]domain.Workstation, error) {
	all, err := l.directory.ListWorkstations(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: workstations of category %d: %v", ErrDirectoryUnavailable, categoryID, err)
	}

	active := make([]domain.Workstation, 0, len(all))
	for _, w := range all {
		if w.IsAvailable() {
			active = append(active, w)
		}
	}
	return active, nil
}

// Load собирает пул категории. Пустой пул считается ошибкой конфигурации,
// а не отсутствием свободных мест.
func (l *PoolLoader) Load(ctx context.Context, categoryID int64) (*Pool, error) {
	professionals, err := l.ProfessionalsFor(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	workstations, err := l.WorkstationsFor(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if len(professionals) == 0 || len(workstations) == 0 {
		return nil, fmt.Errorf("%w: category %d has %d professionals and %d workstations",
			ErrCategoryNotConfigured, categoryID, len(professionals), len(workstations))
	}

	return &Pool{
		CategoryID:    categoryID,
		Professionals: professionals,
		Workstations:  workstations,
	}, nil
}

// LoadAll собирает пулы для всех категорий пакета
func (l *PoolLoader) LoadAll(ctx context.Context, categoryIDs []int64) (map[int64]*Pool, error) {
	pools := make(map[int64]*Pool, len(categoryIDs))
	for _, id := range categoryIDs {
		if _, ok := pools[id]; ok {
			continue
		}
		pool, err := l.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		pools[id] = pool
	}
	return pools, nil
}
