package scheduling

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Occupancy снимок действующих назначений, сгруппированный по категориям
type Occupancy struct {
	byCategory map[int64][]domain.ServiceAssignment
	all        []domain.ServiceAssignment
	seen       map[int64]struct{}
}

// NewOccupancy строит снимок. Освобожденные назначения отбрасываются.
func NewOccupancy(assignments []domain.ServiceAssignment) *Occupancy {
	o := &Occupancy{
		byCategory: make(map[int64][]domain.ServiceAssignment),
		seen:       make(map[int64]struct{}),
	}
	for _, a := range assignments {
		o.Add(a)
	}
	return o
}

// Add добавляет назначение в снимок. Сохраненное назначение (ID != 0) учитывается один раз.
func (o *Occupancy) Add(a domain.ServiceAssignment) {
	if a.Released {
		return
	}
	if a.ID != 0 {
		if _, ok := o.seen[a.ID]; ok {
			return
		}
		o.seen[a.ID] = struct{}{}
	}
	o.byCategory[a.CategoryID] = append(o.byCategory[a.CategoryID], a)
	o.all = append(o.all, a)
}

// InCategory возвращает назначения категории
func (o *Occupancy) InCategory(categoryID int64) []domain.ServiceAssignment {
	return o.byCategory[categoryID]
}

// All возвращает назначения всех категорий
func (o *Occupancy) All() []domain.ServiceAssignment {
	return o.all
}

// CollisionWindow окно [instant-duration, instant+duration), с которым сравниваются назначения
func CollisionWindow(instant time.Time, durationMinutes int) domain.Window {
	d := time.Duration(durationMinutes) * time.Minute
	return domain.Window{Start: instant.Add(-d), End: instant.Add(d)}
}

// CollidingAssignments возвращает назначения, пересекающиеся с окном
// [instant-duration, instant+duration). Окно намеренно шире самой услуги.
func CollidingAssignments(assignments []domain.ServiceAssignment, instant time.Time, durationMinutes int) []domain.ServiceAssignment {
	return CollidingExcept(assignments, instant, durationMinutes, 0)
}

// CollidingExcept то же, что CollidingAssignments, но без назначений записи appointmentID.
// Услуги одного пакета идут подряд и друг другу не мешают.
func CollidingExcept(assignments []domain.ServiceAssignment, instant time.Time, durationMinutes int, appointmentID int64) []domain.ServiceAssignment {
	window := CollisionWindow(instant, durationMinutes)

	colliding := make([]domain.ServiceAssignment, 0)
	for _, a := range assignments {
		if a.Released {
			continue
		}
		if appointmentID != 0 && a.AppointmentID == appointmentID {
			continue
		}
		if a.Window().Overlaps(window) {
			colliding = append(colliding, a)
		}
	}
	return colliding
}

// LookupRange интервал, назначения из которого могут задеть старты из [first, last]
// пакета длиной totalMinutes. Длительность одной услуги не превышает MaxServiceDurationMinutes.
func LookupRange(first, last time.Time, totalMinutes int) domain.Window {
	margin := time.Duration(domain.MaxServiceDurationMinutes) * time.Minute
	return domain.Window{
		Start: first.Add(-margin),
		End:   last.Add(time.Duration(totalMinutes)*time.Minute + margin),
	}
}
