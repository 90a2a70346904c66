package scheduling

import (
	"iter"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// DefaultStepMinutes шаг перебора кандидатов
const DefaultStepMinutes = 10

// CandidateQuery услуга, для которой ищутся стартовые моменты
type CandidateQuery struct {
	CategoryID      int64
	DurationMinutes int
	// Aligned оставляет только моменты на сетке IntervalMinutes календаря
	Aligned bool
}

// Generator перебирает допустимые стартовые моменты по неизменяемому снимку
// календаря, пулов и занятости. Безопасен для повторного обхода.
type Generator struct {
	calendar  domain.BusinessCalendar
	pools     map[int64]*Pool
	occupancy *Occupancy
	now       time.Time
	step      time.Duration
}

// NewGenerator создает генератор. stepMinutes <= 0 означает DefaultStepMinutes.
// Фактический шаг делит и stepMinutes, и IntervalMinutes, чтобы сетка интервала не терялась.
func NewGenerator(calendar domain.BusinessCalendar, pools map[int64]*Pool, occupancy *Occupancy, now time.Time, stepMinutes int) *Generator {
	if stepMinutes <= 0 {
		stepMinutes = DefaultStepMinutes
	}
	if calendar.IntervalMinutes > 0 {
		stepMinutes = gcd(stepMinutes, calendar.IntervalMinutes)
	}
	if occupancy == nil {
		occupancy = NewOccupancy(nil)
	}
	calendar.Location()

	return &Generator{
		calendar:  calendar,
		pools:     pools,
		occupancy: occupancy,
		now:       now,
		step:      time.Duration(stepMinutes) * time.Minute,
	}
}

// Start первый рассматриваемый момент: now, округленное вверх до шага от полуночи бизнеса
func (g *Generator) Start() time.Time {
	loc := g.calendar.Location()
	local := g.now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	elapsed := local.Sub(midnight)
	steps := elapsed / g.step
	if elapsed%g.step != 0 {
		steps++
	}
	return midnight.Add(steps * g.step)
}

// Horizon последний допустимый момент
func (g *Generator) Horizon() time.Time {
	return g.calendar.Horizon(g.now)
}

// Step фактический шаг перебора
func (g *Generator) Step() time.Duration {
	return g.step
}

// Candidates упорядоченная конечная последовательность допустимых стартов услуги
func (g *Generator) Candidates(q CandidateQuery) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		horizon := g.Horizon()
		for t := g.Start(); !t.After(horizon); t = t.Add(g.step) {
			if q.Aligned && !g.calendar.IsAligned(t) {
				continue
			}
			if !g.admits(q, t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// IsAvailable проверяет один момент: рабочее время, горизонт и свободная емкость категории
func (g *Generator) IsAvailable(q CandidateQuery, t time.Time) bool {
	if t.Before(g.now) || t.After(g.Horizon()) {
		return false
	}
	if q.Aligned && !g.calendar.IsAligned(t) {
		return false
	}
	return g.admits(q, t)
}

func (g *Generator) admits(q CandidateQuery, t time.Time) bool {
	if !g.calendar.IsOpenInstant(t, q.DurationMinutes) {
		return false
	}

	pool, ok := g.pools[q.CategoryID]
	if !ok {
		return false
	}

	colliding := CollidingAssignments(g.occupancy.InCategory(q.CategoryID), t, q.DurationMinutes)
	if len(colliding) == 0 {
		return true
	}
	return pool.Admits(len(colliding))
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
