package scheduling

import (
	"iter"
	"slices"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// PackageQueries описания услуг пакета в порядке выполнения.
// Сетка интервала проверяется только для первой услуги: остальные начинаются
// сразу по окончании предыдущей.
func PackageQueries(pkg *domain.Package) []CandidateQuery {
	queries := make([]CandidateQuery, len(pkg.Services))
	for i, s := range pkg.Services {
		queries[i] = CandidateQuery{
			CategoryID:      s.CategoryID,
			DurationMinutes: s.DurationMinutes,
			Aligned:         i == 0,
		}
	}
	return queries
}

// PackageStarts стартовые моменты, при которых каждая услуга пакета,
// выполняемая подряд, проходит собственную проверку на своем смещении
func (g *Generator) PackageStarts(pkg *domain.Package) iter.Seq[time.Time] {
	queries := PackageQueries(pkg)
	offsets := pkg.Offsets()

	return func(yield func(time.Time) bool) {
		if len(queries) == 0 {
			return
		}
		for t := range g.Candidates(queries[0]) {
			if !g.restFits(queries, offsets, t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// IsPackageAvailable проверяет один стартовый момент для всего пакета
func (g *Generator) IsPackageAvailable(pkg *domain.Package, start time.Time) bool {
	queries := PackageQueries(pkg)
	if len(queries) == 0 {
		return false
	}
	if !g.IsAvailable(queries[0], start) {
		return false
	}
	return g.restFits(queries, pkg.Offsets(), start)
}

// Alternatives до n доступных стартов пакета, ближайших к around, по возрастанию.
// Сам around в результат не попадает.
func (g *Generator) Alternatives(pkg *domain.Package, around time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}

	before := make([]time.Time, 0, n)
	after := make([]time.Time, 0, n)
	for t := range g.PackageStarts(pkg) {
		switch {
		case t.Equal(around):
			continue
		case t.Before(around):
			if len(before) == n {
				before = before[1:]
			}
			before = append(before, t)
		default:
			after = append(after, t)
		}
		if len(after) == n {
			break
		}
	}

	// Сливаем две стороны, забирая ближайший к around момент
	picked := make([]time.Time, 0, n)
	i, j := len(before)-1, 0
	for len(picked) < n && (i >= 0 || j < len(after)) {
		switch {
		case i < 0:
			picked = append(picked, after[j])
			j++
		case j >= len(after):
			picked = append(picked, before[i])
			i--
		case around.Sub(before[i]) <= after[j].Sub(around):
			picked = append(picked, before[i])
			i--
		default:
			picked = append(picked, after[j])
			j++
		}
	}

	slices.SortFunc(picked, func(a, b time.Time) int { return a.Compare(b) })
	return picked
}

func (g *Generator) restFits(queries []CandidateQuery, offsets []int, start time.Time) bool {
	for i := 1; i < len(queries); i++ {
		at := start.Add(time.Duration(offsets[i]) * time.Minute)
		if !g.admits(queries[i], at) {
			return false
		}
	}
	return true
}
