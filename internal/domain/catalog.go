package domain

import "time"

// Category groups services that share the same pool of professionals and workstations
type Category struct {
	ID   int64
	Name string
}

// Service is a single bookable procedure
type Service struct {
	ID              int64
	CategoryID      int64
	Name            string
	DurationMinutes int
	Price           float64
	DeletedAt       *time.Time
}

// IsDeleted returns true if the service was soft-deleted
func (s *Service) IsDeleted() bool {
	return s.DeletedAt != nil
}

// Package is an ordered list of services performed back-to-back
type Package struct {
	ID        int64
	Name      string
	Services  []Service
	DeletedAt *time.Time
}

// TotalDurationMinutes returns the sum of all service durations
func (p *Package) TotalDurationMinutes() int {
	total := 0
	for _, s := range p.Services {
		total += s.DurationMinutes
	}
	return total
}

// TotalPrice returns the sum of all service prices
func (p *Package) TotalPrice() float64 {
	total := 0.0
	for _, s := range p.Services {
		total += s.Price
	}
	return total
}

// Offsets returns the start offset in minutes of each service relative to the package start
func (p *Package) Offsets() []int {
	offsets := make([]int, len(p.Services))
	cursor := 0
	for i, s := range p.Services {
		offsets[i] = cursor
		cursor += s.DurationMinutes
	}
	return offsets
}

// CategoryIDs returns the distinct categories touched by the package, in package order
func (p *Package) CategoryIDs() []int64 {
	seen := make(map[int64]struct{}, len(p.Services))
	ids := make([]int64, 0, len(p.Services))
	for _, s := range p.Services {
		if _, ok := seen[s.CategoryID]; ok {
			continue
		}
		seen[s.CategoryID] = struct{}{}
		ids = append(ids, s.CategoryID)
	}
	return ids
}

// ResourceState is the operational state of a workstation
type ResourceState string

const (
	ResourceStateActive   ResourceState = "active"
	ResourceStateInactive ResourceState = "inactive"
)

// Professional is a staff member who performs services
type Professional struct {
	ID          int64
	Name        string
	CategoryIDs []int64
	Deleted     bool
}

// IsAvailable returns true if the professional counts toward capacity
func (p *Professional) IsAvailable() bool {
	return !p.Deleted
}

// Workstation is a physical place where services are performed
type Workstation struct {
	ID          int64
	Name        string
	CategoryIDs []int64
	State       ResourceState
	Deleted     bool
}

// IsAvailable returns true if the workstation counts toward capacity
func (w *Workstation) IsAvailable() bool {
	return !w.Deleted && w.State == ResourceStateActive
}
