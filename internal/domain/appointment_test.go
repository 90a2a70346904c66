package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{StatusPending, StatusActive, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusInactive, true},
		{StatusPending, StatusDelinquent, true},
		{StatusPending, StatusCompleted, false},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusDelinquent, true},
		{StatusActive, StatusPending, false},
		{StatusDelinquent, StatusCompleted, true},
		{StatusDelinquent, StatusActive, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusActive, false},
		{StatusInactive, StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAppointmentStatus_Flags(t *testing.T) {
	assert.True(t, StatusCancelled.ReleasesResources())
	assert.True(t, StatusInactive.ReleasesResources())
	assert.False(t, StatusCompleted.ReleasesResources())

	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusDelinquent.IsTerminal())

	assert.False(t, AppointmentStatus("BOOKED").IsValid())
}

func TestWindow_Overlaps(t *testing.T) {
	base := time.Date(2025, 3, 17, 11, 30, 0, 0, time.UTC)
	slot := NewWindow(base, 30) // 11:30-12:00

	assert.True(t, slot.Overlaps(NewWindow(base.Add(-10*time.Minute), 20)), "11:20-11:40")
	assert.False(t, slot.Overlaps(NewWindow(base.Add(-30*time.Minute), 30)), "11:00-11:30 touches")
	assert.False(t, slot.Overlaps(NewWindow(base.Add(30*time.Minute), 30)), "12:00-12:30 touches")
	assert.True(t, slot.Overlaps(NewWindow(base.Add(-time.Hour), 120)), "covering window")
}

func TestPackage_Offsets(t *testing.T) {
	pkg := Package{Services: []Service{
		{ID: 1, CategoryID: 7, DurationMinutes: 30, Price: 10},
		{ID: 2, CategoryID: 7, DurationMinutes: 20, Price: 5.5},
		{ID: 3, CategoryID: 9, DurationMinutes: 15, Price: 4.5},
	}}

	assert.Equal(t, []int{0, 30, 50}, pkg.Offsets())
	assert.Equal(t, 65, pkg.TotalDurationMinutes())
	assert.InDelta(t, 20.0, pkg.TotalPrice(), 1e-9)
	assert.Equal(t, []int64{7, 9}, pkg.CategoryIDs())
}
