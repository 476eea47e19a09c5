package schedule

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dkaragan/tempo/internal/store"
)

// planNow is a Sunday; planning starts the following Monday.
var planNow = time.Date(2025, 3, 9, 15, 30, 0, 0, time.UTC)

func weekHorizon() Horizon {
	return Horizon{Start: planNow, End: planNow.AddDate(0, 0, 7)}
}

func planDefaults(tasks []store.Task, existing []store.TimeBlock) (*PlanResult, error) {
	return Plan(tasks, existing, DefaultAvailability(), weekHorizon(), planNow, DefaultWeights(), DefaultThresholds())
}

func TestPlan_PlacesFirstSlotMonday(t *testing.T) {
	tasks := []store.Task{{ID: 1, EstimateHours: 3}}

	result, err := planDefaults(tasks, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Placed) != 1 || len(result.Skipped) != 0 {
		t.Fatalf("expected 1 placed 0 skipped, got %d/%d", len(result.Placed), len(result.Skipped))
	}

	b := result.Placed[0]
	if !b.Start.Equal(at(monday, 9, 0)) || !b.End.Equal(at(monday, 12, 0)) {
		t.Errorf("expected Monday 09:00-12:00, got %v - %v", b.Start, b.End)
	}
	if b.TaskID != 1 {
		t.Errorf("expected task 1, got %d", b.TaskID)
	}
	if b.ConflictLevel != store.ConflictNone {
		t.Errorf("expected no conflict, got %s", b.ConflictLevel)
	}
}

func TestPlan_NeverUsesCurrentDay(t *testing.T) {
	// now is Monday morning; the whole Monday must be skipped even
	// though it has free slots.
	mondayMorning := at(monday, 8, 0)
	horizon := Horizon{Start: mondayMorning, End: mondayMorning.AddDate(0, 0, 7)}

	result, err := Plan([]store.Task{{ID: 1, EstimateHours: 1}}, nil,
		DefaultAvailability(), horizon, mondayMorning, DefaultWeights(), DefaultThresholds())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Placed) != 1 {
		t.Fatalf("expected 1 placed, got %d", len(result.Placed))
	}
	tuesday := monday.AddDate(0, 0, 1)
	if !result.Placed[0].Start.Equal(at(tuesday, 9, 0)) {
		t.Errorf("expected Tuesday 09:00, got %v", result.Placed[0].Start)
	}
}

func TestPlan_HighPriorityPlacedFirst(t *testing.T) {
	soon := planNow.Add(24 * time.Hour)
	tasks := []store.Task{
		{ID: 1, EstimateHours: 2, KPIImpact: 0.1},
		{ID: 2, EstimateHours: 2, KPIImpact: 0.9, DueAt: &soon},
	}

	result, err := planDefaults(tasks, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Placed) != 2 {
		t.Fatalf("expected 2 placed, got %d", len(result.Placed))
	}
	// Task 2 outscores task 1 and gets the earliest slot.
	if result.Placed[0].TaskID != 2 {
		t.Errorf("expected task 2 placed first, got %d", result.Placed[0].TaskID)
	}
	if !result.Placed[0].Start.Equal(at(monday, 9, 0)) {
		t.Errorf("expected 09:00 for first placement, got %v", result.Placed[0].Start)
	}
	// The remaining morning gap (11:00-12:30) is too short for 2h, so
	// task 1 lands in the afternoon slot.
	if !result.Placed[1].Start.Equal(at(monday, 14, 0)) {
		t.Errorf("expected 14:00 for second placement, got %v", result.Placed[1].Start)
	}
}

func TestPlan_RespectsExistingBlocks(t *testing.T) {
	existing := []store.TimeBlock{
		{ID: 50, TaskID: 9, Start: at(monday, 9, 0), End: at(monday, 12, 0)},
	}
	tasks := []store.Task{{ID: 1, EstimateHours: 3}}

	result, err := planDefaults(tasks, existing)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Placed) != 1 {
		t.Fatalf("expected 1 placed, got %d", len(result.Placed))
	}
	// First free slot of >= 3h is Monday 14:00-17:30.
	if !result.Placed[0].Start.Equal(at(monday, 14, 0)) {
		t.Errorf("expected 14:00, got %v", result.Placed[0].Start)
	}
}

func TestPlan_SkipsOversizedTask(t *testing.T) {
	// The longest free slot under default availability is 3.5h.
	tasks := []store.Task{{ID: 1, EstimateHours: 4}}

	result, err := planDefaults(tasks, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Placed) != 0 {
		t.Errorf("expected no placements, got %v", result.Placed)
	}
	if !reflect.DeepEqual(result.Skipped, []int64{1}) {
		t.Errorf("expected task 1 skipped, got %v", result.Skipped)
	}
}

func TestPlan_SkipDoesNotStopLaterTasks(t *testing.T) {
	tasks := []store.Task{
		{ID: 1, EstimateHours: 4, KPIImpact: 1}, // unplaceable, highest priority
		{ID: 2, EstimateHours: 1},
	}

	result, err := planDefaults(tasks, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Placed) != 1 || result.Placed[0].TaskID != 2 {
		t.Errorf("expected task 2 placed, got %v", result.Placed)
	}
	if !reflect.DeepEqual(result.Skipped, []int64{1}) {
		t.Errorf("expected task 1 skipped, got %v", result.Skipped)
	}
}

func TestPlan_RoundsUpToGranularity(t *testing.T) {
	tasks := []store.Task{{ID: 1, EstimateHours: 0.4}} // 24min -> 30min

	result, err := planDefaults(tasks, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if got := result.Placed[0].Duration(); got != 30*time.Minute {
		t.Errorf("expected 30m block, got %v", got)
	}
}

func TestPlan_NoDoubleBooking(t *testing.T) {
	var tasks []store.Task
	for i := int64(1); i <= 12; i++ {
		tasks = append(tasks, store.Task{ID: i, EstimateHours: 2})
	}
	existing := []store.TimeBlock{
		{ID: 90, TaskID: 99, Start: at(monday, 10, 0), End: at(monday, 11, 0)},
	}

	result, err := planDefaults(tasks, existing)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	all := append([]store.TimeBlock{}, existing...)
	all = append(all, result.Placed...)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if a.Start.Before(b.End) && b.Start.Before(a.End) {
				t.Errorf("blocks overlap: %v-%v and %v-%v", a.Start, a.End, b.Start, b.End)
			}
		}
	}
}

func TestPlan_PlacedBlocksAreAllowed(t *testing.T) {
	avail := DefaultAvailability()
	var tasks []store.Task
	for i := int64(1); i <= 8; i++ {
		tasks = append(tasks, store.Task{ID: i, EstimateHours: float64(i) / 2})
	}

	result, err := planDefaults(tasks, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, b := range result.Placed {
		if !avail.IsAllowed(b.Start, b.End) {
			t.Errorf("placed block outside availability: %v - %v", b.Start, b.End)
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	due := planNow.Add(3 * 24 * time.Hour)
	tasks := []store.Task{
		{ID: 3, EstimateHours: 1.5, KPIImpact: 0.6},
		{ID: 1, EstimateHours: 2, DueAt: &due},
		{ID: 2, EstimateHours: 0.5, RiskCount: 3},
	}

	first, err := planDefaults(tasks, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	second, err := planDefaults(tasks, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("plan not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestPlan_AnnotatesExistingConflicts(t *testing.T) {
	// Two pre-existing blocks already overlap; planning must re-report
	// them even though it places nothing on top.
	existing := []store.TimeBlock{
		{ID: 1, TaskID: 7, Start: at(monday, 9, 0), End: at(monday, 10, 0)},
		{ID: 2, TaskID: 8, Start: at(monday, 9, 30), End: at(monday, 10, 30)},
	}

	result, err := planDefaults(nil, existing)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if result.Conflicts[1] != store.ConflictLow || result.Conflicts[2] != store.ConflictLow {
		t.Errorf("expected both existing blocks low, got %v", result.Conflicts)
	}
}

func TestPlan_InvertedHorizon(t *testing.T) {
	_, err := Plan(nil, nil, DefaultAvailability(),
		Horizon{Start: planNow, End: planNow.Add(-time.Hour)},
		planNow, DefaultWeights(), DefaultThresholds())

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestPlan_NegativeEstimate(t *testing.T) {
	_, err := planDefaults([]store.Task{{ID: 1, EstimateHours: -2}}, nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
