// Package schedule implements the task scheduling and calendar-allocation
// engine: priority scoring, availability windows, conflict detection,
// greedy weekly planning, and interactive block edits.
//
// Every operation is a pure function over an explicit snapshot of tasks
// and blocks. The engine performs no I/O and holds no mutable state; the
// caller reads snapshots from the store, invokes the engine, and commits
// results back (optimistic concurrency lives at the store boundary).
package schedule

import (
	"math"
	"slices"
	"time"

	"github.com/dkaragan/tempo/internal/store"
)

// Weights holds the configurable factor weights and normalization
// constants for priority scoring. Weights should sum to 1.0.
type Weights struct {
	KPIImpact  float64 // weight of the task's declared KPI impact
	Urgency    float64 // weight of due-date proximity
	Effort     float64 // weight of inverse effort (small tasks score higher)
	Risk       float64 // weight of inverse risk-flag count
	Dependency float64 // weight of dependant count (critical-path proxy)

	DueHorizonDays float64 // urgency ramps from 0 to 1 over this many days before due
	EffortCapHours float64 // estimates at or above this count as maximum effort
}

// DefaultWeights returns the default scoring weights.
func DefaultWeights() Weights {
	return Weights{
		KPIImpact:      0.30,
		Urgency:        0.25,
		Effort:         0.20,
		Risk:           0.15,
		Dependency:     0.10,
		DueHorizonDays: 30,
		EffortCapHours: 40,
	}
}

// Score computes a task's priority on a 0–100 scale, rounded to two
// decimal places. It is a pure, total function: out-of-range inputs are
// clamped and missing ones defaulted, never rejected. now anchors the
// urgency factor so repeated calls with the same inputs are identical.
func Score(t store.Task, w Weights, now time.Time) float64 {
	kpi := t.KPIImpact
	if kpi == 0 {
		kpi = 0.5
	}
	kpi = clamp01(kpi)

	urgency := 0.5
	if t.DueAt != nil {
		daysUntilDue := t.DueAt.Sub(now).Hours() / 24
		urgency = clamp01(1 - daysUntilDue/w.DueHorizonDays)
	}

	estimate := t.EstimateHours
	if estimate <= 0 {
		estimate = 2
	}
	effortInverse := 1 - clamp01(estimate/w.EffortCapHours)

	riskInverse := 1 - clamp01(float64(t.RiskCount)*0.1)

	dependency := clamp01(float64(t.DependencyCount) / 5)

	sum := w.KPIImpact*kpi +
		w.Urgency*urgency +
		w.Effort*effortInverse +
		w.Risk*riskInverse +
		w.Dependency*dependency

	return math.Round(100*sum*100) / 100
}

// ScoredTask pairs a task with its computed priority score.
type ScoredTask struct {
	Task  store.Task
	Score float64
}

// Rank scores all tasks and returns them sorted by score descending.
// Ties break on earlier due date (tasks without one sort last), then on
// ascending task ID, so the queue order is fully deterministic.
func Rank(tasks []store.Task, w Weights, now time.Time) []ScoredTask {
	ranked := make([]ScoredTask, len(tasks))
	for i, t := range tasks {
		ranked[i] = ScoredTask{Task: t, Score: Score(t, w, now)}
	}

	slices.SortFunc(ranked, func(a, b ScoredTask) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if c := compareDue(a.Task.DueAt, b.Task.DueAt); c != 0 {
			return c
		}
		switch {
		case a.Task.ID < b.Task.ID:
			return -1
		case a.Task.ID > b.Task.ID:
			return 1
		}
		return 0
	})
	return ranked
}

// compareDue orders due dates ascending with nils last.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
