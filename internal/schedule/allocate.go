package schedule

import (
	"math"
	"time"

	"github.com/dkaragan/tempo/internal/store"
)

// Horizon is the date range automatic planning searches for free slots.
type Horizon struct {
	Start time.Time
	End   time.Time
}

// PlanResult is the outcome of a planning run. Placed blocks carry no
// store IDs yet (the caller persists them); their ConflictLevel fields
// are already annotated. Conflicts holds recomputed levels for the
// existing blocks, keyed by block ID.
type PlanResult struct {
	Placed    []store.TimeBlock
	Skipped   []int64
	Conflicts map[int64]store.ConflictLevel
}

// Plan runs the greedy weekly allocator. Tasks are taken in priority
// order and each gets the earliest free slot, walking day by day from
// the day after now (never the current, partially elapsed day) through
// horizon.End. A task that fits nowhere in the horizon lands in Skipped;
// that is a normal outcome, not an error. Tasks are never split across
// blocks: one planning run places at most one contiguous block per task.
//
// The block snapshot is an explicit parameter so the caller controls
// freshness; re-detection of conflicts over existing and placed blocks
// is mandatory because the snapshot may already be stale.
func Plan(tasks []store.Task, existing []store.TimeBlock, avail Availability, horizon Horizon, now time.Time, w Weights, th Thresholds) (*PlanResult, error) {
	if !horizon.End.After(horizon.Start) {
		return nil, &ValidationError{Field: "horizon", Reason: "end must be after start"}
	}
	for _, t := range tasks {
		if t.EstimateHours < 0 {
			return nil, &ValidationError{Field: "estimate", Reason: "must not be negative"}
		}
	}

	result := &PlanResult{}

	firstDay := startOfDay(now).AddDate(0, 0, 1)
	if horizon.Start.After(firstDay) {
		firstDay = startOfDay(horizon.Start)
	}

	// Existing plus already-placed blocks count as occupied.
	occupied := make([]store.TimeBlock, len(existing))
	copy(occupied, existing)

	for _, st := range Rank(tasks, w, now) {
		duration := blockDuration(st.Task.EstimateHours)

		var placed *store.TimeBlock
		for day := firstDay; day.Before(horizon.End); day = day.AddDate(0, 0, 1) {
			for slot := range avail.FreeSlotsForDay(day, occupied) {
				if slot.Duration() < duration {
					continue
				}
				placed = &store.TimeBlock{
					TaskID: st.Task.ID,
					Start:  slot.Start,
					End:    slot.Start.Add(duration),
					Status: store.BlockPlanned,
				}
				break
			}
			if placed != nil {
				break
			}
		}

		if placed == nil {
			result.Skipped = append(result.Skipped, st.Task.ID)
			continue
		}
		occupied = append(occupied, *placed)
		result.Placed = append(result.Placed, *placed)
	}

	result.Conflicts = annotate(existing, result.Placed, th)
	return result, nil
}

// annotate runs conflict detection over existing plus placed blocks,
// writing levels onto the placed blocks in place and returning the map
// for the existing ones. Placed blocks get temporary negative IDs for
// the detector since the store has not assigned real ones yet.
func annotate(existing []store.TimeBlock, placed []store.TimeBlock, th Thresholds) map[int64]store.ConflictLevel {
	all := make([]store.TimeBlock, 0, len(existing)+len(placed))
	all = append(all, existing...)
	for i, b := range placed {
		b.ID = -int64(i + 1)
		all = append(all, b)
	}

	levels := DetectConflicts(all, th)
	for i := range placed {
		placed[i].ConflictLevel = levels[-int64(i+1)]
	}

	conflicts := make(map[int64]store.ConflictLevel, len(existing))
	for _, b := range existing {
		if lvl, ok := levels[b.ID]; ok {
			conflicts[b.ID] = lvl
		}
	}
	return conflicts
}

// blockDuration converts an estimate in hours to a block length, rounded
// up to the 15-minute granularity. A zero estimate gets the 2-hour
// default.
func blockDuration(estimateHours float64) time.Duration {
	if estimateHours <= 0 {
		estimateHours = 2
	}
	steps := math.Ceil(estimateHours * 60 / MinBlockDuration)
	return time.Duration(steps) * MinBlockDuration * time.Minute
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
