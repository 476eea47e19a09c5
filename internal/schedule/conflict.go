package schedule

import (
	"slices"

	"github.com/dkaragan/tempo/internal/store"
)

// Thresholds maps the maximum number of simultaneously overlapping
// blocks to a conflict level. They are configuration, not law; see
// config.Conflict for the user-facing knobs.
type Thresholds struct {
	Low    int // at least this many concurrent overlaps -> low
	Medium int
	High   int
}

// DefaultThresholds returns the default overlap thresholds (1/2/3).
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 1, Medium: 2, High: 3}
}

// Level converts a max-simultaneous-overlap count to a conflict level.
func (th Thresholds) Level(overlaps int) store.ConflictLevel {
	switch {
	case overlaps >= th.High:
		return store.ConflictHigh
	case overlaps >= th.Medium:
		return store.ConflictMedium
	case overlaps >= th.Low:
		return store.ConflictLow
	}
	return store.ConflictNone
}

// DetectConflicts classifies every block by the maximum number of other
// blocks it overlaps at any single instant. It is recomputed over the
// whole block set on every change; nothing here is cached or incremental.
// Cancelled blocks neither receive nor cause conflicts.
//
// Sweep line over blocks sorted by start: the maximum concurrency inside
// any block's interval is always attained at some block's start time, so
// evaluating the active set at each start covers every critical instant.
func DetectConflicts(blocks []store.TimeBlock, th Thresholds) map[int64]store.ConflictLevel {
	levels := make(map[int64]store.ConflictLevel, len(blocks))
	overlaps := make(map[int64]int, len(blocks))

	live := make([]store.TimeBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Status == store.BlockCancelled {
			continue
		}
		levels[b.ID] = store.ConflictNone
		live = append(live, b)
	}

	slices.SortFunc(live, func(a, b store.TimeBlock) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})

	var active []store.TimeBlock
	for _, b := range live {
		// Drop blocks that ended before this one starts. Half-open
		// intervals: a block ending exactly at b.Start does not overlap.
		kept := active[:0]
		for _, a := range active {
			if a.End.After(b.Start) {
				kept = append(kept, a)
			}
		}
		active = append(kept, b)

		// At instant b.Start every active block overlaps the other
		// len(active)-1 blocks.
		concurrent := len(active) - 1
		for _, a := range active {
			if concurrent > overlaps[a.ID] {
				overlaps[a.ID] = concurrent
			}
		}
	}

	for id, n := range overlaps {
		levels[id] = th.Level(n)
	}
	return levels
}
