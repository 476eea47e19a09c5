package schedule

import (
	"time"

	"github.com/dkaragan/tempo/internal/store"
)

// Move relocates a block to a new start time, keeping its duration.
// The new interval must lie inside the availability window (hard
// boundary, ErrOutOfAvailability); overlap with other blocks is allowed
// and surfaced through the returned block's recomputed ConflictLevel.
// snapshot is the full block set the edit is validated against; the
// moved block itself may or may not be part of it.
func Move(b store.TimeBlock, newStart time.Time, snapshot []store.TimeBlock, avail Availability, th Thresholds) (store.TimeBlock, error) {
	duration := b.Duration()
	if duration <= 0 {
		return store.TimeBlock{}, &ValidationError{Field: "block", Reason: "end must be after start"}
	}

	updated := b
	updated.Start = newStart
	updated.End = newStart.Add(duration)
	return revalidate(updated, snapshot, avail, th)
}

// Resize changes a block's end time, keeping its start. The resulting
// duration must be at least MinBlockDuration (ErrDurationTooShort) and
// the new interval must stay inside the availability window. Overlap is
// reported, not rejected, exactly as for Move.
func Resize(b store.TimeBlock, newEnd time.Time, snapshot []store.TimeBlock, avail Availability, th Thresholds) (store.TimeBlock, error) {
	if newEnd.Sub(b.Start) < MinBlockDuration*time.Minute {
		return store.TimeBlock{}, ErrDurationTooShort
	}

	updated := b
	updated.End = newEnd
	return revalidate(updated, snapshot, avail, th)
}

// revalidate applies the hard availability boundary and recomputes the
// conflict level of the updated block against the snapshot with the old
// version of the block swapped out.
func revalidate(updated store.TimeBlock, snapshot []store.TimeBlock, avail Availability, th Thresholds) (store.TimeBlock, error) {
	if !avail.IsAllowed(updated.Start, updated.End) {
		return store.TimeBlock{}, ErrOutOfAvailability
	}

	blocks := make([]store.TimeBlock, 0, len(snapshot)+1)
	for _, sb := range snapshot {
		if sb.ID != updated.ID {
			blocks = append(blocks, sb)
		}
	}
	blocks = append(blocks, updated)

	levels := DetectConflicts(blocks, th)
	updated.ConflictLevel = levels[updated.ID]
	return updated, nil
}
