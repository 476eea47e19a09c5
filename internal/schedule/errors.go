package schedule

import (
	"errors"
	"fmt"
)

// MinBlockDuration is the scheduling granularity: blocks are placed and
// resized in 15-minute steps and can never be shorter than one step.
const MinBlockDuration = 15 // minutes

// ErrOutOfAvailability is returned when a move or resize would place a
// block outside the allowed work days or hours entirely. This is a hard
// boundary; overlap with other blocks is merely reported as a conflict.
var ErrOutOfAvailability = errors.New("block would fall outside working hours")

// ErrDurationTooShort is returned when a resize would make a block
// shorter than MinBlockDuration.
var ErrDurationTooShort = fmt.Errorf("block would be shorter than %d minutes", MinBlockDuration)

// ValidationError reports malformed input rejected before any
// computation was attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
