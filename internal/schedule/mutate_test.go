package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/dkaragan/tempo/internal/store"
)

func testBlock() store.TimeBlock {
	return store.TimeBlock{
		ID:     1,
		TaskID: 10,
		Start:  at(monday, 10, 0),
		End:    at(monday, 11, 0),
		Status: store.BlockPlanned,
	}
}

func TestMove_KeepsDuration(t *testing.T) {
	moved, err := Move(testBlock(), at(monday, 14, 0), nil, DefaultAvailability(), DefaultThresholds())
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !moved.Start.Equal(at(monday, 14, 0)) || !moved.End.Equal(at(monday, 15, 0)) {
		t.Errorf("expected 14:00-15:00, got %v - %v", moved.Start, moved.End)
	}
	if moved.ConflictLevel != store.ConflictNone {
		t.Errorf("expected no conflict, got %s", moved.ConflictLevel)
	}
}

func TestMove_ToWeekend(t *testing.T) {
	saturday := monday.AddDate(0, 0, 5)
	_, err := Move(testBlock(), at(saturday, 10, 0), nil, DefaultAvailability(), DefaultThresholds())
	if !errors.Is(err, ErrOutOfAvailability) {
		t.Fatalf("expected ErrOutOfAvailability, got %v", err)
	}
}

func TestMove_OutsideWorkHours(t *testing.T) {
	_, err := Move(testBlock(), at(monday, 17, 30), nil, DefaultAvailability(), DefaultThresholds())
	if !errors.Is(err, ErrOutOfAvailability) {
		t.Fatalf("expected ErrOutOfAvailability, got %v", err)
	}
}

func TestMove_IntoExclusionWindow(t *testing.T) {
	_, err := Move(testBlock(), at(monday, 12, 0), nil, DefaultAvailability(), DefaultThresholds())
	if !errors.Is(err, ErrOutOfAvailability) {
		t.Fatalf("expected ErrOutOfAvailability, got %v", err)
	}
}

func TestMove_OverlapIsWarningNotError(t *testing.T) {
	snapshot := []store.TimeBlock{
		testBlock(),
		{ID: 2, TaskID: 11, Start: at(monday, 14, 0), End: at(monday, 15, 0)},
	}

	moved, err := Move(testBlock(), at(monday, 14, 30), snapshot, DefaultAvailability(), DefaultThresholds())
	if err != nil {
		t.Fatalf("overlap must not reject the move: %v", err)
	}
	if moved.ConflictLevel != store.ConflictLow {
		t.Errorf("expected low conflict, got %s", moved.ConflictLevel)
	}
}

func TestMove_ReplacesOldIntervalInSnapshot(t *testing.T) {
	// The snapshot still holds the block's old interval; moving away
	// from a former overlap must not count it against the new position.
	block := testBlock()
	snapshot := []store.TimeBlock{
		block,
		{ID: 2, TaskID: 11, Start: at(monday, 10, 30), End: at(monday, 11, 30)},
	}

	moved, err := Move(block, at(monday, 15, 0), snapshot, DefaultAvailability(), DefaultThresholds())
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if moved.ConflictLevel != store.ConflictNone {
		t.Errorf("expected none after moving clear, got %s", moved.ConflictLevel)
	}
}

func TestMove_InvalidBlock(t *testing.T) {
	bad := testBlock()
	bad.End = bad.Start

	_, err := Move(bad, at(monday, 14, 0), nil, DefaultAvailability(), DefaultThresholds())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestResize_Extends(t *testing.T) {
	resized, err := Resize(testBlock(), at(monday, 12, 0), nil, DefaultAvailability(), DefaultThresholds())
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if !resized.Start.Equal(at(monday, 10, 0)) || !resized.End.Equal(at(monday, 12, 0)) {
		t.Errorf("expected 10:00-12:00, got %v - %v", resized.Start, resized.End)
	}
}

func TestResize_TooShort(t *testing.T) {
	_, err := Resize(testBlock(), at(monday, 10, 10), nil, DefaultAvailability(), DefaultThresholds())
	if !errors.Is(err, ErrDurationTooShort) {
		t.Fatalf("expected ErrDurationTooShort, got %v", err)
	}
}

func TestResize_ExactMinimumAllowed(t *testing.T) {
	resized, err := Resize(testBlock(), at(monday, 10, 15), nil, DefaultAvailability(), DefaultThresholds())
	if err != nil {
		t.Fatalf("15 minutes is the minimum, not below it: %v", err)
	}
	if resized.Duration() != 15*time.Minute {
		t.Errorf("expected 15m, got %v", resized.Duration())
	}
}

func TestResize_PastWorkEnd(t *testing.T) {
	block := testBlock()
	block.Start = at(monday, 16, 0)
	block.End = at(monday, 17, 0)

	_, err := Resize(block, at(monday, 18, 30), nil, DefaultAvailability(), DefaultThresholds())
	if !errors.Is(err, ErrOutOfAvailability) {
		t.Fatalf("expected ErrOutOfAvailability, got %v", err)
	}
}

func TestResize_IntoOverlapReportsConflict(t *testing.T) {
	snapshot := []store.TimeBlock{
		testBlock(),
		{ID: 2, TaskID: 11, Start: at(monday, 11, 30), End: at(monday, 12, 30)},
	}

	resized, err := Resize(testBlock(), at(monday, 12, 0), snapshot, DefaultAvailability(), DefaultThresholds())
	if err != nil {
		t.Fatalf("overlap must not reject the resize: %v", err)
	}
	if resized.ConflictLevel != store.ConflictLow {
		t.Errorf("expected low conflict, got %s", resized.ConflictLevel)
	}
}
