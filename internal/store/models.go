package store

import "time"

// TaskStatus represents the current state of a backlog task.
type TaskStatus string

const (
	StatusOpen       TaskStatus = "open"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusBlocked    TaskStatus = "blocked"
	StatusCancelled  TaskStatus = "cancelled"
)

// BlockStatus represents the state of a scheduled time block.
type BlockStatus string

const (
	BlockPlanned    BlockStatus = "planned"
	BlockInProgress BlockStatus = "in_progress"
	BlockCompleted  BlockStatus = "completed"
	BlockCancelled  BlockStatus = "cancelled"
)

// ConflictLevel classifies how badly a block overlaps its neighbours.
// It is derived from the block set, never authoritative: the stored
// value is a display cache and is recomputed whenever blocks change.
type ConflictLevel string

const (
	ConflictNone   ConflictLevel = "none"
	ConflictLow    ConflictLevel = "low"
	ConflictMedium ConflictLevel = "medium"
	ConflictHigh   ConflictLevel = "high"
)

// Task is a backlog item waiting to be scheduled onto the calendar.
type Task struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Status          TaskStatus `json:"status"`
	EstimateHours   float64    `json:"estimate_hours"` // defaults to 2 when unset
	DueAt           *time.Time `json:"due_at,omitempty"`
	KPIImpact       float64    `json:"kpi_impact"` // [0,1], defaults to 0.5 when unset
	RiskCount       int        `json:"risk_count"`
	DependencyCount int        `json:"dependency_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TimeBlock is a scheduled occupation of calendar time for exactly one task.
// A task may have zero or more blocks across re-plans. Version supports
// optimistic concurrency: updates must present the version they read.
type TimeBlock struct {
	ID            int64         `json:"id"`
	TaskID        int64         `json:"task_id"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	Status        BlockStatus   `json:"status"`
	ConflictLevel ConflictLevel `json:"conflict_level"`
	Version       int64         `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Duration returns the block's length.
func (b TimeBlock) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Event represents something that happened to a task or its blocks.
type Event struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	Type      string    `json:"event_type"` // created, planned, moved, resized, status_changed, cancelled
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
