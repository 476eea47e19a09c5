package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStaleSnapshot is returned by UpdateBlock when the presented version
// no longer matches the stored one: another write landed since the caller
// read its snapshot. The caller must re-read and recompute, never merge.
var ErrStaleSnapshot = errors.New("block was modified since it was read")

// Store provides access to the tempo database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		title            TEXT NOT NULL,
		description      TEXT DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'open',
		estimate_hours   REAL NOT NULL DEFAULT 2,
		due_at           DATETIME,
		kpi_impact       REAL NOT NULL DEFAULT 0.5,
		risk_count       INTEGER NOT NULL DEFAULT 0,
		dependency_count INTEGER NOT NULL DEFAULT 0,
		created_at       DATETIME NOT NULL,
		updated_at       DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS blocks (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id        INTEGER NOT NULL REFERENCES tasks(id),
		start_at       DATETIME NOT NULL,
		end_at         DATETIME NOT NULL,
		status         TEXT NOT NULL DEFAULT 'planned',
		conflict_level TEXT NOT NULL DEFAULT 'none',
		version        INTEGER NOT NULL DEFAULT 1,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     INTEGER NOT NULL REFERENCES tasks(id),
		event_type  TEXT NOT NULL,
		content     TEXT DEFAULT '',
		timestamp   DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateTask inserts a new task and returns it with the generated ID.
// Zero EstimateHours and KPIImpact are replaced with their defaults
// (2 hours, 0.5 impact).
func (s *Store) CreateTask(t Task) (*Task, error) {
	now := time.Now().UTC()
	if t.Status == "" {
		t.Status = StatusOpen
	}
	if t.EstimateHours <= 0 {
		t.EstimateHours = 2
	}
	if t.KPIImpact <= 0 {
		t.KPIImpact = 0.5
	}
	if t.KPIImpact > 1 {
		t.KPIImpact = 1
	}

	res, err := s.db.Exec(
		`INSERT INTO tasks (title, description, status, estimate_hours, due_at, kpi_impact, risk_count, dependency_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, string(t.Status), t.EstimateHours, t.DueAt,
		t.KPIImpact, t.RiskCount, t.DependencyCount, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	t.ID, _ = res.LastInsertId()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.AddEvent(t.ID, "created", fmt.Sprintf("Task created: %s", t.Title))
	return &t, nil
}

// taskColumns is the standard column list for task queries.
const taskColumns = `id, title, description, status, estimate_hours, due_at, kpi_impact, risk_count, dependency_count, created_at, updated_at`

// GetTask returns a single task by ID.
func (s *Store) GetTask(id int64) (*Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	var t Task
	var dueAt sql.NullTime
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.EstimateHours,
		&dueAt, &t.KPIImpact, &t.RiskCount, &t.DependencyCount,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if dueAt.Valid {
		t.DueAt = &dueAt.Time
	}
	return &t, nil
}

// ListTasks returns all tasks, optionally filtered by status.
func (s *Store) ListTasks(status string) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	return s.queryTasks(query, args...)
}

// ListUnscheduled returns open tasks that have no planned or in-progress
// block. These are the allocator's input queue.
func (s *Store) ListUnscheduled() ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
		WHERE t.status = ?
		AND NOT EXISTS (
			SELECT 1 FROM blocks b
			WHERE b.task_id = t.id AND b.status IN (?, ?)
		)
		ORDER BY t.id`
	return s.queryTasks(query, string(StatusOpen), string(BlockPlanned), string(BlockInProgress))
}

// queryTasks is a shared helper for running task-list queries.
func (s *Store) queryTasks(query string, args ...any) ([]Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var dueAt sql.NullTime
		err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Status, &t.EstimateHours,
			&dueAt, &t.KPIImpact, &t.RiskCount, &t.DependencyCount,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if dueAt.Valid {
			t.DueAt = &dueAt.Time
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus changes the status of a task.
func (s *Store) UpdateTaskStatus(id int64, status TaskStatus) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now, id,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	s.AddEvent(id, "status_changed", fmt.Sprintf("Status changed to %s", status))
	return nil
}

// UpdateTaskEstimate changes a task's estimate in hours.
func (s *Store) UpdateTaskEstimate(id int64, hours float64) error {
	if hours <= 0 {
		return fmt.Errorf("estimate must be positive, got %g", hours)
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE tasks SET estimate_hours = ?, updated_at = ? WHERE id = ?`,
		hours, now, id,
	)
	if err != nil {
		return fmt.Errorf("update task estimate: %w", err)
	}
	return nil
}

// UpdateTaskDue changes (or clears) a task's due date.
func (s *Store) UpdateTaskDue(id int64, due *time.Time) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE tasks SET due_at = ?, updated_at = ? WHERE id = ?`,
		due, now, id,
	)
	if err != nil {
		return fmt.Errorf("update task due date: %w", err)
	}
	return nil
}

// --- Blocks ---

// blockColumns is the standard column list for block queries.
const blockColumns = `id, task_id, start_at, end_at, status, conflict_level, version, created_at, updated_at`

// CreateBlock inserts a new time block for a task.
func (s *Store) CreateBlock(b TimeBlock) (*TimeBlock, error) {
	if !b.End.After(b.Start) {
		return nil, fmt.Errorf("block end %s must be after start %s", b.End, b.Start)
	}
	now := time.Now().UTC()
	if b.Status == "" {
		b.Status = BlockPlanned
	}
	if b.ConflictLevel == "" {
		b.ConflictLevel = ConflictNone
	}

	res, err := s.db.Exec(
		`INSERT INTO blocks (task_id, start_at, end_at, status, conflict_level, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		b.TaskID, b.Start.UTC(), b.End.UTC(), string(b.Status), string(b.ConflictLevel), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert block: %w", err)
	}

	b.ID, _ = res.LastInsertId()
	b.Version = 1
	b.CreatedAt = now
	b.UpdatedAt = now
	s.AddEvent(b.TaskID, "planned", fmt.Sprintf("Scheduled %s – %s",
		b.Start.Format("2006-01-02 15:04"), b.End.Format("15:04")))
	return &b, nil
}

// GetBlock returns a single block by ID.
func (s *Store) GetBlock(id int64) (*TimeBlock, error) {
	row := s.db.QueryRow(`SELECT `+blockColumns+` FROM blocks WHERE id = ?`, id)
	var b TimeBlock
	err := row.Scan(
		&b.ID, &b.TaskID, &b.Start, &b.End, &b.Status, &b.ConflictLevel,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan block: %w", err)
	}
	return &b, nil
}

// ListBlocksInRange returns all non-cancelled blocks overlapping
// [start, end), ordered by start time.
func (s *Store) ListBlocksInRange(start, end time.Time) ([]TimeBlock, error) {
	rows, err := s.db.Query(
		`SELECT `+blockColumns+` FROM blocks
		 WHERE start_at < ? AND end_at > ? AND status != ?
		 ORDER BY start_at`,
		end.UTC(), start.UTC(), string(BlockCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []TimeBlock
	for rows.Next() {
		var b TimeBlock
		err := rows.Scan(
			&b.ID, &b.TaskID, &b.Start, &b.End, &b.Status, &b.ConflictLevel,
			&b.Version, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// BlockPatch describes the fields UpdateBlock may change. Nil fields are
// left untouched.
type BlockPatch struct {
	Start         *time.Time
	End           *time.Time
	Status        *BlockStatus
	ConflictLevel *ConflictLevel
}

// UpdateBlock applies a patch to a block using optimistic concurrency:
// the write succeeds only if the stored version still equals the version
// the caller read. On a version mismatch it returns ErrStaleSnapshot and
// the caller must re-read, recompute, and retry.
func (s *Store) UpdateBlock(id, version int64, patch BlockPatch) (*TimeBlock, error) {
	now := time.Now().UTC()

	query := `UPDATE blocks SET version = version + 1, updated_at = ?`
	args := []any{now}
	if patch.Start != nil {
		query += `, start_at = ?`
		args = append(args, patch.Start.UTC())
	}
	if patch.End != nil {
		query += `, end_at = ?`
		args = append(args, patch.End.UTC())
	}
	if patch.Status != nil {
		query += `, status = ?`
		args = append(args, string(*patch.Status))
	}
	if patch.ConflictLevel != nil {
		query += `, conflict_level = ?`
		args = append(args, string(*patch.ConflictLevel))
	}
	query += ` WHERE id = ? AND version = ?`
	args = append(args, id, version)

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Either the block is gone or the version moved underneath us.
		if _, err := s.GetBlock(id); err != nil {
			return nil, fmt.Errorf("block #%d not found", id)
		}
		return nil, ErrStaleSnapshot
	}

	return s.GetBlock(id)
}

// SetConflictLevels writes recomputed conflict levels for a set of blocks.
// Conflict level is derived display data, so this does not bump versions.
func (s *Store) SetConflictLevels(levels map[int64]ConflictLevel) error {
	for id, level := range levels {
		_, err := s.db.Exec(
			`UPDATE blocks SET conflict_level = ? WHERE id = ?`,
			string(level), id,
		)
		if err != nil {
			return fmt.Errorf("set conflict level for block #%d: %w", id, err)
		}
	}
	return nil
}

// DeleteBlock removes a block.
func (s *Store) DeleteBlock(id int64) error {
	_, err := s.db.Exec(`DELETE FROM blocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

// --- Events ---

// AddEvent records an event for a task.
func (s *Store) AddEvent(taskID int64, eventType, content string) {
	now := time.Now().UTC()
	s.db.Exec(
		`INSERT INTO events (task_id, event_type, content, timestamp) VALUES (?, ?, ?, ?)`,
		taskID, eventType, content, now,
	)
}

// GetEvents returns all events for a task.
func (s *Store) GetEvents(taskID int64) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, event_type, content, timestamp FROM events WHERE task_id = ? ORDER BY timestamp, id`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Type, &e.Content, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
