package tui

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dkaragan/tempo/internal/schedule"
	"github.com/dkaragan/tempo/internal/store"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.currentScreen {
		case screenWeek:
			return m.updateWeek(msg)
		case screenCreate:
			return m.updateCreate(msg)
		case screenMove, screenResize:
			return m.updateEdit(msg)
		}
	}
	return m, nil
}

func (m Model) updateWeek(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "left", "h":
		if m.cursorDay > 0 {
			m.cursorDay--
			m.clampCursor()
		}
	case "right", "l":
		if m.cursorDay < numDays-1 {
			m.cursorDay++
			m.clampCursor()
		}
	case "up", "k":
		if m.cursorRow > 0 {
			m.cursorRow--
		}
	case "down", "j":
		if m.cursorRow < len(m.days[m.cursorDay])-1 {
			m.cursorRow++
		}

	case "[":
		m.weekStart = m.weekStart.AddDate(0, 0, -7)
		m.reload()
	case "]":
		m.weekStart = m.weekStart.AddDate(0, 0, 7)
		m.reload()

	case "p":
		m.runPlanner()

	case "n":
		m.currentScreen = screenCreate
		m.titleInput.SetValue("")
		m.estimateInput.SetValue("")
		m.inputFocused = 0
		m.titleInput.Focus()
		m.estimateInput.Blur()
		return m, nil

	case "m":
		if b := m.selectedBlock(); b != nil {
			m.currentScreen = screenMove
			m.timeInput.SetValue(b.Start.Format("2006-01-02 15:04"))
			m.timeInput.Focus()
		}
		return m, nil

	case "r":
		if b := m.selectedBlock(); b != nil {
			m.currentScreen = screenResize
			m.timeInput.SetValue(b.End.Format("2006-01-02 15:04"))
			m.timeInput.Focus()
		}
		return m, nil

	case "x":
		if b := m.selectedBlock(); b != nil {
			if err := m.store.DeleteBlock(b.ID); err != nil {
				m.statusMsg = err.Error()
			} else {
				m.store.AddEvent(b.TaskID, "unplanned", "Block removed")
				m.refreshWeekConflicts()
				m.statusMsg = fmt.Sprintf("Removed block b%d", b.ID)
				m.reload()
			}
		}

	case "c":
		if b := m.selectedBlock(); b != nil {
			status := store.BlockCompleted
			if _, err := m.store.UpdateBlock(b.ID, b.Version, store.BlockPatch{Status: &status}); err != nil {
				m.statusMsg = err.Error()
			} else {
				m.statusMsg = fmt.Sprintf("Block b%d completed", b.ID)
				m.reload()
			}
		}
	}
	return m, nil
}

func (m Model) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.currentScreen = screenWeek
		return m, nil

	case "tab":
		m.inputFocused = (m.inputFocused + 1) % 2
		if m.inputFocused == 0 {
			m.titleInput.Focus()
			m.estimateInput.Blur()
		} else {
			m.titleInput.Blur()
			m.estimateInput.Focus()
		}
		return m, nil

	case "enter":
		title := m.titleInput.Value()
		if title == "" {
			m.statusMsg = "Title is required"
			return m, nil
		}
		estimate := 0.0
		if v := m.estimateInput.Value(); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				m.statusMsg = "Invalid estimate"
				return m, nil
			}
			estimate = parsed
		}
		task, err := m.store.CreateTask(store.Task{Title: title, EstimateHours: estimate})
		if err != nil {
			m.statusMsg = err.Error()
		} else {
			m.statusMsg = fmt.Sprintf("Created task #%d", task.ID)
		}
		m.currentScreen = screenWeek
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	if m.inputFocused == 0 {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.estimateInput, cmd = m.estimateInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.currentScreen = screenWeek
		return m, nil

	case "enter":
		block := m.selectedBlock()
		if block == nil {
			m.currentScreen = screenWeek
			return m, nil
		}
		target, err := time.ParseInLocation("2006-01-02 15:04", m.timeInput.Value(), time.Local)
		if err != nil {
			m.statusMsg = "Use the 2006-01-02 15:04 format"
			return m, nil
		}
		m.applyEdit(*block, target)
		m.currentScreen = screenWeek
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	m.timeInput, cmd = m.timeInput.Update(msg)
	return m, cmd
}

// applyEdit validates and commits a move or resize of the given block.
func (m *Model) applyEdit(block store.TimeBlock, target time.Time) {
	snapshot, err := m.store.ListBlocksInRange(m.weekStart.AddDate(0, 0, -7), m.weekStart.AddDate(0, 0, 14))
	if err != nil {
		m.statusMsg = err.Error()
		return
	}

	avail := m.cfg.SchedAvailability()
	th := m.cfg.Thresholds()

	var updated store.TimeBlock
	if m.currentScreen == screenMove {
		updated, err = schedule.Move(block, target, snapshot, avail, th)
	} else {
		updated, err = schedule.Resize(block, target, snapshot, avail, th)
	}
	if err != nil {
		m.statusMsg = err.Error()
		return
	}

	_, err = m.store.UpdateBlock(block.ID, block.Version, store.BlockPatch{
		Start:         &updated.Start,
		End:           &updated.End,
		ConflictLevel: &updated.ConflictLevel,
	})
	if err != nil {
		if errors.Is(err, store.ErrStaleSnapshot) {
			m.statusMsg = "Block changed underneath you, try again"
		} else {
			m.statusMsg = err.Error()
		}
		return
	}

	m.refreshWeekConflicts()
	if updated.ConflictLevel != store.ConflictNone {
		m.statusMsg = fmt.Sprintf("Saved with %s conflict", updated.ConflictLevel)
	} else {
		m.statusMsg = "Saved"
	}
}

// runPlanner executes a weekly planning run and persists the result.
func (m *Model) runPlanner() {
	tasks, err := m.store.ListUnscheduled()
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	if len(tasks) == 0 {
		m.statusMsg = "Backlog has no unscheduled tasks"
		return
	}

	now := time.Now()
	horizon := schedule.Horizon{Start: now, End: now.AddDate(0, 0, 7)}
	existing, err := m.store.ListBlocksInRange(horizon.Start, horizon.End)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}

	result, err := schedule.Plan(tasks, existing, m.cfg.SchedAvailability(), horizon, now,
		m.cfg.Weights(), m.cfg.Thresholds())
	if err != nil {
		m.statusMsg = err.Error()
		return
	}

	for _, b := range result.Placed {
		if _, err := m.store.CreateBlock(b); err != nil {
			m.statusMsg = err.Error()
			return
		}
	}
	if err := m.store.SetConflictLevels(result.Conflicts); err != nil {
		m.statusMsg = err.Error()
		return
	}

	m.statusMsg = fmt.Sprintf("Placed %d task(s), skipped %d", len(result.Placed), len(result.Skipped))
	m.reload()
}

// refreshWeekConflicts recomputes conflict levels around the displayed week.
func (m *Model) refreshWeekConflicts() {
	from := m.weekStart.AddDate(0, 0, -7)
	to := m.weekStart.AddDate(0, 0, 14)
	blocks, err := m.store.ListBlocksInRange(from, to)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	levels := schedule.DetectConflicts(blocks, m.cfg.Thresholds())
	if err := m.store.SetConflictLevels(levels); err != nil {
		m.statusMsg = err.Error()
	}
}

func (m *Model) clampCursor() {
	if m.cursorRow >= len(m.days[m.cursorDay]) {
		m.cursorRow = max(0, len(m.days[m.cursorDay])-1)
	}
}
