package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dkaragan/tempo/internal/config"
	"github.com/dkaragan/tempo/internal/store"
)

// screen represents which view/mode the TUI is in.
type screen int

const (
	screenWeek   screen = iota // week calendar (main)
	screenCreate               // create new task popup
	screenMove                 // move selected block
	screenResize               // resize selected block
)

const numDays = 7

// Model is the top-level bubbletea model.
type Model struct {
	store *store.Store
	cfg   *config.Config

	width  int
	height int

	currentScreen screen

	// Week state.
	weekStart time.Time // Monday 00:00 of the displayed week
	days      [numDays][]store.TimeBlock
	titles    map[int64]string // taskID -> title
	cursorDay int
	cursorRow int

	// Unscheduled backlog, shown under the calendar.
	backlog []store.Task

	// Text inputs for popups.
	titleInput    textinput.Model
	estimateInput textinput.Model
	timeInput     textinput.Model
	inputFocused  int // which input has focus in create mode

	statusMsg string
	quitting  bool
}

// New creates a new TUI model showing the current week.
func New(s *store.Store, cfg *config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 120
	ti.Width = 40

	ei := textinput.New()
	ei.Placeholder = "2"
	ei.CharLimit = 6
	ei.Width = 8

	mi := textinput.New()
	mi.Placeholder = "2006-01-02 15:04"
	mi.CharLimit = 16
	mi.Width = 18

	now := time.Now()
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for weekStart.Weekday() != time.Monday {
		weekStart = weekStart.AddDate(0, 0, -1)
	}

	m := Model{
		store:         s,
		cfg:           cfg,
		weekStart:     weekStart,
		titles:        make(map[int64]string),
		titleInput:    ti,
		estimateInput: ei,
		timeInput:     mi,
		cursorDay:     int(now.Weekday()+6) % 7, // today's column
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// reload refreshes the week's blocks and the backlog from the store.
func (m *Model) reload() {
	blocks, err := m.store.ListBlocksInRange(m.weekStart, m.weekStart.AddDate(0, 0, numDays))
	if err != nil {
		m.statusMsg = "load blocks: " + err.Error()
		return
	}

	m.days = [numDays][]store.TimeBlock{}
	for _, b := range blocks {
		day := int(b.Start.Sub(m.weekStart).Hours() / 24)
		if day >= 0 && day < numDays {
			m.days[day] = append(m.days[day], b)
		}
		if _, ok := m.titles[b.TaskID]; !ok {
			if task, err := m.store.GetTask(b.TaskID); err == nil {
				m.titles[b.TaskID] = task.Title
			}
		}
	}

	backlog, err := m.store.ListUnscheduled()
	if err != nil {
		m.statusMsg = "load backlog: " + err.Error()
		return
	}
	m.backlog = backlog

	if m.cursorRow >= len(m.days[m.cursorDay]) {
		m.cursorRow = max(0, len(m.days[m.cursorDay])-1)
	}
}

// selectedBlock returns the block under the cursor, or nil.
func (m *Model) selectedBlock() *store.TimeBlock {
	blocks := m.days[m.cursorDay]
	if m.cursorRow < 0 || m.cursorRow >= len(blocks) {
		return nil
	}
	return &blocks[m.cursorRow]
}
