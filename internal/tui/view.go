package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dkaragan/tempo/internal/store"
)

// --- Color palette ---
var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrMagenta   = lipgloss.AdaptiveColor{Light: "#9D174D", Dark: "#F472B6"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

// --- Styles ---
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	dimStyle    = lipgloss.NewStyle().Foreground(clrDim)
	subtleStyle = lipgloss.NewStyle().Foreground(clrSubtle)

	dayHeaderStyle = lipgloss.NewStyle().Bold(true).Width(20)
	todayStyle     = lipgloss.NewStyle().Bold(true).Width(20).Foreground(clrHighlight)

	dayColStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(clrSubtle).
			Width(20).
			PaddingRight(1)

	blockStyle         = lipgloss.NewStyle().Width(19)
	blockSelectedStyle = lipgloss.NewStyle().Width(19).Bold(true).Foreground(clrHighlight)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrHighlight).
			Padding(1, 2).
			Width(56)

	statusStyle = lipgloss.NewStyle().Foreground(clrGreen)

	footerKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	footerDescStyle = lipgloss.NewStyle().Foreground(clrSubtle)
)

func conflictStyle(level store.ConflictLevel) lipgloss.Style {
	switch level {
	case store.ConflictLow:
		return lipgloss.NewStyle().Foreground(clrYellow)
	case store.ConflictMedium:
		return lipgloss.NewStyle().Foreground(clrMagenta)
	case store.ConflictHigh:
		return lipgloss.NewStyle().Foreground(clrRed).Bold(true)
	}
	return lipgloss.NewStyle()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.currentScreen {
	case screenCreate:
		content = m.viewCreate()
	case screenMove:
		content = m.viewEdit("Move block: new start time")
	case screenResize:
		content = m.viewEdit("Resize block: new end time")
	default:
		content = m.viewWeek()
	}

	status := ""
	if m.statusMsg != "" {
		status = "\n" + statusStyle.Render(m.statusMsg)
	}
	return content + status + "\n" + m.footer()
}

func (m Model) viewWeek() string {
	header := titleStyle.Render("tempo / week of "+m.weekStart.Format("2006-01-02")) + "\n\n"

	today := time.Now()
	var cols []string
	for day := 0; day < numDays; day++ {
		date := m.weekStart.AddDate(0, 0, day)

		style := dayHeaderStyle
		if sameDate(date, today) {
			style = todayStyle
		}
		col := style.Render(date.Format("Mon 01-02")) + "\n"

		blocks := m.days[day]
		if len(blocks) == 0 {
			col += dimStyle.Render("—") + "\n"
		}
		for row, b := range blocks {
			line := fmt.Sprintf("%s–%s %s",
				b.Start.Format("15:04"), b.End.Format("15:04"),
				clip(m.titles[b.TaskID], 7))
			if b.ConflictLevel != store.ConflictNone && b.ConflictLevel != "" {
				line = conflictStyle(b.ConflictLevel).Render(line)
			}
			if day == m.cursorDay && row == m.cursorRow {
				col += blockSelectedStyle.Render("▸ "+line) + "\n"
			} else {
				col += blockStyle.Render("  "+line) + "\n"
			}
		}

		cols = append(cols, dayColStyle.Render(col))
	}
	calendar := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	backlog := "\n" + subtleStyle.Render("Backlog") + "\n"
	if len(m.backlog) == 0 {
		backlog += dimStyle.Render("  everything is scheduled") + "\n"
	}
	for i, t := range m.backlog {
		if i >= 5 {
			backlog += dimStyle.Render(fmt.Sprintf("  …and %d more", len(m.backlog)-i)) + "\n"
			break
		}
		backlog += fmt.Sprintf("  #%-3d %s (%.2gh)\n", t.ID, clip(t.Title, 40), t.EstimateHours)
	}

	return header + calendar + "\n" + backlog
}

func (m Model) viewCreate() string {
	body := titleStyle.Render("New task") + "\n\n" +
		"Title:    " + m.titleInput.View() + "\n" +
		"Estimate: " + m.estimateInput.View() + " hours\n\n" +
		subtleStyle.Render("tab: switch field • enter: create • esc: cancel")
	return popupStyle.Render(body)
}

func (m Model) viewEdit(label string) string {
	b := m.selectedBlock()
	current := ""
	if b != nil {
		current = fmt.Sprintf("%s  %s–%s\n\n",
			clip(m.titles[b.TaskID], 36),
			b.Start.Format("Mon 15:04"), b.End.Format("15:04"))
	}
	body := titleStyle.Render(label) + "\n\n" +
		current +
		m.timeInput.View() + "\n\n" +
		subtleStyle.Render("enter: apply • esc: cancel")
	return popupStyle.Render(body)
}

func (m Model) footer() string {
	keys := [][2]string{
		{"←→", "day"}, {"↑↓", "block"}, {"[ ]", "week"},
		{"p", "plan"}, {"n", "new task"}, {"m", "move"}, {"r", "resize"},
		{"c", "complete"}, {"x", "remove"}, {"q", "quit"},
	}
	var parts []string
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k[0])+" "+footerDescStyle.Render(k[1]))
	}
	return strings.Join(parts, footerDescStyle.Render("  "))
}

func clip(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return s[:maxLen]
	}
	return s[:maxLen-1] + "…"
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
