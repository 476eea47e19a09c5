package cli

import (
	"fmt"
	"time"

	"github.com/dkaragan/tempo/internal/store"
	"github.com/spf13/cobra"
)

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

var weekNext bool

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the week's calendar",
	RunE:  runWeek,
}

func init() {
	weekCmd.Flags().BoolVar(&weekNext, "next", false, "Show next week instead of this one")
}

func runWeek(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := mustConfig()
	if err != nil {
		return err
	}
	workDays := cfg.SchedAvailability().WorkDays

	// Monday of the requested week.
	now := time.Now()
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for weekStart.Weekday() != time.Monday {
		weekStart = weekStart.AddDate(0, 0, -1)
	}
	if weekNext {
		weekStart = weekStart.AddDate(0, 0, 7)
	}

	blocks, err := s.ListBlocksInRange(weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return err
	}

	titles := make(map[int64]string)
	byDay := make(map[string][]store.TimeBlock)
	for _, b := range blocks {
		byDay[b.Start.Format("2006-01-02")] = append(byDay[b.Start.Format("2006-01-02")], b)
		if _, ok := titles[b.TaskID]; !ok {
			if task, err := s.GetTask(b.TaskID); err == nil {
				titles[b.TaskID] = task.Title
			}
		}
	}

	fmt.Printf("%sWeek of %s%s\n\n", colorBold, weekStart.Format("2006-01-02"), colorReset)

	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		dayBlocks := byDay[day.Format("2006-01-02")]
		if !workDays[day.Weekday()] && len(dayBlocks) == 0 {
			continue
		}

		header := day.Format("Monday 01-02")
		if sameDate(day, now) {
			header += "  " + colorCyan + "(today)" + colorReset
		}
		fmt.Printf("%s%s%s\n", colorBold+colorBlue, header, colorReset)

		if len(dayBlocks) == 0 {
			fmt.Printf("  %s(free)%s\n", colorDim, colorReset)
			continue
		}
		for _, b := range dayBlocks {
			title := titles[b.TaskID]
			if title == "" {
				title = fmt.Sprintf("task #%d", b.TaskID)
			}
			status := ""
			if b.Status == store.BlockCompleted {
				status = colorGreen + " ✓" + colorReset
			}
			fmt.Printf("  %s %s–%s  b%-3d %s%s\n",
				conflictBadge(b.ConflictLevel),
				b.Start.Format("15:04"), b.End.Format("15:04"),
				b.ID, truncate(title, 48), status)
		}
	}

	// Conflict summary.
	var conflicted []store.TimeBlock
	for _, b := range blocks {
		if b.ConflictLevel != store.ConflictNone && b.ConflictLevel != "" {
			conflicted = append(conflicted, b)
		}
	}
	if len(conflicted) > 0 {
		fmt.Printf("\n%s%s⚠  %d block(s) in conflict%s, tempo move can clear them\n",
			colorBold, colorRed, len(conflicted), colorReset)
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
