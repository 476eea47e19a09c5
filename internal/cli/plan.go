package cli

import (
	"fmt"
	"time"

	"github.com/dkaragan/tempo/internal/schedule"
	"github.com/spf13/cobra"
)

var planDays int

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Auto-allocate unscheduled tasks into calendar blocks",
	Long: "Runs the weekly planner: scores the unscheduled backlog, walks the horizon\n" +
		"day by day starting tomorrow, and places each task into the earliest free\n" +
		"slot that fits. Tasks that fit nowhere are reported, not errors.",
	RunE: runPlan,
}

func init() {
	planCmd.Flags().IntVar(&planDays, "days", 7, "Planning horizon in days")
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := mustConfig()
	if err != nil {
		return err
	}

	tasks, err := s.ListUnscheduled()
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("Nothing to plan: backlog has no unscheduled open tasks.")
		return nil
	}

	now := time.Now()
	horizon := schedule.Horizon{Start: now, End: now.AddDate(0, 0, planDays)}

	existing, err := s.ListBlocksInRange(horizon.Start, horizon.End)
	if err != nil {
		return err
	}

	result, err := schedule.Plan(tasks, existing, cfg.SchedAvailability(), horizon, now, cfg.Weights(), cfg.Thresholds())
	if err != nil {
		return err
	}

	titles := make(map[int64]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}

	for _, b := range result.Placed {
		saved, err := s.CreateBlock(b)
		if err != nil {
			return fmt.Errorf("save block for task #%d: %w", b.TaskID, err)
		}
		fmt.Printf("  %s %s–%s  #%d %s\n",
			saved.Start.Format("Mon 2006-01-02"),
			saved.Start.Format("15:04"), saved.End.Format("15:04"),
			b.TaskID, titles[b.TaskID])
	}

	// Persist recomputed levels for pre-existing blocks too.
	if err := s.SetConflictLevels(result.Conflicts); err != nil {
		return err
	}

	fmt.Printf("\nPlaced %d of %d tasks.\n", len(result.Placed), len(tasks))
	if len(result.Skipped) > 0 {
		fmt.Println("Skipped (no free slot in horizon):")
		for _, id := range result.Skipped {
			fmt.Printf("  #%d %s\n", id, titles[id])
		}
		fmt.Println("Shrink estimates, widen the horizon with --days, or free up the calendar.")
	}
	return nil
}
