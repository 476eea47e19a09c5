package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dkaragan/tempo/internal/schedule"
	"github.com/dkaragan/tempo/internal/store"
	"github.com/spf13/cobra"
)

var blocksDays int

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "List scheduled blocks",
	RunE:  runBlocks,
}

var moveCmd = &cobra.Command{
	Use:   "move [blockID] [\"YYYY-MM-DD HH:MM\"]",
	Short: "Move a block to a new start time",
	Long: "Relocates a block, keeping its duration. The target must be inside\n" +
		"working hours; overlapping another block is allowed and reported.",
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

var resizeCmd = &cobra.Command{
	Use:   "resize [blockID] [\"YYYY-MM-DD HH:MM\"]",
	Short: "Change a block's end time",
	Args:  cobra.ExactArgs(2),
	RunE:  runResize,
}

var blocksRmCmd = &cobra.Command{
	Use:   "rm [blockID]",
	Short: "Remove a block (the task returns to the unscheduled backlog)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlockRm,
}

func init() {
	blocksCmd.Flags().IntVar(&blocksDays, "days", 7, "How many days ahead to list")
	blocksCmd.AddCommand(blocksRmCmd)
}

func runBlocks(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	blocks, err := s.ListBlocksInRange(from, from.AddDate(0, 0, blocksDays))
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		fmt.Println("No blocks scheduled. Run: tempo plan")
		return nil
	}

	lastDay := ""
	for _, b := range blocks {
		day := b.Start.Format("Mon 2006-01-02")
		if day != lastDay {
			fmt.Printf("%s%s%s\n", colorBold, day, colorReset)
			lastDay = day
		}
		task, err := s.GetTask(b.TaskID)
		title := fmt.Sprintf("task #%d", b.TaskID)
		if err == nil {
			title = task.Title
		}
		fmt.Printf("  %s %s–%s  b%-3d %s (v%d)\n",
			conflictBadge(b.ConflictLevel),
			b.Start.Format("15:04"), b.End.Format("15:04"),
			b.ID, title, b.Version)
	}
	return nil
}

// editWindow returns a snapshot range wide enough to revalidate an edit
// that may land a week away from the block's current position.
func editWindow(around time.Time) (time.Time, time.Time) {
	day := time.Date(around.Year(), around.Month(), around.Day(), 0, 0, 0, 0, around.Location())
	return day.AddDate(0, 0, -7), day.AddDate(0, 0, 8)
}

func runMove(cmd *cobra.Command, args []string) error {
	newStart, err := parseTimeArg(args[1])
	if err != nil {
		return err
	}
	return applyEdit(args[0], func(b store.TimeBlock, snapshot []store.TimeBlock, avail schedule.Availability, th schedule.Thresholds) (store.TimeBlock, error) {
		return schedule.Move(b, newStart, snapshot, avail, th)
	}, "moved")
}

func runResize(cmd *cobra.Command, args []string) error {
	newEnd, err := parseTimeArg(args[1])
	if err != nil {
		return err
	}
	return applyEdit(args[0], func(b store.TimeBlock, snapshot []store.TimeBlock, avail schedule.Availability, th schedule.Thresholds) (store.TimeBlock, error) {
		return schedule.Resize(b, newEnd, snapshot, avail, th)
	}, "resized")
}

// applyEdit runs a block mutation against a fresh snapshot and commits
// it with optimistic concurrency.
func applyEdit(idArg string, edit func(store.TimeBlock, []store.TimeBlock, schedule.Availability, schedule.Thresholds) (store.TimeBlock, error), verb string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := mustConfig()
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid block ID: %s", idArg)
	}

	block, err := s.GetBlock(id)
	if err != nil {
		return fmt.Errorf("block b%d not found", id)
	}

	from, to := editWindow(block.Start)
	snapshot, err := s.ListBlocksInRange(from, to)
	if err != nil {
		return err
	}

	updated, err := edit(*block, snapshot, cfg.SchedAvailability(), cfg.Thresholds())
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrOutOfAvailability):
			return fmt.Errorf("can't %s block b%d: %w", verb[:len(verb)-1], id, err)
		case errors.Is(err, schedule.ErrDurationTooShort):
			return fmt.Errorf("can't resize block b%d: %w", id, err)
		}
		return err
	}

	patch := store.BlockPatch{
		Start:         &updated.Start,
		End:           &updated.End,
		ConflictLevel: &updated.ConflictLevel,
	}
	saved, err := s.UpdateBlock(block.ID, block.Version, patch)
	if err != nil {
		if errors.Is(err, store.ErrStaleSnapshot) {
			return fmt.Errorf("block b%d changed while editing, re-run the command", id)
		}
		return err
	}
	s.AddEvent(saved.TaskID, verb, fmt.Sprintf("Block %s to %s–%s", verb,
		saved.Start.Format("2006-01-02 15:04"), saved.End.Format("15:04")))

	// Neighbours' conflict levels shift too; refresh the whole window.
	editFrom, editTo := editWindow(updated.Start)
	if editFrom.After(from) {
		editFrom = from
	}
	if editTo.Before(to) {
		editTo = to
	}
	if err := refreshConflicts(s, cfg, editFrom, editTo); err != nil {
		return err
	}

	fmt.Printf("Block b%d %s: %s %s–%s\n", saved.ID, verb,
		saved.Start.Format("Mon 2006-01-02"),
		saved.Start.Format("15:04"), saved.End.Format("15:04"))
	if updated.ConflictLevel != store.ConflictNone {
		fmt.Printf("%sWarning:%s overlaps another block (conflict: %s). Schedule kept.\n",
			colorYellow, colorReset, updated.ConflictLevel)
	}
	return nil
}

func runBlockRm(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := mustConfig()
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid block ID: %s", args[0])
	}

	block, err := s.GetBlock(id)
	if err != nil {
		return fmt.Errorf("block b%d not found", id)
	}
	if err := s.DeleteBlock(id); err != nil {
		return err
	}
	s.AddEvent(block.TaskID, "unplanned", "Block removed")

	from, to := editWindow(block.Start)
	if err := refreshConflicts(s, cfg, from, to); err != nil {
		return err
	}

	fmt.Printf("Removed block b%d (task #%d back in backlog)\n", id, block.TaskID)
	return nil
}
