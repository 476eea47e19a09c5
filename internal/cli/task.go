package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dkaragan/tempo/internal/schedule"
	"github.com/dkaragan/tempo/internal/store"
	"github.com/spf13/cobra"
)

var (
	taskDescription string
	taskEstimate    float64
	taskDue         string
	taskKPI         float64
	taskRisks       int
	taskDeps        int
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create or manage backlog tasks",
	Long:  "Create a new task or manage existing ones in the backlog.",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskCreate,
}

var taskListCmd = &cobra.Command{
	Use:   "list [status]",
	Short: "List tasks by priority, optionally filtered by status",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Mark a task as done",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a task so the planner skips it",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCancel,
}

var taskEstimateCmd = &cobra.Command{
	Use:   "estimate [id] [hours]",
	Short: "Change a task's estimate in hours",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskEstimate,
}

var taskDueCmd = &cobra.Command{
	Use:   "due [id] [date]",
	Short: "Set a task's due date (YYYY-MM-DD), or '-' to clear it",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskDue,
}

func init() {
	taskCreateCmd.Flags().StringVarP(&taskDescription, "desc", "d", "", "Task description")
	taskCreateCmd.Flags().Float64VarP(&taskEstimate, "estimate", "e", 2, "Estimate in hours")
	taskCreateCmd.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD)")
	taskCreateCmd.Flags().Float64Var(&taskKPI, "kpi", 0.5, "KPI impact in [0,1]")
	taskCreateCmd.Flags().IntVar(&taskRisks, "risks", 0, "Number of declared risk flags")
	taskCreateCmd.Flags().IntVar(&taskDeps, "deps", 0, "Number of tasks depending on this one")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskCancelCmd)
	taskCmd.AddCommand(taskEstimateCmd)
	taskCmd.AddCommand(taskDueCmd)
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	t := store.Task{
		Title:           strings.Join(args, " "),
		Description:     taskDescription,
		EstimateHours:   taskEstimate,
		KPIImpact:       taskKPI,
		RiskCount:       taskRisks,
		DependencyCount: taskDeps,
	}
	if taskDue != "" {
		due, err := time.ParseInLocation("2006-01-02", taskDue, time.Local)
		if err != nil {
			return fmt.Errorf("invalid due date %q (use YYYY-MM-DD)", taskDue)
		}
		t.DueAt = &due
	}

	task, err := s.CreateTask(t)
	if err != nil {
		return err
	}

	fmt.Printf("Created task #%d: %s (%.2gh)\n", task.ID, task.Title, task.EstimateHours)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := mustConfig()
	if err != nil {
		return err
	}

	status := ""
	if len(args) > 0 {
		status = args[0]
	}

	tasks, err := s.ListTasks(status)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	for _, st := range schedule.Rank(tasks, cfg.Weights(), time.Now()) {
		t := st.Task
		due := ""
		if t.DueAt != nil {
			due = " due " + t.DueAt.Format("2006-01-02")
		}
		fmt.Printf("#%-4d %6.2f %-12s %4.2gh %s%s\n", t.ID, st.Score, t.Status, t.EstimateHours, t.Title, due)
	}
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("invalid task ID: %s", args[0])
	}

	task, err := s.GetTask(id)
	if err != nil {
		return err
	}

	fmt.Printf("Task #%d\n", task.ID)
	fmt.Printf("  Title:    %s\n", task.Title)
	fmt.Printf("  Status:   %s\n", task.Status)
	fmt.Printf("  Estimate: %.2gh\n", task.EstimateHours)
	fmt.Printf("  Priority: %.2f\n", schedule.Score(*task, cfg.Weights(), time.Now()))
	if task.Description != "" {
		fmt.Printf("  Desc:     %s\n", task.Description)
	}
	if task.DueAt != nil {
		fmt.Printf("  Due:      %s\n", task.DueAt.Format("2006-01-02"))
	}
	fmt.Printf("  KPI:      %.2g  Risks: %d  Dependants: %d\n", task.KPIImpact, task.RiskCount, task.DependencyCount)
	fmt.Printf("  Created:  %s\n", task.CreatedAt.Format("2006-01-02 15:04"))

	events, err := s.GetEvents(id)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		fmt.Println("\n  Events:")
		for _, e := range events {
			fmt.Printf("    %s %s: %s\n", e.Timestamp.Format("01-02 15:04"), e.Type, e.Content)
		}
	}

	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	return setTaskStatus(args[0], store.StatusDone, "done")
}

func runTaskCancel(cmd *cobra.Command, args []string) error {
	return setTaskStatus(args[0], store.StatusCancelled, "cancelled")
}

func setTaskStatus(arg string, status store.TaskStatus, label string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task ID: %s", arg)
	}

	if err := s.UpdateTaskStatus(id, status); err != nil {
		return err
	}
	fmt.Printf("Task #%d marked as %s\n", id, label)
	return nil
}

func runTaskEstimate(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task ID: %s", args[0])
	}
	hours, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid estimate: %s", args[1])
	}

	if err := s.UpdateTaskEstimate(id, hours); err != nil {
		return err
	}
	fmt.Printf("Task #%d estimate set to %.2gh\n", id, hours)
	return nil
}

func runTaskDue(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task ID: %s", args[0])
	}

	if args[1] == "-" {
		if err := s.UpdateTaskDue(id, nil); err != nil {
			return err
		}
		fmt.Printf("Task #%d due date cleared\n", id)
		return nil
	}

	due, err := time.ParseInLocation("2006-01-02", args[1], time.Local)
	if err != nil {
		return fmt.Errorf("invalid due date %q (use YYYY-MM-DD)", args[1])
	}
	if err := s.UpdateTaskDue(id, &due); err != nil {
		return err
	}
	fmt.Printf("Task #%d due %s\n", id, due.Format("2006-01-02"))
	return nil
}
