package cli

import (
	"fmt"
	"os"

	"github.com/dkaragan/tempo/internal/config"
	"github.com/dkaragan/tempo/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tempo in the current directory",
	Long:  "Creates a .tempo/ directory with default config and database.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check if already initialized.
	if _, err := os.Stat(tempoDirName); err == nil {
		return fmt.Errorf("tempo already initialized in this directory (.tempo/ exists)")
	}

	if err := os.MkdirAll(tempoDirName, 0755); err != nil {
		return fmt.Errorf("create .tempo: %w", err)
	}

	// Write default config.
	if err := config.Save(tempoPath("config.yaml"), config.Default()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// Create database by opening the store (migration runs automatically).
	s, err := store.New(tempoPath("tempo.db"))
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	s.Close()

	fmt.Println("Initialized tempo in .tempo/")
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit .tempo/config.yaml to match your working hours")
	fmt.Println("  2. Run: tempo task create \"your first task\"")
	fmt.Println("  3. Run: tempo plan")

	return nil
}
