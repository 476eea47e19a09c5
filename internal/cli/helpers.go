package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkaragan/tempo/internal/config"
	"github.com/dkaragan/tempo/internal/schedule"
	"github.com/dkaragan/tempo/internal/store"
)

const tempoDirName = ".tempo"

// tempoPath returns the path to a file inside .tempo/.
func tempoPath(parts ...string) string {
	elems := append([]string{tempoDirName}, parts...)
	return filepath.Join(elems...)
}

// mustStore opens the store, returning an error if tempo is not initialized.
func mustStore() (*store.Store, error) {
	dbPath := tempoPath("tempo.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("tempo not initialized. Run: tempo init")
	}
	return store.New(dbPath)
}

// mustConfig loads the project config.
func mustConfig() (*config.Config, error) {
	cfgPath := tempoPath("config.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("tempo not initialized. Run: tempo init")
	}
	return config.Load(cfgPath)
}

// refreshConflicts recomputes conflict levels over all blocks in the
// range and writes them back to the display cache. Called after any
// block change so stored levels never go stale.
func refreshConflicts(s *store.Store, cfg *config.Config, from, to time.Time) error {
	blocks, err := s.ListBlocksInRange(from, to)
	if err != nil {
		return err
	}
	levels := schedule.DetectConflicts(blocks, cfg.Thresholds())
	return s.SetConflictLevels(levels)
}

// parseTimeArg parses a "2006-01-02 15:04" timestamp in local time.
func parseTimeArg(value string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (use \"2006-01-02 15:04\")", value)
	}
	return t, nil
}

// conflictBadge renders a colored marker for a conflict level.
func conflictBadge(level store.ConflictLevel) string {
	switch level {
	case store.ConflictLow:
		return colorYellow + "~" + colorReset
	case store.ConflictMedium:
		return colorMagenta + "!" + colorReset
	case store.ConflictHigh:
		return colorRed + "!!" + colorReset
	}
	return " "
}
