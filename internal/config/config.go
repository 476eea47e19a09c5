package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dkaragan/tempo/internal/schedule"
)

// Config is the root configuration for a tempo project.
type Config struct {
	Version      int          `yaml:"version"`
	Availability Availability `yaml:"availability"`
	Scoring      Scoring      `yaml:"scoring"`
	Conflict     Conflict     `yaml:"conflict"`
}

// Availability describes the allowed scheduling universe.
type Availability struct {
	WorkDays        []string    `yaml:"work_days"`         // mon..sun
	WorkStartMinute int         `yaml:"work_start_minute"` // minutes from midnight
	WorkEndMinute   int         `yaml:"work_end_minute"`
	Exclusions      []Exclusion `yaml:"exclusions,omitempty"`
}

// Exclusion is a recurring daily never-schedulable interval, in minutes
// from midnight.
type Exclusion struct {
	StartMinute int `yaml:"start_minute"`
	EndMinute   int `yaml:"end_minute"`
}

// Scoring holds the priority-score weights and normalization constants.
// The weights must sum to 1.0.
type Scoring struct {
	KPIWeight        float64 `yaml:"kpi_weight"`
	UrgencyWeight    float64 `yaml:"urgency_weight"`
	EffortWeight     float64 `yaml:"effort_weight"`
	RiskWeight       float64 `yaml:"risk_weight"`
	DependencyWeight float64 `yaml:"dependency_weight"`
	DueHorizonDays   float64 `yaml:"due_horizon_days"`
	EffortCapHours   float64 `yaml:"effort_cap_hours"`
}

// Conflict holds the overlap-count thresholds for conflict levels.
type Conflict struct {
	LowOverlap    int `yaml:"low_overlap"`
	MediumOverlap int `yaml:"medium_overlap"`
	HighOverlap   int `yaml:"high_overlap"`
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Default returns the starter config: Mon–Fri 09:00–18:00 with lunch
// (12:30–14:00) and evening (17:30–19:00) exclusions, the stock
// scoring weights, and 1/2/3 conflict thresholds.
func Default() *Config {
	return &Config{
		Version: 1,
		Availability: Availability{
			WorkDays:        []string{"mon", "tue", "wed", "thu", "fri"},
			WorkStartMinute: 9 * 60,
			WorkEndMinute:   18 * 60,
			Exclusions: []Exclusion{
				{StartMinute: 12*60 + 30, EndMinute: 14 * 60},
				{StartMinute: 17*60 + 30, EndMinute: 19 * 60},
			},
		},
		Scoring: Scoring{
			KPIWeight:        0.30,
			UrgencyWeight:    0.25,
			EffortWeight:     0.20,
			RiskWeight:       0.15,
			DependencyWeight: 0.10,
			DueHorizonDays:   30,
			EffortCapHours:   40,
		},
		Conflict: Conflict{
			LowOverlap:    1,
			MediumOverlap: 2,
			HighOverlap:   3,
		},
	}
}

func (c *Config) validate() error {
	a := c.Availability
	if len(a.WorkDays) == 0 {
		return fmt.Errorf("availability: at least one work day is required")
	}
	for _, d := range a.WorkDays {
		if _, ok := weekdayNames[d]; !ok {
			return fmt.Errorf("availability: unknown work day %q (use mon..sun)", d)
		}
	}
	if a.WorkStartMinute < 0 || a.WorkEndMinute > 24*60 || a.WorkStartMinute >= a.WorkEndMinute {
		return fmt.Errorf("availability: work hours must satisfy 0 <= start < end <= 1440, got %d..%d",
			a.WorkStartMinute, a.WorkEndMinute)
	}
	for i, ex := range a.Exclusions {
		if ex.StartMinute < 0 || ex.EndMinute > 24*60 || ex.StartMinute >= ex.EndMinute {
			return fmt.Errorf("availability: exclusion %d must satisfy 0 <= start < end <= 1440, got %d..%d",
				i, ex.StartMinute, ex.EndMinute)
		}
		for j, other := range a.Exclusions[:i] {
			if ex.StartMinute < other.EndMinute && other.StartMinute < ex.EndMinute {
				return fmt.Errorf("availability: exclusions %d and %d overlap", j, i)
			}
		}
	}

	s := c.Scoring
	sum := s.KPIWeight + s.UrgencyWeight + s.EffortWeight + s.RiskWeight + s.DependencyWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring: weights must sum to 1.0, got %g", sum)
	}
	if s.DueHorizonDays <= 0 {
		return fmt.Errorf("scoring: due_horizon_days must be positive, got %g", s.DueHorizonDays)
	}
	if s.EffortCapHours <= 0 {
		return fmt.Errorf("scoring: effort_cap_hours must be positive, got %g", s.EffortCapHours)
	}

	t := c.Conflict
	if t.LowOverlap < 1 || t.MediumOverlap < t.LowOverlap || t.HighOverlap < t.MediumOverlap {
		return fmt.Errorf("conflict: thresholds must satisfy 1 <= low <= medium <= high, got %d/%d/%d",
			t.LowOverlap, t.MediumOverlap, t.HighOverlap)
	}

	return nil
}

// SchedAvailability converts the config into the engine's runtime
// availability model.
func (c *Config) SchedAvailability() schedule.Availability {
	days := make(map[time.Weekday]bool, len(c.Availability.WorkDays))
	for _, d := range c.Availability.WorkDays {
		days[weekdayNames[d]] = true
	}
	exclusions := make([]schedule.MinuteSpan, len(c.Availability.Exclusions))
	for i, ex := range c.Availability.Exclusions {
		exclusions[i] = schedule.MinuteSpan{Start: ex.StartMinute, End: ex.EndMinute}
	}
	return schedule.Availability{
		WorkDays:   days,
		WorkStart:  c.Availability.WorkStartMinute,
		WorkEnd:    c.Availability.WorkEndMinute,
		Exclusions: exclusions,
	}
}

// Weights converts the scoring section into engine weights.
func (c *Config) Weights() schedule.Weights {
	return schedule.Weights{
		KPIImpact:      c.Scoring.KPIWeight,
		Urgency:        c.Scoring.UrgencyWeight,
		Effort:         c.Scoring.EffortWeight,
		Risk:           c.Scoring.RiskWeight,
		Dependency:     c.Scoring.DependencyWeight,
		DueHorizonDays: c.Scoring.DueHorizonDays,
		EffortCapHours: c.Scoring.EffortCapHours,
	}
}

// Thresholds converts the conflict section into engine thresholds.
func (c *Config) Thresholds() schedule.Thresholds {
	return schedule.Thresholds{
		Low:    c.Conflict.LowOverlap,
		Medium: c.Conflict.MediumOverlap,
		High:   c.Conflict.HighOverlap,
	}
}
