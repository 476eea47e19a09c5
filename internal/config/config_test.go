package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Availability.WorkStartMinute != 540 || cfg.Availability.WorkEndMinute != 1080 {
		t.Errorf("expected 540..1080 work window, got %d..%d",
			cfg.Availability.WorkStartMinute, cfg.Availability.WorkEndMinute)
	}
	if len(cfg.Availability.Exclusions) != 2 {
		t.Errorf("expected 2 exclusions, got %d", len(cfg.Availability.Exclusions))
	}
	if cfg.Scoring.KPIWeight != 0.30 {
		t.Errorf("expected kpi weight 0.30, got %g", cfg.Scoring.KPIWeight)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "availability: [not a map")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate_UnknownWorkDay(t *testing.T) {
	cfg := Default()
	cfg.Availability.WorkDays = []string{"monday"}
	err := cfg.validate()
	if err == nil || !strings.Contains(err.Error(), "unknown work day") {
		t.Fatalf("expected unknown work day error, got %v", err)
	}
}

func TestValidate_NoWorkDays(t *testing.T) {
	cfg := Default()
	cfg.Availability.WorkDays = nil
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for empty work days")
	}
}

func TestValidate_InvertedWorkHours(t *testing.T) {
	cfg := Default()
	cfg.Availability.WorkStartMinute = 1080
	cfg.Availability.WorkEndMinute = 540
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for inverted work hours")
	}
}

func TestValidate_OverlappingExclusions(t *testing.T) {
	cfg := Default()
	cfg.Availability.Exclusions = []Exclusion{
		{StartMinute: 720, EndMinute: 800},
		{StartMinute: 780, EndMinute: 840},
	}
	err := cfg.validate()
	if err == nil || !strings.Contains(err.Error(), "overlap") {
		t.Fatalf("expected overlap error, got %v", err)
	}
}

func TestValidate_ExclusionOutOfDay(t *testing.T) {
	cfg := Default()
	cfg.Availability.Exclusions = []Exclusion{{StartMinute: 1400, EndMinute: 1500}}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for exclusion past midnight")
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := Default()
	cfg.Scoring.KPIWeight = 0.5 // sum now 1.2
	err := cfg.validate()
	if err == nil || !strings.Contains(err.Error(), "sum to 1.0") {
		t.Fatalf("expected weight sum error, got %v", err)
	}
}

func TestValidate_ThresholdOrder(t *testing.T) {
	cfg := Default()
	cfg.Conflict.MediumOverlap = 5
	cfg.Conflict.HighOverlap = 3
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for medium > high")
	}
}

func TestSchedAvailability(t *testing.T) {
	avail := Default().SchedAvailability()

	if !avail.WorkDays[time.Monday] || !avail.WorkDays[time.Friday] {
		t.Error("expected Mon and Fri workable")
	}
	if avail.WorkDays[time.Saturday] || avail.WorkDays[time.Sunday] {
		t.Error("expected weekend not workable")
	}
	if avail.WorkStart != 540 || avail.WorkEnd != 1080 {
		t.Errorf("expected 540..1080, got %d..%d", avail.WorkStart, avail.WorkEnd)
	}
	if len(avail.Exclusions) != 2 || avail.Exclusions[0].Start != 750 {
		t.Errorf("exclusions not converted: %v", avail.Exclusions)
	}
}

func TestWeightsAndThresholds(t *testing.T) {
	cfg := Default()

	w := cfg.Weights()
	if w.KPIImpact != 0.30 || w.DueHorizonDays != 30 || w.EffortCapHours != 40 {
		t.Errorf("weights not converted: %+v", w)
	}

	th := cfg.Thresholds()
	if th.Low != 1 || th.Medium != 2 || th.High != 3 {
		t.Errorf("thresholds not converted: %+v", th)
	}
}
