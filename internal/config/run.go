// Package config loads the monitoring run configuration from JSON. Fields
// are pointer-typed so a partial file only overrides what it names; the Get*
// accessors supply the defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RunConfig is the root configuration for one monitoring run. The task_params
// map is passed verbatim to the statistics task; everything else drives the
// surrounding run harness.
type RunConfig struct {
	// TaskParams selects the acquisition mode ("pedestal"/"LED" set to "on")
	// and the chi2 check.
	TaskParams map[string]string `json:"task_params,omitempty"`

	// ConditionsDB is the sqlite file holding the bad-channel condition.
	// Empty means no conditions provider is wired.
	ConditionsDB *string `json:"conditions_db,omitempty"`

	// Report output
	ReportDir   *string `json:"report_dir,omitempty"`
	RenderPlots *bool   `json:"render_plots,omitempty"`

	// SummaryDB is the sqlite file that receives one row per finished run.
	SummaryDB *string `json:"summary_db,omitempty"`

	// Input: either a JSON-lines cycle file or the synthetic generator.
	CycleFile       *string `json:"cycle_file,omitempty"`
	SyntheticCycles *int    `json:"synthetic_cycles,omitempty"`
	EventsPerCycle  *int    `json:"events_per_cycle,omitempty"`
	Seed            *int64  `json:"seed,omitempty"`
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrInt64(v int64) *int64    { return &v }

// LoadRunConfig reads and validates a RunConfig from a JSON file. Fields
// omitted from the file keep their accessor defaults, so partial configs
// are safe.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RunConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *RunConfig) Validate() error {
	if c.SyntheticCycles != nil && *c.SyntheticCycles < 0 {
		return fmt.Errorf("synthetic_cycles must be non-negative, got %d", *c.SyntheticCycles)
	}
	if c.EventsPerCycle != nil && *c.EventsPerCycle <= 0 {
		return fmt.Errorf("events_per_cycle must be positive, got %d", *c.EventsPerCycle)
	}
	if c.CycleFile != nil && *c.CycleFile != "" && c.SyntheticCycles != nil {
		return fmt.Errorf("cycle_file and synthetic_cycles are mutually exclusive")
	}
	return nil
}

// GetTaskParams returns the task parameter map, never nil.
func (c *RunConfig) GetTaskParams() map[string]string {
	if c.TaskParams == nil {
		return map[string]string{}
	}
	return c.TaskParams
}

// GetConditionsDB returns the conditions sqlite path, empty when unset.
func (c *RunConfig) GetConditionsDB() string {
	if c.ConditionsDB == nil {
		return ""
	}
	return *c.ConditionsDB
}

// GetReportDir returns the report output directory or the default.
func (c *RunConfig) GetReportDir() string {
	if c.ReportDir == nil || *c.ReportDir == "" {
		return "report"
	}
	return *c.ReportDir
}

// GetRenderPlots returns whether PNG plots are written next to the HTML
// report.
func (c *RunConfig) GetRenderPlots() bool {
	if c.RenderPlots == nil {
		return true
	}
	return *c.RenderPlots
}

// GetSummaryDB returns the run-summary sqlite path, empty when unset.
func (c *RunConfig) GetSummaryDB() string {
	if c.SummaryDB == nil {
		return ""
	}
	return *c.SummaryDB
}

// GetCycleFile returns the JSON-lines input path, empty when the synthetic
// generator should be used.
func (c *RunConfig) GetCycleFile() string {
	if c.CycleFile == nil {
		return ""
	}
	return *c.CycleFile
}

// GetSyntheticCycles returns how many cycles the generator produces.
func (c *RunConfig) GetSyntheticCycles() int {
	if c.SyntheticCycles == nil {
		return 10
	}
	return *c.SyntheticCycles
}

// GetEventsPerCycle returns the generator's events per cycle.
func (c *RunConfig) GetEventsPerCycle() int {
	if c.EventsPerCycle == nil {
		return 100
	}
	return *c.EventsPerCycle
}

// GetSeed returns the generator seed, fixed so runs are reproducible.
func (c *RunConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}
