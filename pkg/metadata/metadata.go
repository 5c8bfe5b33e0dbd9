package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"igfollowers/pkg/models"
	"igfollowers/pkg/storage"
)

// SummarySuffix replaces the export's extension for the summary file
const SummarySuffix = ".summary.json"

// RunSummary describes one collection run
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Target     string    `json:"target"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Collection phase
	Collected   int    `json:"collected"`
	MaxCount    int    `json:"max_count"`
	Cycles      int    `json:"cycles"`
	StopReason  string `json:"stop_reason"`
	PanelLayout string `json:"panel_layout,omitempty"`
	Resumed     bool   `json:"resumed,omitempty"`

	// Resolution phase
	Resolved     int            `json:"resolved"`
	Unresolved   int            `json:"unresolved"`
	StrategyHits map[string]int `json:"strategy_hits"`

	Output      string `json:"output"`
	Interrupted bool   `json:"interrupted,omitempty"`
}

// NewRunSummary starts a summary for target
func NewRunSummary(runID, target string, max int) *RunSummary {
	return &RunSummary{
		RunID:        runID,
		Target:       target,
		StartedAt:    time.Now(),
		MaxCount:     max,
		StrategyHits: make(map[string]int),
	}
}

// AddResults tallies resolution outcomes
func (s *RunSummary) AddResults(results []models.AttributeResult) {
	for _, r := range results {
		if r.Followers == nil {
			s.Unresolved++
			continue
		}
		s.Resolved++
		s.StrategyHits[r.Strategy]++
	}
}

// Duration returns the wall time of the run
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Save writes the summary next to the export at exportPath and returns its path
func (s *RunSummary) Save(exportPath string) (string, error) {
	if s.FinishedAt.IsZero() {
		s.FinishedAt = time.Now()
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := storage.SiblingPath(exportPath, SummarySuffix)
	if err := storage.WriteFileAtomic(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}

// Load reads the summary written next to exportPath
func Load(exportPath string) (*RunSummary, error) {
	data, err := os.ReadFile(storage.SiblingPath(exportPath, SummarySuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to read summary file: %w", err)
	}

	var s RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &s, nil
}
