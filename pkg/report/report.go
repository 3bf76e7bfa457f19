// Package report writes JSON run reports describing a pipeline invocation.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Input      string    `json:"input"`
	InputStage string    `json:"input_stage"`
	NoRun      bool      `json:"no_run"`
}

// StageRecord captures one stage transition.
type StageRecord struct {
	Stage          string `json:"stage"`
	Tool           string `json:"tool"`
	OutputPath     string `json:"output_path,omitempty"`
	Encoding       string `json:"encoding"`
	Persisted      bool   `json:"persisted"`
	DurationMillis int64  `json:"duration_ms"`
	Error          string `json:"error,omitempty"`
}

// Writer writes a run report under baseDir/<runID>.
type Writer struct {
	runDir string
}

// NewWriter creates the run directory and returns a writer for it.
func NewWriter(baseDir string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("report base directory is required")
	}
	runID := time.Now().UTC().Format("20060102T150405Z")
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(filepath.Join(runDir, "stages"), 0755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &Writer{runDir: runDir}, nil
}

// RunDir returns the directory holding this run's report.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteRun records run-level metadata in run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	return w.writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteStage records one stage transition in stages/<stage>.json.
func (w *Writer) WriteStage(record StageRecord) error {
	return w.writeJSON(filepath.Join(w.runDir, "stages", record.Stage+".json"), record)
}

func (w *Writer) writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report record: %w", err)
	}
	return nil
}
