package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// RunState records one finished render.
type RunState struct {
	RunID      string    `json:"run_id"`
	Output     string    `json:"output"`
	Manifest   string    `json:"manifest,omitempty"`
	RenderedAt time.Time `json:"rendered_at"`
	DurationS  float64   `json:"duration_s"`
}

// RenderState maps timeline hashes to the render that produced them.
type RenderState struct {
	Runs map[string]RunState `json:"runs"`
}

// Load reads render state from the given path. A missing or corrupt file
// returns an empty state without error.
func Load(path string) (*RenderState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return emptyState(), nil
	}

	var rs RenderState
	if err := json.Unmarshal(data, &rs); err != nil {
		return emptyState(), nil
	}
	if rs.Runs == nil {
		rs.Runs = map[string]RunState{}
	}
	return &rs, nil
}

// Lookup returns the previous run for hash when its output still exists.
func (rs *RenderState) Lookup(hash string) (RunState, bool) {
	run, ok := rs.Runs[hash]
	if !ok || run.Output == "" {
		return RunState{}, false
	}
	if info, err := os.Stat(run.Output); err != nil || info.IsDir() || info.Size() == 0 {
		return RunState{}, false
	}
	return run, true
}

// Record stores run under hash, replacing any earlier entry.
func (rs *RenderState) Record(hash string, run RunState) {
	if rs.Runs == nil {
		rs.Runs = map[string]RunState{}
	}
	rs.Runs[hash] = run
}

// Save writes the render state atomically to the given path.
func (rs *RenderState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func emptyState() *RenderState {
	return &RenderState{Runs: map[string]RunState{}}
}
