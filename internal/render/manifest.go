package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"longform/internal/timeline"
)

// Manifest describes one rendered output: which clips were joined, where
// each background track starts, and how the audio was mixed.
type Manifest struct {
	RunID        string            `yaml:"run_id"`
	CreatedAt    time.Time         `yaml:"created_at"`
	Output       string            `yaml:"output"`
	Hash         string            `yaml:"hash"`
	ConcatMethod string            `yaml:"concat_method"`
	Mixed        bool              `yaml:"mixed"`
	Seed         *uint64           `yaml:"seed,omitempty"`
	DurationS    float64           `yaml:"duration_s"`
	Timeline     timeline.Timeline `yaml:"timeline"`
}

// WriteManifest writes m as YAML to path.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare manifest dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m, nil
}
