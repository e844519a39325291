package timeline

import (
	"math"
	"path/filepath"
)

// MediaItem is a discovered clip or track. Values are never mutated after
// discovery and may be shared freely between pools and timelines.
type MediaItem struct {
	Path     string  `json:"path" yaml:"path"`
	Duration float64 `json:"duration_s" yaml:"duration_s"`
	HasAudio bool    `json:"has_audio" yaml:"has_audio"`
}

// Name returns the base filename for display.
func (m MediaItem) Name() string {
	return filepath.Base(m.Path)
}

// usable reports whether the item contributes forward progress on a timeline.
func (m MediaItem) usable() bool {
	return m.Duration > 0 && finite(m.Duration)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// TotalDuration sums the durations of items.
func TotalDuration(items []MediaItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Duration
	}
	return total
}

func clonePool(pool []MediaItem) []MediaItem {
	out := make([]MediaItem, len(pool))
	copy(out, pool)
	return out
}
