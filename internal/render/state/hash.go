package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"longform/internal/config"
	"longform/internal/timeline"
)

type clipInput struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
}

type placementInput struct {
	Path   string  `json:"path"`
	Start  float64 `json:"start"`
	Volume float64 `json:"volume"`
}

// timelineInput is the canonical structure hashed for a render.
type timelineInput struct {
	Clips      []clipInput           `json:"clips"`
	Placements []placementInput      `json:"placements"`
	Graph      string                `json:"graph"`
	Encoding   config.EncodingConfig `json:"encoding"`
}

// TimelineHash returns a deterministic hash of everything that changes the
// rendered file: clip order, music placements, the audio graph and the
// encoder settings. Output names and run IDs are excluded.
func TimelineHash(tl timeline.Timeline, enc config.EncodingConfig) string {
	input := timelineInput{
		Clips:      make([]clipInput, 0, len(tl.Video)),
		Placements: make([]placementInput, 0, len(tl.Music)),
		Graph:      tl.Graph.String(),
		Encoding:   enc,
	}
	for _, seg := range tl.Video {
		input.Clips = append(input.Clips, clipInput{Path: seg.Item.Path, Duration: seg.Item.Duration})
	}
	for _, p := range tl.Music {
		input.Placements = append(input.Placements, placementInput{Path: p.Item.Path, Start: p.Start, Volume: p.Volume})
	}
	return hashJSON(input)
}

func hashJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("sha256:error-%v", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum)
}
