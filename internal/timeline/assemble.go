package timeline

import "fmt"

// AudioGraph is the mixing policy for the rendered output.
type AudioGraph int

const (
	// GraphSilent renders no audio stream.
	GraphSilent AudioGraph = iota
	// GraphNativeOnly keeps the clips' own audio.
	GraphNativeOnly
	// GraphMusicOnly replaces the clips' audio with the background layer.
	GraphMusicOnly
	// GraphNativeWithMusic layers the background tracks over the clips' audio.
	GraphNativeWithMusic
)

func (g AudioGraph) String() string {
	switch g {
	case GraphNativeOnly:
		return "native"
	case GraphMusicOnly:
		return "music"
	case GraphNativeWithMusic:
		return "native+music"
	default:
		return "silent"
	}
}

// MarshalText lets the graph appear by name in JSON and YAML output.
func (g AudioGraph) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText parses a graph name written by MarshalText.
func (g *AudioGraph) UnmarshalText(text []byte) error {
	switch string(text) {
	case "silent":
		*g = GraphSilent
	case "native":
		*g = GraphNativeOnly
	case "music":
		*g = GraphMusicOnly
	case "native+music":
		*g = GraphNativeWithMusic
	default:
		return fmt.Errorf("unknown audio graph %q", text)
	}
	return nil
}

// HasMusic reports whether the graph includes the background layer.
func (g AudioGraph) HasMusic() bool {
	return g == GraphMusicOnly || g == GraphNativeWithMusic
}

// HasNative reports whether the graph includes the clips' own audio.
func (g AudioGraph) HasNative() bool {
	return g == GraphNativeOnly || g == GraphNativeWithMusic
}

// MixPolicy decides the audio graph from the two inputs.
func MixPolicy(nativeAudio, hasMusic bool) AudioGraph {
	switch {
	case nativeAudio && hasMusic:
		return GraphNativeWithMusic
	case nativeAudio:
		return GraphNativeOnly
	case hasMusic:
		return GraphMusicOnly
	default:
		return GraphSilent
	}
}

// Timeline is everything a renderer needs for one output file.
type Timeline struct {
	Video         []SelectedSegment `json:"video" yaml:"video"`
	VideoDuration float64           `json:"video_duration_s" yaml:"video_duration_s"`
	Music         []Placement       `json:"music" yaml:"music"`
	HasMusic      bool              `json:"has_music" yaml:"has_music"`
	NativeAudio   bool              `json:"native_audio" yaml:"native_audio"`
	Graph         AudioGraph        `json:"graph" yaml:"graph"`
}

// Assemble combines a video selection and a music schedule. It performs no
// I/O and has no randomness: equal inputs give equal timelines.
func Assemble(video Selection, music AudioSchedule, nativeAudio bool) Timeline {
	segments := make([]SelectedSegment, len(video.Segments))
	copy(segments, video.Segments)

	var placements []Placement
	if len(music.Placements) > 0 {
		placements = make([]Placement, len(music.Placements))
		copy(placements, music.Placements)
	}

	return Timeline{
		Video:         segments,
		VideoDuration: video.Total,
		Music:         placements,
		HasMusic:      music.HasMusic,
		NativeAudio:   nativeAudio,
		Graph:         MixPolicy(nativeAudio, music.HasMusic),
	}
}

// NativeAudio reports whether every selected clip carries an audio stream.
// Clips are joined with the concat demuxer, which needs matching streams, so
// a partially silent selection is treated as having no native audio.
func NativeAudio(segments []SelectedSegment) bool {
	if len(segments) == 0 {
		return false
	}
	for _, seg := range segments {
		if !seg.Item.HasAudio {
			return false
		}
	}
	return true
}

// Duration is the longest of the video layer and the music layer.
func (t Timeline) Duration() float64 {
	d := t.VideoDuration
	if n := len(t.Music); n > 0 {
		if end := t.Music[n-1].End(); end > d {
			d = end
		}
	}
	return d
}
