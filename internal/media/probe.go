package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"longform/internal/logx"
	"longform/internal/timeline"
)

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Duration  string `json:"duration"`
}

// ProbeMetadata is the subset of ffprobe output the scheduler needs.
type ProbeMetadata struct {
	FormatName      string
	DurationSeconds float64
	HasVideo        bool
	HasAudio        bool
}

// Prober measures media files with ffprobe.
type Prober struct {
	Runner  Runner
	FFprobe string
	Logger  *log.Logger
}

// NewProber returns a prober using the ffprobe binary at path.
func NewProber(runner Runner, ffprobePath string, logger *log.Logger) *Prober {
	if runner == nil {
		runner = CmdRunner{}
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{Runner: runner, FFprobe: ffprobePath, Logger: logx.OrDiscard(logger)}
}

// Probe runs ffprobe against path.
func (p *Prober) Probe(ctx context.Context, path string) (ProbeMetadata, error) {
	args := []string{
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-print_format", "json",
		path,
	}

	p.Logger.Printf("ffprobe %s", path)
	result, err := p.Runner.Run(ctx, p.FFprobe, args, RunOptions{})
	if err != nil {
		return ProbeMetadata{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	if len(result.Stdout) == 0 {
		return ProbeMetadata{}, fmt.Errorf("ffprobe %s: no output", path)
	}
	return parseProbe(result.Stdout)
}

// Item probes path and returns it as a timeline item.
func (p *Prober) Item(ctx context.Context, path string) (timeline.MediaItem, error) {
	meta, err := p.Probe(ctx, path)
	if err != nil {
		return timeline.MediaItem{}, err
	}
	p.Logger.Printf("probed %s duration=%.3fs audio=%v", path, meta.DurationSeconds, meta.HasAudio)
	return timeline.MediaItem{
		Path:     path,
		Duration: meta.DurationSeconds,
		HasAudio: meta.HasAudio,
	}, nil
}

func parseProbe(raw []byte) (ProbeMetadata, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ProbeMetadata{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	meta := ProbeMetadata{FormatName: parsed.Format.FormatName}
	meta.DurationSeconds = parseSeconds(parsed.Format.Duration)

	longestStream := 0.0
	for _, s := range parsed.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			meta.HasVideo = true
		case "audio":
			meta.HasAudio = true
		}
		if d := parseSeconds(s.Duration); d > longestStream {
			longestStream = d
		}
	}
	// Some containers only report duration per stream.
	if meta.DurationSeconds == 0 {
		meta.DurationSeconds = longestStream
	}
	return meta, nil
}

func parseSeconds(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return 0
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
