package render

import (
	"fmt"
	"math"
	"strings"

	"longform/internal/config"
	"longform/internal/timeline"
)

// DelayMillis converts a placement start into the integer milliseconds
// adelay expects.
func DelayMillis(start float64) int64 {
	if start <= 0 {
		return 0
	}
	return int64(math.Round(start * 1000))
}

// MixFilter builds the filter_complex graph that lays the placements over the
// concatenated video. Input 0 is the stage-one output and input j+1 is the
// file of placement j. The mix runs for the longest input and is not
// normalized, so every track keeps its configured volume and music that
// outlasts the video is kept.
func MixFilter(placements []timeline.Placement, includeNative bool) string {
	var chains []string
	var labels []string
	if includeNative {
		labels = append(labels, "[0:a]")
	}
	for j, p := range placements {
		label := fmt.Sprintf("[m%d]", j)
		chains = append(chains, fmt.Sprintf("[%d:a]volume=%s,adelay=%d:all=1%s",
			j+1, formatVolume(p.Volume), DelayMillis(p.Start), label))
		labels = append(labels, label)
	}
	chains = append(chains, fmt.Sprintf("%samix=inputs=%d:duration=longest:dropout_transition=0:normalize=0[aout]",
		strings.Join(labels, ""), len(labels)))
	return strings.Join(chains, ";")
}

// MixArgs builds the second-stage ffmpeg invocation.
func MixArgs(videoPath string, tl timeline.Timeline, enc config.EncodingConfig, outputPath string) []string {
	args := []string{"-y", "-i", videoPath}
	for _, p := range tl.Music {
		args = append(args, "-i", p.Item.Path)
	}
	args = append(args,
		"-filter_complex", MixFilter(tl.Music, tl.Graph.HasNative()),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
	)
	args = append(args, audioEncodeArgs(enc)...)
	return append(args, outputPath)
}

func formatVolume(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
