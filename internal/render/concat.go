package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"longform/internal/config"
	"longform/internal/timeline"
)

// Concat methods recorded in results and manifests.
const (
	MethodStreamCopy = "stream_copy"
	MethodReencode   = "re-encode"
)

// WriteConcatList writes an ffmpeg concat demuxer list for the selected
// segments, in timeline order. Every clip must still exist on disk.
func WriteConcatList(concatFile string, segments []timeline.SelectedSegment) error {
	if len(segments) == 0 {
		return fmt.Errorf("concat list: %w", timeline.ErrEmptyPool)
	}

	var missing []string
	for _, seg := range segments {
		if _, err := os.Stat(seg.Item.Path); os.IsNotExist(err) {
			missing = append(missing, seg.Item.Path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %d clip file(s):\n  %s", len(missing), strings.Join(missing, "\n  "))
	}

	if err := os.MkdirAll(filepath.Dir(concatFile), 0o755); err != nil {
		return fmt.Errorf("prepare concat dir: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		abs, err := filepath.Abs(seg.Item.Path)
		if err != nil {
			abs = seg.Item.Path
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(abs))
	}
	if err := os.WriteFile(concatFile, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

// escapeConcatPath quotes a path for a single-quoted concat directive.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// StreamCopyArgs builds the fast concat invocation. keepAudio=false drops
// audio streams so a music-only or silent graph does not inherit them.
func StreamCopyArgs(concatFile, outputPath string, keepAudio bool) []string {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatFile,
		"-c", "copy",
	}
	if !keepAudio {
		args = append(args, "-an")
	}
	return append(args, outputPath)
}

// ReencodeArgs builds the fallback concat invocation used when the clips'
// codecs or parameters differ.
func ReencodeArgs(concatFile, outputPath string, enc config.EncodingConfig, keepAudio bool) []string {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatFile,
		"-c:v", enc.VideoCodec,
	}
	if enc.Preset != "" && enc.VideoCodec == "libx264" {
		args = append(args, "-preset", enc.Preset)
	}
	if keepAudio {
		args = append(args, audioEncodeArgs(enc)...)
	} else {
		args = append(args, "-an")
	}
	return append(args, outputPath)
}

func audioEncodeArgs(enc config.EncodingConfig) []string {
	args := []string{"-c:a", enc.AudioCodec}
	if enc.AudioBitrate != "" {
		args = append(args, "-b:a", enc.AudioBitrate)
	}
	if enc.SampleRate > 0 {
		args = append(args, "-ar", fmt.Sprintf("%d", enc.SampleRate))
	}
	return args
}

// runConcat tries stream copy first and re-encodes when that fails.
func (s *Service) runConcat(ctx context.Context, concatFile, outputPath string, keepAudio bool) (string, error) {
	err := s.ffmpeg(ctx, StreamCopyArgs(concatFile, outputPath, keepAudio))
	if err == nil {
		return MethodStreamCopy, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	s.Logger.Printf("stream copy failed, re-encoding: %v", err)
	s.printf("Stream copy failed, re-encoding clips...\n")

	if err := s.ffmpeg(ctx, ReencodeArgs(concatFile, outputPath, s.Config.Encoding, keepAudio)); err != nil {
		return "", fmt.Errorf("concat re-encode failed: %w", err)
	}
	return MethodReencode, nil
}
