package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"longform/internal/config"
	"longform/internal/logx"
	"longform/internal/media"
	"longform/internal/paths"
	"longform/internal/render/state"
	"longform/internal/timeline"
	"longform/internal/tools"
)

// Service turns an assembled timeline into a video file with ffmpeg.
type Service struct {
	Paths  paths.ProjectPaths
	Config config.Config
	Runner media.Runner
	Logger *log.Logger
	Now    func() time.Time

	// NewRunID generates run identifiers; tests replace it.
	NewRunID func() string

	stdout     io.Writer
	stderr     io.Writer
	ffmpegPath string
}

// Options controls a single render.
type Options struct {
	// Output overrides the templated output path.
	Output string
	// Force renders even when an identical timeline was rendered before.
	Force bool
	// Seed is recorded in the manifest when the shuffle was seeded.
	Seed *uint64
}

// Result describes what Render produced.
type Result struct {
	RunID        string              `json:"run_id"`
	OutputPath   string              `json:"output"`
	ManifestPath string              `json:"manifest,omitempty"`
	Method       string              `json:"concat_method,omitempty"`
	Graph        timeline.AudioGraph `json:"graph"`
	Mixed        bool                `json:"mixed"`
	Reused       bool                `json:"reused"`
	DurationS    float64             `json:"duration_s"`
	Hash         string              `json:"hash"`
}

// NewService prepares a renderer bound to a project. An empty ffmpegPath is
// resolved with tools.Lookup.
func NewService(pp paths.ProjectPaths, cfg config.Config, runner media.Runner, ffmpegPath string, logger *log.Logger) (*Service, error) {
	if runner == nil {
		runner = media.CmdRunner{}
	}
	if ffmpegPath == "" {
		resolved, err := tools.Lookup("ffmpeg")
		if err != nil {
			return nil, err
		}
		ffmpegPath = resolved
	}
	if err := pp.EnsureMetaDirs(); err != nil {
		return nil, err
	}
	return &Service{
		Paths:      pp,
		Config:     cfg,
		Runner:     runner,
		Logger:     logx.OrDiscard(logger),
		Now:        time.Now,
		NewRunID:   uuid.NewString,
		ffmpegPath: ffmpegPath,
	}, nil
}

// SetWriters configures optional stdout/stderr writers. ffmpeg's stderr is
// streamed to stderr when set.
func (s *Service) SetWriters(stdout, stderr io.Writer) {
	if s == nil {
		return
	}
	s.stdout = stdout
	s.stderr = stderr
}

// EffectiveGraph is the graph the renderer actually builds. A music graph
// with no placements (target zero) renders as if there were no music.
func EffectiveGraph(tl timeline.Timeline) timeline.AudioGraph {
	if tl.Graph.HasMusic() && len(tl.Music) == 0 {
		return timeline.MixPolicy(tl.Graph.HasNative(), false)
	}
	return tl.Graph
}

// Render concatenates the selected clips and, when the graph calls for it,
// mixes the background placements over them.
func (s *Service) Render(ctx context.Context, tl timeline.Timeline, opts Options) (Result, error) {
	if s == nil {
		return Result{}, errors.New("render service is nil")
	}
	if len(tl.Video) == 0 {
		return Result{}, fmt.Errorf("render: %w", timeline.ErrEmptyPool)
	}

	output := strings.TrimSpace(opts.Output)
	if output == "" {
		output = OutputPath(s.Paths.OutputDir, s.Config.Output.NameTemplate, s.Config.Music.Genre, s.now())
	}
	if abs, err := filepath.Abs(output); err == nil {
		output = abs
	}

	graph := EffectiveGraph(tl)
	tl.Graph = graph
	if !graph.HasMusic() {
		tl.Music = nil
	}
	hash := state.TimelineHash(tl, s.Config.Encoding)

	history, _ := state.Load(s.Paths.RenderStateFile)
	if !opts.Force {
		if prev, ok := history.Lookup(hash); ok {
			s.Logger.Printf("timeline %s already rendered by run %s at %s", hash, prev.RunID, prev.Output)
			s.printf("Identical timeline already rendered: %s (use --force to render again)\n", s.Paths.Rel(prev.Output))
			return Result{
				RunID:        prev.RunID,
				OutputPath:   prev.Output,
				ManifestPath: prev.Manifest,
				Graph:        graph,
				Mixed:        graph.HasMusic(),
				Reused:       true,
				DurationS:    prev.DurationS,
				Hash:         hash,
			}, nil
		}
	}

	runID := s.newRunID()
	s.Logger.Printf("run %s: %d clips, %d placements, graph=%s, output=%s", runID, len(tl.Video), len(tl.Music), graph, output)

	if err := WriteConcatList(s.Paths.ConcatListFile, tl.Video); err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Result{}, fmt.Errorf("prepare output dir: %w", err)
	}

	stageOne := output
	if graph.HasMusic() {
		if err := os.MkdirAll(s.Paths.WorkDir, 0o755); err != nil {
			return Result{}, fmt.Errorf("prepare work dir: %w", err)
		}
		stageOne = filepath.Join(s.Paths.WorkDir, runID+"-video"+filepath.Ext(output))
	}

	s.printf("Concatenating %d clips...\n", len(tl.Video))
	method, err := s.runConcat(ctx, s.Paths.ConcatListFile, stageOne, graph.HasNative())
	if err != nil {
		return Result{}, err
	}

	if graph.HasMusic() {
		s.printf("Mixing %d background tracks...\n", len(tl.Music))
		err := s.ffmpeg(ctx, MixArgs(stageOne, tl, s.Config.Encoding, output))
		if rmErr := os.Remove(stageOne); rmErr != nil && !os.IsNotExist(rmErr) {
			s.Logger.Printf("remove intermediate %s: %v", stageOne, rmErr)
		}
		if err != nil {
			return Result{}, fmt.Errorf("mix background audio: %w", err)
		}
	}

	result := Result{
		RunID:      runID,
		OutputPath: output,
		Method:     method,
		Graph:      graph,
		Mixed:      graph.HasMusic(),
		DurationS:  tl.Duration(),
		Hash:       hash,
	}

	if s.Config.Output.ManifestEnabled() {
		manifestPath := ManifestPath(output)
		err := WriteManifest(manifestPath, Manifest{
			RunID:        runID,
			CreatedAt:    s.now(),
			Output:       output,
			Hash:         hash,
			ConcatMethod: method,
			Mixed:        result.Mixed,
			Seed:         opts.Seed,
			DurationS:    result.DurationS,
			Timeline:     tl,
		})
		if err != nil {
			return result, err
		}
		result.ManifestPath = manifestPath
	}

	history.Record(hash, state.RunState{
		RunID:      runID,
		Output:     output,
		Manifest:   result.ManifestPath,
		RenderedAt: s.now(),
		DurationS:  result.DurationS,
	})
	if err := history.Save(s.Paths.RenderStateFile); err != nil {
		s.Logger.Printf("save render state: %v", err)
	}

	s.Logger.Printf("run %s finished: method=%s duration=%.3fs", runID, method, result.DurationS)
	return result, nil
}

func (s *Service) ffmpeg(ctx context.Context, args []string) error {
	s.Logger.Printf("ffmpeg %s", strings.Join(args, " "))
	_, err := s.Runner.Run(ctx, s.ffmpegPath, args, media.RunOptions{Stderr: s.stderr})
	return err
}

func (s *Service) printf(format string, args ...any) {
	if s.stdout == nil {
		return
	}
	fmt.Fprintf(s.stdout, format, args...)
}

func (s *Service) newRunID() string {
	if s.NewRunID == nil {
		return uuid.NewString()
	}
	return s.NewRunID()
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
