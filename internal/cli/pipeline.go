package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"longform/internal/config"
	"longform/internal/logx"
	"longform/internal/media"
	"longform/internal/paths"
	"longform/internal/render"
	"longform/internal/timeline"
	"longform/internal/tools"
	"longform/internal/tui"
)

// session bundles what every pipeline command needs once the project has
// been resolved.
type session struct {
	pp     paths.ProjectPaths
	cfg    config.Config
	logger *log.Logger
	closer io.Closer
}

func openSession(command string) (*session, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnv(pp.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return nil, err
	}
	pp = paths.ApplyConfig(pp, cfg)
	if err := pp.EnsureMetaDirs(); err != nil {
		return nil, err
	}
	logger, closer, err := logx.New(pp, command)
	if err != nil {
		return nil, err
	}
	return &session{pp: pp, cfg: cfg, logger: logger, closer: closer}, nil
}

func (s *session) Close() {
	if s != nil && s.closer != nil {
		_ = s.closer.Close()
	}
}

// Seams for tests.
var (
	newMeasurer = func(s *session) (media.Measurer, error) {
		ffprobe, err := tools.Lookup("ffprobe")
		if err != nil {
			return nil, err
		}
		return media.NewProber(nil, ffprobe, s.logger), nil
	}
	newRenderService = func(s *session) (*render.Service, error) {
		return render.NewService(s.pp, s.cfg, nil, "", s.logger)
	}
)

type planFlags struct {
	target     float64
	volume     float64
	seed       uint64
	genre      string
	noMusic    bool
	noProgress bool
}

func addPlanFlags(cmd *cobra.Command, f *planFlags) {
	cmd.Flags().Float64Var(&f.target, "target", 0, "target duration in seconds (default from config)")
	cmd.Flags().Float64Var(&f.volume, "volume", 0, "background music volume in (0, 1] (default from config)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed the shuffle for a reproducible timeline")
	cmd.Flags().StringVar(&f.genre, "genre", "", "use background tracks from this genre folder")
	cmd.Flags().BoolVar(&f.noMusic, "no-music", false, "skip background music")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "print plain progress lines instead of the live table")
}

// apply folds command-line overrides into the session configuration.
func (f *planFlags) apply(cmd *cobra.Command, s *session) (*uint64, error) {
	flags := cmd.Flags()
	if flags.Changed("target") {
		if f.target < 0 {
			return nil, fmt.Errorf("--target must be >= 0 (got %g)", f.target)
		}
		s.cfg.TargetDurationS = f.target
	}
	if flags.Changed("volume") {
		s.cfg.Music.Volume = f.volume
	}
	if err := timeline.ValidateVolume(s.cfg.Music.Volume); err != nil {
		return nil, fmt.Errorf("music volume %g: %w", s.cfg.Music.Volume, err)
	}
	if flags.Changed("genre") {
		if err := config.ValidateGenre(f.genre); err != nil {
			return nil, err
		}
		s.cfg.Music.Genre = f.genre
		s.pp = paths.ApplyConfig(s.pp, s.cfg)
	}
	if f.noMusic {
		s.cfg.Music.Disabled = true
	}
	if flags.Changed("seed") {
		seed := f.seed
		return &seed, nil
	}
	return nil, nil
}

// plan is a resolved timeline plus the intermediate results that produced it.
type plan struct {
	Timeline  timeline.Timeline
	Selection timeline.Selection
	Schedule  timeline.AudioSchedule
	Seed      *uint64
}

func buildPlan(cmd *cobra.Command, s *session, f *planFlags) (plan, error) {
	ctx := commandContext(cmd)

	seed, err := f.apply(cmd, s)
	if err != nil {
		return plan{}, err
	}
	measurer, err := newMeasurer(s)
	if err != nil {
		return plan{}, err
	}
	mode := tui.DetectMode(cmd.ErrOrStderr(), f.noProgress, outputJSON)

	clips, err := probePool(ctx, cmd, s, measurer, mode, "Probing clips", media.Pool{
		Dir:       s.pp.ClipsDir,
		Extension: s.cfg.Video.Extension,
		Recursive: s.cfg.Video.Recursive,
	})
	if err != nil {
		return plan{}, err
	}
	if len(clips) == 0 {
		return plan{}, fmt.Errorf("no %s clips in %s: %w", s.cfg.Video.Extension, s.pp.Rel(s.pp.ClipsDir), timeline.ErrEmptyPool)
	}

	var tracks []timeline.MediaItem
	if !s.cfg.Music.Disabled {
		tracks, err = probePool(ctx, cmd, s, measurer, mode, "Probing background tracks", media.Pool{
			Dir:       s.pp.MusicDir,
			Extension: s.cfg.Music.Extension,
			Recursive: s.cfg.Music.Recursive,
		})
		if err != nil {
			return plan{}, err
		}
	}

	// One shuffler for both layers so a seed reproduces the whole timeline.
	shuffler := timeline.ShufflerFor(seed)

	sel, err := timeline.SelectVideo(clips, s.cfg.TargetDurationS, shuffler)
	if err != nil {
		return plan{}, err
	}
	sched, err := timeline.ScheduleAudio(tracks, sel.Total, s.cfg.Music.Volume, shuffler)
	if err != nil {
		return plan{}, err
	}
	tl := timeline.Assemble(sel, sched, timeline.NativeAudio(sel.Segments))

	s.logger.Printf("plan: %d/%d clips total=%.3fs target=%.3fs; %d placements from %d tracks; graph=%s",
		len(sel.Segments), len(clips), sel.Total, sel.Target, len(sched.Placements), len(tracks), tl.Graph)
	for _, item := range sched.Skipped {
		s.logger.Printf("skipped track without duration: %s", item.Path)
	}

	return plan{Timeline: tl, Selection: sel, Schedule: sched, Seed: seed}, nil
}

// probePool measures one media directory, drawing progress in the style
// picked by mode.
func probePool(ctx context.Context, cmd *cobra.Command, s *session, m media.Measurer, mode tui.OutputMode, title string, pool media.Pool) ([]timeline.MediaItem, error) {
	files, err := media.Scan(nil, pool.Dir, pool.Extension, pool.Recursive)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("%s: %d files in %s", title, len(files), pool.Dir)
	if len(files) == 0 {
		return nil, nil
	}

	opts := media.Options{Concurrency: s.cfg.Video.ProbeLimit}
	progress := cmd.ErrOrStderr()

	switch mode {
	case tui.ModeTUI:
		var items []timeline.MediaItem
		model := tui.NewProbeModel(fmt.Sprintf("%s (%s)", title, s.pp.Rel(pool.Dir)), files)
		err := tui.RunWithWork(progress, model, func(send func(tea.Msg)) error {
			opts.Reporter = tui.NewProbeReporter(send)
			var werr error
			items, werr = media.Discover(ctx, m, files, opts)
			return werr
		})
		return items, err
	case tui.ModePlain:
		fmt.Fprintf(progress, "%s: %d files in %s\n", title, len(files), s.pp.Rel(pool.Dir))
		opts.Reporter = tui.NewPlainReporter(progress)
	}
	return media.Discover(ctx, m, files, opts)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// exitHint decorates well-known pipeline errors with what to do next.
func exitHint(err error) error {
	switch {
	case errors.Is(err, timeline.ErrEmptyPool):
		return fmt.Errorf("%w (add clips to the clips directory or check video.extension)", err)
	case errors.Is(err, timeline.ErrDegenerateItem):
		return fmt.Errorf("%w (re-encode or remove the files listed)", err)
	}
	return err
}
