package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"longform/internal/render"
	"longform/internal/timeline"
)

func newPlanCmd() *cobra.Command {
	var flags planFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Probe media and print the timeline without rendering",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, &flags)
		},
	}
	addPlanFlags(cmd, &flags)
	return cmd
}

type planPayload struct {
	Project   string              `json:"project"`
	TargetS   float64             `json:"target_s"`
	Covered   bool                `json:"covered"`
	Seed      *uint64             `json:"seed,omitempty"`
	Overshoot float64             `json:"music_overshoot_s"`
	Skipped   []string            `json:"skipped_tracks,omitempty"`
	Graph     timeline.AudioGraph `json:"render_graph"`
	DurationS float64             `json:"duration_s"`
	Timeline  timeline.Timeline   `json:"timeline"`
}

func runPlan(cmd *cobra.Command, flags *planFlags) error {
	s, err := openSession("plan")
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := buildPlan(cmd, s, flags)
	if err != nil {
		return exitHint(err)
	}

	if outputJSON {
		payload := planPayload{
			Project:   s.pp.Root,
			TargetS:   p.Selection.Target,
			Covered:   p.Selection.Covered(),
			Seed:      p.Seed,
			Overshoot: p.Schedule.Overshoot(),
			Graph:     render.EffectiveGraph(p.Timeline),
			DurationS: p.Timeline.Duration(),
			Timeline:  p.Timeline,
		}
		for _, item := range p.Schedule.Skipped {
			payload.Skipped = append(payload.Skipped, item.Path)
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printPlan(cmd.OutOrStdout(), s, p)
	return nil
}

func printPlan(w io.Writer, s *session, p plan) {
	tl := p.Timeline

	fmt.Fprintf(w, "Video: %d clips, %s (target %s)\n", len(tl.Video), clock(p.Selection.Total), clock(p.Selection.Target))
	if !p.Selection.Covered() {
		fmt.Fprintf(w, "  pool exhausted %s short of the target\n", clock(p.Selection.Target-p.Selection.Total))
	}
	fmt.Fprintf(w, "  %4s  %9s  %9s  %-5s  %s\n", "#", "START", "LENGTH", "AUDIO", "FILE")
	for _, seg := range tl.Video {
		fmt.Fprintf(w, "  %4d  %9s  %9s  %-5s  %s\n",
			seg.Position, clock(seg.Start), clock(seg.Item.Duration), yesNo(seg.Item.HasAudio), s.pp.Rel(seg.Item.Path))
	}

	switch {
	case s.cfg.Music.Disabled:
		fmt.Fprintln(w, "Music: disabled")
	case !tl.HasMusic:
		fmt.Fprintf(w, "Music: none found in %s\n", s.pp.Rel(s.pp.MusicDir))
	default:
		fmt.Fprintf(w, "Music: %d placements at volume %.2f, ends %s", len(tl.Music), s.cfg.Music.Volume, clock(p.Schedule.End()))
		if over := p.Schedule.Overshoot(); over > 0 {
			fmt.Fprintf(w, " (+%s past the video)", clock(over))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %4s  %9s  %9s  %4s  %s\n", "#", "START", "LENGTH", "PASS", "FILE")
		for i, pl := range tl.Music {
			fmt.Fprintf(w, "  %4d  %9s  %9s  %4d  %s\n", i+1, clock(pl.Start), clock(pl.Item.Duration), pl.Pass, s.pp.Rel(pl.Item.Path))
		}
	}
	for _, item := range p.Schedule.Skipped {
		fmt.Fprintf(w, "  skipped (no duration): %s\n", s.pp.Rel(item.Path))
	}

	fmt.Fprintf(w, "Audio: %s\n", render.EffectiveGraph(tl))
	if p.Seed != nil {
		fmt.Fprintf(w, "Seed: %d\n", *p.Seed)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
