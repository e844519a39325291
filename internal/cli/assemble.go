package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"longform/internal/render"
)

func newAssembleCmd() *cobra.Command {
	var (
		flags  planFlags
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Select clips, schedule background music and render the final video",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssemble(cmd, &flags, output, force)
		},
	}
	addPlanFlags(cmd, &flags)
	cmd.Flags().StringVar(&output, "out", "", "output file (default <output dir>/<YYYYMMDD_HHMM>_final_video.mp4)")
	cmd.Flags().BoolVar(&force, "force", false, "render even if an identical timeline was rendered before")
	return cmd
}

func runAssemble(cmd *cobra.Command, flags *planFlags, output string, force bool) error {
	s, err := openSession("assemble")
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := buildPlan(cmd, s, flags)
	if err != nil {
		return exitHint(err)
	}

	svc, err := newRenderService(s)
	if err != nil {
		return err
	}
	if !outputJSON {
		svc.SetWriters(cmd.OutOrStdout(), nil)
		fmt.Fprintf(cmd.OutOrStdout(), "Selected %d clips (%s), %d background placements, audio %s\n",
			len(p.Timeline.Video), clock(p.Selection.Total), len(p.Timeline.Music), render.EffectiveGraph(p.Timeline))
	}

	result, err := svc.Render(commandContext(cmd), p.Timeline, render.Options{
		Output: output,
		Force:  force,
		Seed:   p.Seed,
	})
	if err != nil {
		return exitHint(err)
	}

	if outputJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	size := ""
	if info, err := os.Stat(result.OutputPath); err == nil {
		size = " (" + formatBytes(info.Size()) + ")"
	}
	if result.Reused {
		fmt.Fprintf(out, "Up to date: %s%s\n", s.pp.Rel(result.OutputPath), size)
		return nil
	}
	fmt.Fprintf(out, "Wrote %s%s, %s, concat %s\n", s.pp.Rel(result.OutputPath), size, clock(result.DurationS), result.Method)
	if result.ManifestPath != "" {
		fmt.Fprintf(out, "Timeline: %s\n", s.pp.Rel(result.ManifestPath))
	}
	return nil
}
