package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"longform/internal/config"
	"longform/internal/paths"
	"longform/internal/tools"
)

var (
	checkStrict bool

	probeTools = tools.Probe
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check ffmpeg/ffprobe availability and the generation API key",
		RunE:  runCheck,
	}

	cmd.Flags().BoolVar(&checkStrict, "strict", false, "fail when a required tool is missing")
	return cmd
}

type checkPayload struct {
	Project   string           `json:"project"`
	Tools     []tools.ToolInfo `json:"tools"`
	APIKeySet bool             `json:"api_key_set"`
}

func runCheck(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	if err := config.LoadEnv(pp.EnvFile); err != nil {
		return err
	}

	payload := checkPayload{
		Project:   pp.Root,
		Tools:     probeTools(cmd.Context()),
		APIKeySet: config.APIKey() != "",
	}

	if outputJSON {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		printCheckResult(cmd, payload)
	}

	if checkStrict {
		if missing := tools.Missing(payload.Tools); len(missing) > 0 {
			return errors.New("tool check failed: missing or outdated " + strings.Join(missing, ", "))
		}
	}
	return nil
}

func printCheckResult(cmd *cobra.Command, payload checkPayload) {
	bold := lipgloss.NewStyle().Bold(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	faint := lipgloss.NewStyle().Faint(true)

	cmd.Println(bold.Render("Project:") + " " + payload.Project)
	cmd.Println()

	for _, info := range payload.Tools {
		if !info.Available {
			headline := red.Render("✗") + " " + bold.Render(info.Name)
			if info.Error != "" {
				headline += red.Render(" (" + info.Error + ")")
			}
			cmd.Println(headline)
			cmd.Println()
			continue
		}
		headline := green.Render("✓") + " " + bold.Render(info.Name)
		if info.Version != "" {
			headline += " " + info.Version
		}
		cmd.Println(headline)
		cmd.Println(faint.Render("  " + info.Path))
		if !info.Satisfied {
			cmd.Println(red.Render("  older than the supported minimum " + info.Minimum))
		}
		if info.Error != "" {
			cmd.Println(yellow.Render("  version check failed: " + info.Error))
		}
		cmd.Println()
	}

	if payload.APIKeySet {
		cmd.Println(green.Render("✓") + " " + bold.Render(config.APIKeyEnv))
	} else {
		cmd.Println(yellow.Render("–") + " " + bold.Render(config.APIKeyEnv))
		cmd.Println(faint.Render("  not set; `longform generate` needs it (add it to .env)"))
	}
}
