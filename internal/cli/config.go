package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"longform/internal/config"
	"longform/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit project configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, resolved directories and validation findings",
		RunE:  runConfigShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open longform.yaml in $EDITOR and validate the result",
		RunE:  runConfigEdit,
	})
	return cmd
}

// effectiveConfig is what assemble and generate would run with.
type effectiveConfig struct {
	Config    config.Config             `json:"-"`
	Settings  map[string]any            `json:"config"`
	Dirs      resolvedDirs              `json:"dirs"`
	APIKeySet bool                      `json:"api_key_set"`
	Findings  []config.ValidationResult `json:"findings"`
}

type resolvedDirs struct {
	Clips     string `json:"clips"`
	Music     string `json:"music"`
	Output    string `json:"output"`
	Generated string `json:"generated"`
}

func loadEffectiveConfig(pp paths.ProjectPaths) (effectiveConfig, error) {
	if err := config.LoadEnv(pp.EnvFile); err != nil {
		return effectiveConfig{}, err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return effectiveConfig{}, err
	}
	pp = paths.ApplyConfig(pp, cfg)
	settings, err := settingsMap(cfg)
	if err != nil {
		return effectiveConfig{}, err
	}
	return effectiveConfig{
		Config:   cfg,
		Settings: settings,
		Dirs: resolvedDirs{
			Clips:     pp.ClipsDir,
			Music:     pp.MusicDir,
			Output:    pp.OutputDir,
			Generated: pp.GeneratedDir,
		},
		APIKeySet: config.APIKey() != "",
		Findings:  cfg.Validate(pp.Root),
	}, nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	eff, err := loadEffectiveConfig(pp)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		data, err := json.MarshalIndent(eff, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	data, err := eff.Config.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	// Trailing comments keep the output valid YAML.
	fmt.Fprintln(out, "# resolved directories:")
	fmt.Fprintf(out, "#   clips:     %s\n", pp.Rel(eff.Dirs.Clips))
	fmt.Fprintf(out, "#   music:     %s\n", pp.Rel(eff.Dirs.Music))
	fmt.Fprintf(out, "#   output:    %s\n", pp.Rel(eff.Dirs.Output))
	fmt.Fprintf(out, "#   generated: %s\n", pp.Rel(eff.Dirs.Generated))
	if eff.APIKeySet {
		fmt.Fprintf(out, "# %s: set\n", config.APIKeyEnv)
	} else {
		fmt.Fprintf(out, "# %s: not set\n", config.APIKeyEnv)
	}
	printFindings(out, "# ", eff.Findings)
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := ensureConfigFileExists(pp); err != nil {
		return err
	}

	parts := strings.Fields(os.Getenv("EDITOR"))
	if len(parts) == 0 {
		parts = []string{"vi"}
	}
	parts = append(parts, pp.ConfigFile)

	execCmd := exec.CommandContext(commandContext(cmd), parts[0], parts[1:]...)
	execCmd.Stdout = cmd.OutOrStdout()
	execCmd.Stderr = cmd.ErrOrStderr()
	execCmd.Stdin = cmd.InOrStdin()
	execCmd.Dir = pp.Root
	if err := execCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	eff, err := loadEffectiveConfig(pp)
	if err != nil {
		return fmt.Errorf("%s no longer parses: %w", filepath.Base(pp.ConfigFile), err)
	}
	printFindings(cmd.OutOrStdout(), "", eff.Findings)
	if errs := config.Errors(eff.Findings); len(errs) > 0 {
		return fmt.Errorf("%s has %d error(s)", filepath.Base(pp.ConfigFile), len(errs))
	}
	return nil
}

// settingsMap reuses the yaml keys so --json and the text view agree on names.
func settingsMap(cfg config.Config) (map[string]any, error) {
	data, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return m, nil
}

func printFindings(w io.Writer, prefix string, findings []config.ValidationResult) {
	if len(findings) == 0 {
		fmt.Fprintf(w, "%sConfiguration OK\n", prefix)
		return
	}
	for _, r := range findings {
		fmt.Fprintf(w, "%s%-7s %s\n", prefix, r.Level, r.Message)
	}
}

func ensureConfigFileExists(pp paths.ProjectPaths) error {
	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return fmt.Errorf("check config: %w", err)
	}
	if exists {
		return nil
	}
	data, err := config.Default().Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(pp.ConfigFile, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
