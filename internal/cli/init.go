package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"longform/internal/config"
	"longform/internal/logx"
	"longform/internal/paths"
)

const envTemplate = `# API key for the instrumental generation service used by ` + "`longform generate`" + `.
` + config.APIKeyEnv + `=
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a longform project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if len(args) > 0 {
		if args[0] == "." {
			return cwd, nil
		}
		return filepath.Join(cwd, args[0]), nil
	}

	return nextAvailableDir(cwd)
}

func nextAvailableDir(base string) (string, error) {
	for i := 1; ; i++ {
		candidate := filepath.Join(base, fmt.Sprintf("longform-%d", i))
		exists, err := paths.DirExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}

	pp, err := paths.Resolve(dir)
	if err != nil {
		return err
	}
	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := pp.EnsureMetaDirs(); err != nil {
		return err
	}

	logger, closer, err := logx.New(pp, "init")
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Printf("longform init: project=%s", pp.Root)

	created := make([]string, 0, 5)

	cfg, err := ensureConfig(pp, &created, logger)
	if err != nil {
		return err
	}
	if err := ensureEnvFile(pp, &created, logger); err != nil {
		return err
	}

	pp = paths.ApplyConfig(pp, cfg)
	for _, dir := range pp.MediaDirs() {
		exists, err := paths.DirExists(dir)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		logger.Printf("created directory: %s", dir)
		created = append(created, pp.Rel(dir)+"/")
	}

	if len(created) == 0 {
		cmd.Printf("Project already initialized at %s\n", pp.Root)
		return nil
	}

	cmd.Printf("Initialized project at %s\n", pp.Root)
	for _, entry := range created {
		cmd.Printf("  created %s\n", entry)
	}
	cmd.Printf("\nDrop clips into %s and tracks into %s, then run `longform assemble`.\n", pp.Rel(pp.ClipsDir), pp.Rel(pp.MusicDir))
	return nil
}

func ensureConfig(pp paths.ProjectPaths, created *[]string, logger Logger) (config.Config, error) {
	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("check config: %w", err)
	}
	if exists {
		logger.Printf("config exists: %s", pp.ConfigFile)
		return config.Load(pp.ConfigFile)
	}

	cfg := config.Default()
	cfg.ApplyDefaults()
	data, err := cfg.Marshal()
	if err != nil {
		return config.Config{}, err
	}
	if err := os.WriteFile(pp.ConfigFile, data, 0o644); err != nil {
		return config.Config{}, fmt.Errorf("write config: %w", err)
	}
	logger.Printf("created config: %s", pp.ConfigFile)
	*created = append(*created, filepath.Base(pp.ConfigFile))
	return cfg, nil
}

func ensureEnvFile(pp paths.ProjectPaths, created *[]string, logger Logger) error {
	exists, err := paths.FileExists(pp.EnvFile)
	if err != nil {
		return fmt.Errorf("check env file: %w", err)
	}
	if exists {
		logger.Printf("env file exists: %s", pp.EnvFile)
		return nil
	}
	if err := os.WriteFile(pp.EnvFile, []byte(envTemplate), 0o600); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	logger.Printf("created env file: %s", pp.EnvFile)
	*created = append(*created, filepath.Base(pp.EnvFile))
	return nil
}

// Logger keeps the subset of log.Logger used locally, enabling easy testing.
type Logger interface {
	Printf(format string, v ...any)
}
