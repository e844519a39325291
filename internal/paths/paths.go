package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"longform/internal/config"
)

// ProjectPaths captures canonical locations for a longform project.
type ProjectPaths struct {
	Root            string
	ConfigFile      string
	EnvFile         string
	ClipsDir        string
	MusicDir        string
	OutputDir       string
	GeneratedDir    string
	MetaDir         string
	WorkDir         string
	LogsDir         string
	ConcatListFile  string
	RenderStateFile string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return newProjectPaths(root), nil
}

func newProjectPaths(root string) ProjectPaths {
	metaDir := filepath.Join(root, ".longform")
	defaults := config.Default()
	return ProjectPaths{
		Root:            root,
		ConfigFile:      filepath.Join(root, "longform.yaml"),
		EnvFile:         filepath.Join(root, ".env"),
		ClipsDir:        filepath.Join(root, defaults.Video.Dir),
		MusicDir:        filepath.Join(root, defaults.Music.Dir),
		OutputDir:       filepath.Join(root, defaults.Output.Dir),
		GeneratedDir:    filepath.Join(root, defaults.Generate.OutputDir),
		MetaDir:         metaDir,
		WorkDir:         filepath.Join(metaDir, "work"),
		LogsDir:         filepath.Join(root, "logs"),
		ConcatListFile:  filepath.Join(metaDir, "concat.txt"),
		RenderStateFile: filepath.Join(metaDir, "render_state.json"),
	}
}

// ApplyConfig points the media directories at the locations named in cfg.
func ApplyConfig(pp ProjectPaths, cfg config.Config) ProjectPaths {
	if dir := strings.TrimSpace(cfg.Video.Dir); dir != "" {
		pp.ClipsDir = resolveProjectPath(pp.Root, dir)
	}
	if dir := strings.TrimSpace(cfg.Music.MusicSubdir()); dir != "" {
		pp.MusicDir = resolveProjectPath(pp.Root, dir)
	}
	if dir := strings.TrimSpace(cfg.Output.Dir); dir != "" {
		pp.OutputDir = resolveProjectPath(pp.Root, dir)
	}
	if dir := strings.TrimSpace(cfg.Generate.OutputDir); dir != "" {
		pp.GeneratedDir = resolveProjectPath(pp.Root, dir)
	}
	return pp
}

// GenreDir returns the directory generated tracks for genre are saved in.
func (p ProjectPaths) GenreDir(genre string) string {
	return filepath.Join(p.GeneratedDir, config.NormalizeGenre(genre))
}

func resolveProjectPath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// Rel returns path relative to the project root when possible.
func (p ProjectPaths) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// EnsureRoot makes sure the project root exists on disk.
func (p ProjectPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	return nil
}

// EnsureMetaDirs creates the hidden .longform metadata directory along with
// its work area and the logs directory.
func (p ProjectPaths) EnsureMetaDirs() error {
	dirs := []string{p.MetaDir, p.WorkDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// MediaDirs lists the clips, music, and output directories.
func (p ProjectPaths) MediaDirs() []string {
	return []string{p.ClipsDir, p.MusicDir, p.OutputDir}
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
