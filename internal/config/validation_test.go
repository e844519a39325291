package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func projectWithDirs(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestValidateDefaultsWithDirs(t *testing.T) {
	cfg := Default()
	root := projectWithDirs(t, cfg.Video.Dir, cfg.Music.Dir)

	results := cfg.Validate(root)
	if len(results) != 0 {
		t.Fatalf("expected no results, got %v", results)
	}
}

func TestValidateMissingClipsDir(t *testing.T) {
	cfg := Default()
	root := projectWithDirs(t, cfg.Music.Dir)

	errs := Errors(cfg.Validate(root))
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "clips directory") {
		t.Fatalf("expected clips dir error, got %v", errs)
	}
}

func TestValidateMissingMusicDirIsWarning(t *testing.T) {
	cfg := Default()
	root := projectWithDirs(t, cfg.Video.Dir)

	results := cfg.Validate(root)
	if len(Errors(results)) != 0 {
		t.Fatalf("expected no errors, got %v", results)
	}
	if len(results) != 1 || results[0].Level != "warning" {
		t.Fatalf("expected one warning, got %v", results)
	}

	cfg.Music.Disabled = true
	if results := cfg.Validate(root); len(results) != 0 {
		t.Fatalf("disabled music should skip the dir check, got %v", results)
	}
}

func TestValidateFieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"target", func(c *Config) { c.TargetDurationS = -1 }, "target_duration_s"},
		{"volume zero", func(c *Config) { c.Music.Volume = 0 }, "music.volume"},
		{"volume high", func(c *Config) { c.Music.Volume = 1.5 }, "music.volume"},
		{"target infinite", func(c *Config) { c.TargetDurationS = math.Inf(1) }, "target_duration_s"},
		{"genre separator", func(c *Config) { c.Music.Genre = "lo/fi" }, "music.genre"},
		{"genre parent", func(c *Config) { c.Music.Genre = ".." }, "music.genre"},
		{"video extension", func(c *Config) { c.Video.Extension = "mp4" }, "video.extension"},
		{"music extension", func(c *Config) { c.Music.Extension = "." }, "music.extension"},
		{"endpoint", func(c *Config) { c.Generate.Endpoint = "ftp://x" }, "generate.endpoint"},
		{"status endpoint", func(c *Config) { c.Generate.StatusURL = "not a url" }, "generate.status_endpoint"},
		{"poll interval", func(c *Config) { c.Generate.PollIntervalS = 0 }, "poll_interval_s"},
		{"timeout", func(c *Config) { c.Generate.TimeoutS = -2 }, "timeout_s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			root := projectWithDirs(t, cfg.Video.Dir, cfg.Music.Dir)
			tt.mutate(&cfg)

			errs := Errors(cfg.Validate(root))
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
			}
			if !strings.Contains(errs[0].Message, tt.want) {
				t.Fatalf("expected message about %s, got %q", tt.want, errs[0].Message)
			}
		})
	}
}
