package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate runs all validations against the config and returns structured
// results. Directory checks resolve relative paths against projectRoot.
func (c Config) Validate(projectRoot string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateTarget()...)
	results = append(results, c.validateMusic()...)
	results = append(results, c.validateExtensions()...)
	results = append(results, c.validateDirs(projectRoot)...)
	results = append(results, c.validateGenerate()...)
	return results
}

// Errors filters results down to the error level.
func Errors(results []ValidationResult) []ValidationResult {
	var errs []ValidationResult
	for _, r := range results {
		if r.Level == "error" {
			errs = append(errs, r)
		}
	}
	return errs
}

func (c Config) validateTarget() []ValidationResult {
	if c.TargetDurationS > 0 && !math.IsInf(c.TargetDurationS, 0) {
		return nil
	}
	return []ValidationResult{{
		Level:   "error",
		Message: fmt.Sprintf("target_duration_s must be a finite number > 0 (got %g)", c.TargetDurationS),
	}}
}

func (c Config) validateMusic() []ValidationResult {
	var results []ValidationResult
	if !(c.Music.Volume > 0 && c.Music.Volume <= 1) {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("music.volume must be in (0, 1] (got %g)", c.Music.Volume),
		})
	}
	if err := ValidateGenre(c.Music.Genre); err != nil {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("music.genre: %v", err),
		})
	}
	return results
}

func (c Config) validateExtensions() []ValidationResult {
	var results []ValidationResult
	for _, ext := range []struct {
		field string
		value string
	}{
		{"video.extension", c.Video.Extension},
		{"music.extension", c.Music.Extension},
	} {
		if !strings.HasPrefix(ext.value, ".") || len(ext.value) < 2 {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("%s must look like \".mp4\" (got %q)", ext.field, ext.value),
			})
		}
	}
	return results
}

func (c Config) validateDirs(projectRoot string) []ValidationResult {
	var results []ValidationResult

	clips := resolve(projectRoot, c.Video.Dir)
	if info, err := os.Stat(clips); err != nil || !info.IsDir() {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("clips directory %q not found", c.Video.Dir),
		})
	}

	if !c.Music.Disabled {
		music := resolve(projectRoot, c.Music.MusicSubdir())
		if info, err := os.Stat(music); err != nil || !info.IsDir() {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("music directory %q not found; output will have no background music", c.Music.MusicSubdir()),
			})
		}
	}
	return results
}

func (c Config) validateGenerate() []ValidationResult {
	var results []ValidationResult
	for _, ep := range []struct {
		field string
		value string
	}{
		{"generate.endpoint", c.Generate.Endpoint},
		{"generate.status_endpoint", c.Generate.StatusURL},
	} {
		u, err := url.Parse(ep.value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("%s must be an http(s) URL (got %q)", ep.field, ep.value),
			})
		}
	}
	if c.Generate.PollIntervalS <= 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("generate.poll_interval_s must be > 0 (got %g)", c.Generate.PollIntervalS),
		})
	}
	if c.Generate.TimeoutS < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: "generate.timeout_s must be >= 0",
		})
	}
	if strings.TrimSpace(c.Generate.Prompt) == "" {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: "generate.prompt is empty",
		})
	}
	return results
}

func resolve(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}
