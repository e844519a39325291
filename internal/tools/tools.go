package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// ToolInfo captures availability and version details for an external tool.
type ToolInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Minimum   string `json:"minimum,omitempty"`
	Satisfied bool   `json:"satisfied"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// KnownTools lists the binaries longform shells out to.
func KnownTools() []string {
	return []string{"ffmpeg", "ffprobe"}
}

// envOverride maps a tool to the environment variable that can point at a
// specific binary.
func envOverride(name string) string {
	return "LONGFORM_" + strings.ToUpper(name)
}

// Lookup resolves the path to a tool, preferring LONGFORM_FFMPEG /
// LONGFORM_FFPROBE when set.
func Lookup(name string) (string, error) {
	if override := strings.TrimSpace(os.Getenv(envOverride(name))); override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%s from %s: %w", name, envOverride(name), err)
		}
		return override, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s not found in PATH; install ffmpeg or set %s", name, envOverride(name))
		}
		return "", err
	}
	return path, nil
}

// Probe discovers tool availability and version information.
func Probe(ctx context.Context) []ToolInfo {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	var result []ToolInfo
	for _, name := range KnownTools() {
		result = append(result, probeOne(ctx, name))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Missing returns the names of tools that are not available or older than
// their minimum version.
func Missing(infos []ToolInfo) []string {
	var missing []string
	for _, info := range infos {
		if !info.Available || !info.Satisfied {
			missing = append(missing, info.Name)
		}
	}
	return missing
}

func probeOne(ctx context.Context, name string) ToolInfo {
	minimum := MinimumVersion(name)
	path, err := Lookup(name)
	if err != nil {
		return ToolInfo{Name: name, Minimum: minimum, Available: false, Error: err.Error()}
	}

	version, err := readVersion(ctx, path)
	if err != nil {
		// An unreadable version is reported but not held against the tool.
		return ToolInfo{Name: name, Path: path, Minimum: minimum, Satisfied: true, Available: true, Error: err.Error()}
	}

	return ToolInfo{
		Name:      name,
		Path:      path,
		Version:   version,
		Minimum:   minimum,
		Satisfied: MeetsMinimum(version, minimum),
		Available: true,
	}
}

func readVersion(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, path, "-version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	line := firstLine(strings.TrimSpace(string(output)))
	return normalizeVersionLine(line), nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

// normalizeVersionLine extracts "6.1.1" from
// "ffmpeg version 6.1.1 Copyright (c) ...".
func normalizeVersionLine(line string) string {
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[1] == "version" {
		return fields[2]
	}
	return line
}
