package render

import (
	"path/filepath"
	"strings"
	"time"
)

// DefaultNameTemplate yields names like 20240501_2030_final_video.
const DefaultNameTemplate = "{date}_final_video"

// OutputName expands an output name template. Supported tokens are {date}
// (YYYYMMDD_HHMM), {time} (YYYYMMDD_HHMMSS) and {genre}.
func OutputName(template, genre string, now time.Time) string {
	template = strings.TrimSpace(template)
	if template == "" {
		template = DefaultNameTemplate
	}
	genreSlug := safeFileSlug(genre)
	if genreSlug == "" {
		genreSlug = "mixed"
	}
	name := strings.NewReplacer(
		"{date}", now.Format("20060102_1504"),
		"{time}", now.Format("20060102_150405"),
		"{genre}", genreSlug,
	).Replace(template)

	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if strings.TrimSpace(name) == "" {
		return now.Format("20060102_1504") + "_final_video"
	}
	return name
}

// OutputPath joins the output directory and an expanded template, adding the
// .mp4 extension.
func OutputPath(dir, template, genre string, now time.Time) string {
	return filepath.Join(dir, OutputName(template, genre, now)+".mp4")
}

// ManifestPath is where the timeline manifest for output is written.
func ManifestPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".timeline.yaml"
}

func safeFileSlug(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}

	var builder strings.Builder
	builder.Grow(len(value))

	lastDash := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if !lastDash && builder.Len() > 0 {
				builder.WriteByte('-')
				lastDash = true
			}
		}
	}

	slug := strings.Trim(builder.String(), "-")
	if len(slug) > 64 {
		slug = slug[:64]
	}
	return slug
}
