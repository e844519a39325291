package acquire

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"longform/internal/config"
)

const slugLimit = 30

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Slug turns a prompt into the keyword part of a file name: words
// lowercased, joined with underscores and cut to 30 characters.
func Slug(prompt string) string {
	words := wordPattern.FindAllString(strings.ToLower(prompt), -1)
	runes := []rune(strings.Join(words, "_"))
	if len(runes) > slugLimit {
		runes = runes[:slugLimit]
	}
	return string(runes)
}

// FileName names the n-th (1-based) track of a generation.
func FileName(stamp time.Time, slug string, n int) string {
	return fmt.Sprintf("%s_%s_%d.mp3", stamp.Format("20060102_150405"), slug, n)
}

// NormalizeGenre lowercases and trims a genre label.
func NormalizeGenre(genre string) (string, error) {
	if err := config.ValidateGenre(genre); err != nil {
		return "", err
	}
	genre = config.NormalizeGenre(genre)
	if genre == "" {
		return "", ErrEmptyGenre
	}
	return genre, nil
}

// Result lists what a generation produced.
type Result struct {
	TaskID string   `json:"task_id"`
	Genre  string   `json:"genre"`
	Dir    string   `json:"dir"`
	Files  []string `json:"files"`
}

// Generate submits prompt, waits for the task to finish and saves every
// track under <OutputDir>/<genre>/. Tracks without a URL are skipped but
// keep their position in the numbering.
func (c *Client) Generate(ctx context.Context, genre, prompt string) (Result, error) {
	genre, err := NormalizeGenre(genre)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(prompt) == "" {
		return Result{}, fmt.Errorf("prompt must not be empty")
	}
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	stamp := c.opts.Now()
	slug := Slug(prompt)
	dir := filepath.Join(c.opts.OutputDir, genre)

	taskID, err := c.Submit(ctx, prompt)
	if err != nil {
		return Result{}, err
	}
	result := Result{TaskID: taskID, Genre: genre, Dir: dir}

	task, err := c.Wait(ctx, taskID)
	if err != nil {
		return result, err
	}
	if len(task.Choices) == 0 {
		return result, fmt.Errorf("task %s: %w", taskID, ErrNoChoices)
	}

	var items []download
	for i, choice := range task.Choices {
		if strings.TrimSpace(choice.URL) == "" {
			c.logger.Printf("task %s choice %d has no url, skipping", taskID, i+1)
			continue
		}
		items = append(items, download{URL: choice.URL, Path: filepath.Join(dir, FileName(stamp, slug, i+1))})
	}

	files, err := c.fetchAll(ctx, items)
	result.Files = files
	return result, err
}
