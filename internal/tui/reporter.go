package tui

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"longform/internal/media"
	"longform/internal/timeline"
)

// Columns used by the probe table.
var ProbeColumns = []Column{
	{Header: "FILE", Width: 40},
	{Header: "STATUS", Width: 10},
	{Header: "DURATION", Width: 9},
	{Header: "AUDIO", Width: 5},
}

// NewProbeModel builds a progress model with one pending row per file.
func NewProbeModel(title string, files []string) ProgressModel {
	m := NewProgressModel(title, ProbeColumns)
	for _, path := range files {
		m.AddRow(path, []string{filepath.Base(path), "pending", "-", "-"})
	}
	return m
}

// ProbeReporter forwards discovery events to a running ProgressModel.
type ProbeReporter struct {
	send func(tea.Msg)
}

// NewProbeReporter wraps a send callback such as the one RunWithWork hands
// to its work function.
func NewProbeReporter(send func(tea.Msg)) *ProbeReporter {
	return &ProbeReporter{send: send}
}

// Start implements media.Reporter.
func (r *ProbeReporter) Start(path string) {
	r.send(RowUpdateMsg{Key: path, Fields: map[string]string{"STATUS": "probing"}})
}

// Complete implements media.Reporter.
func (r *ProbeReporter) Complete(path string, item timeline.MediaItem, err error) {
	r.send(RowUpdateMsg{Key: path, Fields: completeFields(item, err), Seconds: measuredSeconds(item, err)})
}

// PlainReporter prints one line per finished file. It is used when the
// output is not a terminal.
type PlainReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPlainReporter writes completion lines to w.
func NewPlainReporter(w io.Writer) *PlainReporter {
	return &PlainReporter{w: w}
}

// Start implements media.Reporter.
func (r *PlainReporter) Start(string) {}

// Complete implements media.Reporter.
func (r *PlainReporter) Complete(path string, item timeline.MediaItem, err error) {
	fields := completeFields(item, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%-10s %9s  %s\n", fields["STATUS"], fields["DURATION"], path)
}

func completeFields(item timeline.MediaItem, err error) map[string]string {
	switch {
	case err != nil:
		return map[string]string{"STATUS": "error", "DURATION": "-", "AUDIO": "-"}
	case !(item.Duration > 0):
		return map[string]string{"STATUS": "degenerate", "DURATION": "0:00", "AUDIO": yesNo(item.HasAudio)}
	default:
		return map[string]string{"STATUS": "probed", "DURATION": FormatSeconds(item.Duration), "AUDIO": yesNo(item.HasAudio)}
	}
}

func measuredSeconds(item timeline.MediaItem, err error) float64 {
	if err != nil || !(item.Duration > 0) {
		return 0
	}
	return item.Duration
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

var (
	_ media.Reporter = (*ProbeReporter)(nil)
	_ media.Reporter = (*PlainReporter)(nil)
)
