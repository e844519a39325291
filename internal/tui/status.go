package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// StatusWriter redraws a single spinner line in place. The generate command
// uses it while a remote task is being polled.
type StatusWriter struct {
	w       io.Writer
	mu      sync.Mutex
	message string
	started time.Time
	done    chan struct{}
	exited  chan struct{}
	stopped bool
}

// NewStatusWriter starts the spinner goroutine.
func NewStatusWriter(w io.Writer) *StatusWriter {
	sw := &StatusWriter{
		w:       w,
		started: time.Now(),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go sw.loop()
	return sw
}

// Update replaces the message. The elapsed counter keeps running from when
// the writer was created.
func (sw *StatusWriter) Update(format string, args ...any) {
	sw.mu.Lock()
	sw.message = fmt.Sprintf(format, args...)
	sw.mu.Unlock()
}

// Stop waits for the spinner goroutine to exit, clears the line and, if final
// is non-empty, prints it on its own line.
func (sw *StatusWriter) Stop(final string) {
	sw.mu.Lock()
	if sw.stopped {
		sw.mu.Unlock()
		return
	}
	sw.stopped = true
	sw.mu.Unlock()
	close(sw.done)
	<-sw.exited

	fmt.Fprint(sw.w, "\r\033[K")
	if final != "" {
		fmt.Fprintln(sw.w, final)
	}
}

func (sw *StatusWriter) loop() {
	defer close(sw.exited)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-sw.done:
			return
		case <-ticker.C:
			sw.mu.Lock()
			msg := sw.message
			sw.mu.Unlock()
			fmt.Fprintf(sw.w, "\r\033[K%s %s (%s)", spinnerFrames[frame%len(spinnerFrames)], msg, formatElapsed(time.Since(sw.started)))
		}
	}
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
