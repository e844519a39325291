package logx

import (
	"os"
	"strings"
	"testing"

	"longform/internal/paths"
)

func TestNewWritesIntoLogsDir(t *testing.T) {
	pp, err := paths.Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	logger, closer, err := New(pp, "assemble")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Printf("hello %d", 42)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(pp.LogsDir)
	if err != nil {
		t.Fatalf("read logs dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), "-assemble.log") {
		t.Fatalf("unexpected log files: %v", entries)
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("expected a logger")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Fatal("expected the same logger back")
	}
}
