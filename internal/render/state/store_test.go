package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	rs, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Runs) != 0 {
		t.Errorf("expected no runs, got %d", len(rs.Runs))
	}
}

func TestLoadCorruptFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Runs == nil || len(rs.Runs) != 0 {
		t.Errorf("expected empty runs map, got %v", rs.Runs)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta", "render_state.json")
	output := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(output, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	now := time.Now().Truncate(time.Second)
	rs := emptyState()
	rs.Record("sha256:abc", RunState{RunID: "run-1", Output: output, RenderedAt: now, DurationS: 3605.5})
	if err := rs.Save(path); err != nil {
		t.Fatalf("save error: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be renamed away")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	run, ok := loaded.Lookup("sha256:abc")
	if !ok {
		t.Fatal("expected recorded run")
	}
	if run.RunID != "run-1" || run.DurationS != 3605.5 || !run.RenderedAt.Equal(now) {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestLookupIgnoresMissingOutput(t *testing.T) {
	rs := emptyState()
	rs.Record("sha256:gone", RunState{RunID: "run-2", Output: filepath.Join(t.TempDir(), "deleted.mp4")})
	if _, ok := rs.Lookup("sha256:gone"); ok {
		t.Fatal("a run whose output was deleted must not be reused")
	}
	if _, ok := rs.Lookup("sha256:unknown"); ok {
		t.Fatal("unknown hash should miss")
	}
}
