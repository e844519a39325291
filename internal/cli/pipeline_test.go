package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"longform/internal/config"
	"longform/internal/media"
	"longform/internal/render"
	"longform/internal/timeline"
)

// fakeTools answers ffprobe from a duration table and makes ffmpeg write its
// output file.
type fakeTools struct {
	mu        sync.Mutex
	durations map[string]float64
	silent    map[string]bool
	ffmpeg    [][]string
}

func (f *fakeTools) Run(_ context.Context, command string, args []string, _ media.RunOptions) (media.RunResult, error) {
	switch filepath.Base(command) {
	case "ffprobe":
		name := filepath.Base(args[len(args)-1])
		d, ok := f.durations[name]
		if !ok {
			return media.RunResult{}, &media.RunError{Command: "ffprobe", Err: errors.New("exit status 1")}
		}
		streams := `{"codec_type":"video","codec_name":"h264"}`
		if !f.silent[name] {
			streams += `,{"codec_type":"audio","codec_name":"aac"}`
		}
		out := fmt.Sprintf(`{"format":{"format_name":"mov,mp4","duration":"%g"},"streams":[%s]}`, d, streams)
		return media.RunResult{Stdout: []byte(out)}, nil
	case "ffmpeg":
		f.mu.Lock()
		f.ffmpeg = append(f.ffmpeg, slices.Clone(args))
		f.mu.Unlock()
		if err := os.WriteFile(args[len(args)-1], []byte("video"), 0o644); err != nil {
			return media.RunResult{}, err
		}
		return media.RunResult{}, nil
	}
	return media.RunResult{}, fmt.Errorf("unexpected command %s", command)
}

func (f *fakeTools) ffmpegCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ffmpeg)
}

func installFakeTools(t *testing.T, f *fakeTools) {
	t.Helper()
	prevMeasurer, prevRender := newMeasurer, newRenderService
	t.Cleanup(func() { newMeasurer, newRenderService = prevMeasurer, prevRender })

	newMeasurer = func(s *session) (media.Measurer, error) {
		return media.NewProber(f, "ffprobe", s.logger), nil
	}
	newRenderService = func(s *session) (*render.Service, error) {
		svc, err := render.NewService(s.pp, s.cfg, f, "ffmpeg", s.logger)
		if err != nil {
			return nil, err
		}
		svc.Now = func() time.Time { return time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC) }
		return svc, nil
	}
}

func newTestProject(t *testing.T, f *fakeTools) string {
	t.Helper()
	root := t.TempDir()
	f.durations = map[string]float64{
		"a.mp4": 600, "b.mp4": 900, "c.mp4": 1200,
		"t1.mp3": 200, "t2.mp3": 300,
	}
	for name := range f.durations {
		dir := "clips"
		if strings.HasSuffix(name, ".mp3") {
			dir = filepath.Join("audio", "generated")
		}
		path := filepath.Join(root, dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

type planJSON struct {
	TargetS  float64           `json:"target_s"`
	Covered  bool              `json:"covered"`
	Seed     *uint64           `json:"seed"`
	Graph    string            `json:"render_graph"`
	Timeline timeline.Timeline `json:"timeline"`
}

func TestPlanJSONCoversTarget(t *testing.T) {
	tools := &fakeTools{}
	root := newTestProject(t, tools)
	installFakeTools(t, tools)

	stdout, _, err := runCLI(t, "", "--project", root, "--json", "plan", "--target", "1000", "--seed", "7")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var got planJSON
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}

	tl := got.Timeline
	if !got.Covered || tl.VideoDuration < 1000 {
		t.Fatalf("video total %v does not cover target", tl.VideoDuration)
	}
	if got.Seed == nil || *got.Seed != 7 {
		t.Fatalf("seed = %v", got.Seed)
	}
	if got.Graph != "native+music" || tl.Graph != timeline.GraphNativeWithMusic {
		t.Fatalf("graph = %s / %s", got.Graph, tl.Graph)
	}
	if len(tl.Music) == 0 || tl.Music[0].Start != 0 {
		t.Fatalf("music must start at zero: %+v", tl.Music)
	}
	for i := 1; i < len(tl.Music); i++ {
		if math.Abs(tl.Music[i].Start-tl.Music[i-1].End()) > 1e-9 {
			t.Fatalf("placement %d starts at %v, previous ends at %v", i, tl.Music[i].Start, tl.Music[i-1].End())
		}
	}
	last := tl.Music[len(tl.Music)-1]
	if last.Start >= tl.VideoDuration || last.End() < tl.VideoDuration {
		t.Fatalf("last placement %v..%v does not straddle %v", last.Start, last.End(), tl.VideoDuration)
	}
	for _, pl := range tl.Music {
		if pl.Volume != 0.3 {
			t.Fatalf("volume = %v, want config default 0.3", pl.Volume)
		}
	}
}

func TestPlanSeedIsReproducible(t *testing.T) {
	tools := &fakeTools{}
	root := newTestProject(t, tools)
	installFakeTools(t, tools)

	args := []string{"--project", root, "--json", "plan", "--target", "1400", "--seed", "99"}
	first, _, err := runCLI(t, "", args...)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := runCLI(t, "", args...)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("seeded plans differ:\n%s\n%s", first, second)
	}
}

func TestPlanTextOutput(t *testing.T) {
	tools := &fakeTools{}
	root := newTestProject(t, tools)
	installFakeTools(t, tools)

	stdout, stderr, err := runCLI(t, "", "--project", root, "plan", "--no-music", "--target", "100")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, want := range []string{"Video: 1 clips", "Music: disabled", "Audio: native"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "Probing clips: 3 files in clips") {
		t.Fatalf("expected plain probe progress on stderr, got:\n%s", stderr)
	}
	if strings.Contains(stderr, "t1.mp3") {
		t.Fatalf("music must not be probed with --no-music:\n%s", stderr)
	}
}

func TestPlanRejectsBadFlags(t *testing.T) {
	tools := &fakeTools{}
	root := newTestProject(t, tools)
	installFakeTools(t, tools)

	if _, _, err := runCLI(t, "", "--project", root, "plan", "--volume", "1.5"); !errors.Is(err, timeline.ErrInvalidVolume) {
		t.Fatalf("expected ErrInvalidVolume, got %v", err)
	}
	for _, genre := range []string{"../x", "..", "."} {
		if _, _, err := runCLI(t, "", "--project", root, "plan", "--genre", genre); !errors.Is(err, config.ErrInvalidGenre) {
			t.Fatalf("genre %q: expected ErrInvalidGenre, got %v", genre, err)
		}
	}
	if _, _, err := runCLI(t, "", "--project", root, "plan", "--target", "-1"); err == nil {
		t.Fatal("expected target error")
	}
}

func TestPlanEmptyClipsDir(t *testing.T) {
	installFakeTools(t, &fakeTools{})
	_, _, err := runCLI(t, "", "--project", t.TempDir(), "plan")
	if !errors.Is(err, timeline.ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
}

func TestAssembleRendersAndReuses(t *testing.T) {
	tools := &fakeTools{}
	root := newTestProject(t, tools)
	installFakeTools(t, tools)
	out := filepath.Join(root, "out.mp4")

	args := []string{"--project", root, "assemble", "--target", "1000", "--seed", "3", "--out", out}
	stdout, _, err := runCLI(t, "", args...)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(stdout, "Wrote out.mp4") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}
	if tools.ffmpegCalls() != 2 {
		t.Fatalf("expected concat + mix, got %d ffmpeg calls", tools.ffmpegCalls())
	}
	if _, err := os.Stat(filepath.Join(root, "out.timeline.yaml")); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}

	stdout, _, err = runCLI(t, "", args...)
	if err != nil {
		t.Fatalf("second assemble: %v", err)
	}
	if !strings.Contains(stdout, "Up to date: out.mp4") || tools.ffmpegCalls() != 2 {
		t.Fatalf("expected reuse without ffmpeg, calls=%d:\n%s", tools.ffmpegCalls(), stdout)
	}

	if _, _, err := runCLI(t, "", append(args, "--force")...); err != nil {
		t.Fatalf("forced assemble: %v", err)
	}
	if tools.ffmpegCalls() != 4 {
		t.Fatalf("--force should render again, calls=%d", tools.ffmpegCalls())
	}
}

func TestAssembleJSON(t *testing.T) {
	tools := &fakeTools{}
	root := newTestProject(t, tools)
	tools.silent = map[string]bool{"a.mp4": true}
	installFakeTools(t, tools)

	stdout, _, err := runCLI(t, "", "--project", root, "--json", "assemble", "--no-music", "--target", "5000")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	var result render.Result
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if result.Graph != timeline.GraphSilent || result.Mixed {
		t.Fatalf("a silent clip in the selection should render silent, got %s", result.Graph)
	}
	if want := filepath.Join(root, "output", "videos", "20240501_2030_final_video.mp4"); result.OutputPath != want {
		t.Fatalf("output = %s, want %s", result.OutputPath, want)
	}
	if result.DurationS != 2700 {
		t.Fatalf("duration = %v, want the whole pool", result.DurationS)
	}
}

func writeGenerateConfig(t *testing.T, root, baseURL string) {
	t.Helper()
	cfg := config.Default()
	cfg.Generate.Endpoint = baseURL + "/generate"
	cfg.Generate.StatusURL = baseURL + "/query"
	cfg.Generate.PollIntervalS = 0.001
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "longform.yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newGenerateServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"id":"task-1","status":"preparing"}`)
	})
	mux.HandleFunc("GET /query/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":%q,"status":"succeeded","choices":[{"url":%q},{"url":%q}]}`,
			r.PathValue("id"), srv.URL+"/files/one.mp3", srv.URL+"/files/two.mp3")
	})
	mux.HandleFunc("GET /files/{name}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ID3")
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateAsksForGenre(t *testing.T) {
	srv := newGenerateServer(t)
	root := t.TempDir()
	writeGenerateConfig(t, root, srv.URL)
	t.Setenv(config.APIKeyEnv, "secret")

	stdout, stderr, err := runCLI(t, "Lofi\n", "--project", root, "generate", "--prompt", "Warm Rhodes, no drums!")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "Genre folder") || !strings.Contains(stdout, "saved 2 track(s)") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}
	if !strings.Contains(stderr, "task task-1: succeeded") {
		t.Fatalf("expected plain status line, got:\n%s", stderr)
	}
	for _, n := range []string{"1", "2"} {
		matches, _ := filepath.Glob(filepath.Join(root, "audio", "generated", "lofi", "*_warm_rhodes_no_drums_"+n+".mp3"))
		if len(matches) != 1 {
			t.Fatalf("track %s not saved: %v", n, matches)
		}
	}
}

func TestGenerateMissingKey(t *testing.T) {
	srv := newGenerateServer(t)
	root := t.TempDir()
	writeGenerateConfig(t, root, srv.URL)
	t.Setenv(config.APIKeyEnv, "")

	_, _, err := runCLI(t, "", "--project", root, "generate", "--genre", "jazz")
	if err == nil || !strings.Contains(err.Error(), config.APIKeyEnv) {
		t.Fatalf("expected missing key error naming %s, got %v", config.APIKeyEnv, err)
	}
}

func TestGenerateEmptyGenre(t *testing.T) {
	root := t.TempDir()
	t.Setenv(config.APIKeyEnv, "secret")
	if _, _, err := runCLI(t, "\n", "--project", root, "generate"); err == nil {
		t.Fatal("expected empty genre error")
	}
}
