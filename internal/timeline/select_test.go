package timeline

import (
	"errors"
	"math"
	"testing"
)

func items(durations map[string]float64, order ...string) []MediaItem {
	out := make([]MediaItem, len(order))
	for i, name := range order {
		out[i] = MediaItem{Path: "/pool/" + name, Duration: durations[name], HasAudio: true}
	}
	return out
}

func names(segs []SelectedSegment) []string {
	out := make([]string, len(segs))
	for i, seg := range segs {
		out[i] = seg.Item.Name()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelectVideo(t *testing.T) {
	tests := []struct {
		name      string
		pool      []MediaItem
		target    float64
		want      []string
		wantTotal float64
		wantErr   error
	}{
		{
			name:      "stops at first prefix reaching target",
			pool:      items(map[string]float64{"A": 1000, "B": 1200, "C": 500}, "A", "B", "C"),
			target:    2000,
			want:      []string{"A", "B"},
			wantTotal: 2200,
		},
		{
			name:      "partial coverage returns whole pool",
			pool:      items(map[string]float64{"A": 500}, "A"),
			target:    2000,
			want:      []string{"A"},
			wantTotal: 500,
		},
		{
			name:    "empty pool",
			pool:    nil,
			target:  2000,
			wantErr: ErrEmptyPool,
		},
		{
			name:      "exact hit stops without extra clip",
			pool:      items(map[string]float64{"A": 1000, "B": 1000, "C": 1000}, "A", "B", "C"),
			target:    2000,
			want:      []string{"A", "B"},
			wantTotal: 2000,
		},
		{
			name:      "zero target still takes one clip",
			pool:      items(map[string]float64{"A": 10, "B": 20}, "A", "B"),
			target:    0,
			want:      []string{"A"},
			wantTotal: 10,
		},
		{
			name:      "zero duration clips pass through",
			pool:      items(map[string]float64{"A": 0, "B": 30}, "A", "B"),
			target:    20,
			want:      []string{"A", "B"},
			wantTotal: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := SelectVideo(tt.pool, tt.target, IdentityOrder{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectVideo: %v", err)
			}
			if got := names(sel.Segments); !equalStrings(got, tt.want) {
				t.Fatalf("selection = %v, want %v", got, tt.want)
			}
			if sel.Total != tt.wantTotal {
				t.Fatalf("total = %v, want %v", sel.Total, tt.wantTotal)
			}
		})
	}
}

func TestSelectVideoPositionsAndStarts(t *testing.T) {
	pool := items(map[string]float64{"A": 1000, "B": 1200, "C": 500}, "A", "B", "C")
	sel, err := SelectVideo(pool, 5000, IdentityOrder{})
	if err != nil {
		t.Fatalf("SelectVideo: %v", err)
	}
	wantStarts := []float64{0, 1000, 2200}
	for i, seg := range sel.Segments {
		if seg.Position != i+1 {
			t.Fatalf("segment %d position = %d", i, seg.Position)
		}
		if seg.Start != wantStarts[i] {
			t.Fatalf("segment %d start = %v, want %v", i, seg.Start, wantStarts[i])
		}
	}
	if sel.Covered() {
		t.Fatalf("expected partial coverage for target 5000")
	}
}

func TestSelectVideoDoesNotMutatePool(t *testing.T) {
	pool := items(map[string]float64{"A": 1, "B": 2, "C": 3, "D": 4}, "A", "B", "C", "D")
	before := clonePool(pool)

	if _, err := SelectVideo(pool, 100, NewSeededOrder(7)); err != nil {
		t.Fatalf("SelectVideo: %v", err)
	}
	for i := range pool {
		if pool[i] != before[i] {
			t.Fatalf("pool mutated at %d: %v != %v", i, pool[i], before[i])
		}
	}
}

func TestSelectVideoMinimalPrefixProperty(t *testing.T) {
	pool := make([]MediaItem, 0, 40)
	for i := 0; i < 40; i++ {
		pool = append(pool, MediaItem{Path: "clip", Duration: float64(30 + (i*37)%250)})
	}
	total := TotalDuration(pool)

	for seed := uint64(0); seed < 50; seed++ {
		for _, target := range []float64{1, 600, 3600, total, total + 1} {
			sel, err := SelectVideo(pool, target, NewSeededOrder(seed))
			if err != nil {
				t.Fatalf("seed %d: %v", seed, err)
			}
			if len(sel.Segments) == 0 {
				t.Fatalf("seed %d target %v: empty selection", seed, target)
			}
			if total >= target {
				if sel.Total < target {
					t.Fatalf("seed %d target %v: total %v below target", seed, target, sel.Total)
				}
				withoutLast := sel.Total - sel.Segments[len(sel.Segments)-1].Item.Duration
				if withoutLast >= target {
					t.Fatalf("seed %d target %v: selection not minimal (%v without last)", seed, target, withoutLast)
				}
			} else if len(sel.Segments) != len(pool) {
				t.Fatalf("seed %d target %v: expected whole pool, got %d", seed, target, len(sel.Segments))
			}
		}
	}
}

func TestSeededOrderReproducible(t *testing.T) {
	pool := items(map[string]float64{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5}, "A", "B", "C", "D", "E")
	first, err := SelectVideo(pool, 100, NewSeededOrder(42))
	if err != nil {
		t.Fatalf("SelectVideo: %v", err)
	}
	second, err := SelectVideo(pool, 100, NewSeededOrder(42))
	if err != nil {
		t.Fatalf("SelectVideo: %v", err)
	}
	if !equalStrings(names(first.Segments), names(second.Segments)) {
		t.Fatalf("same seed gave different orders: %v vs %v", names(first.Segments), names(second.Segments))
	}
}

func TestSelectVideoRejectsNonFiniteDurations(t *testing.T) {
	pool := []MediaItem{
		{Path: "/pool/a.mp4", Duration: math.Inf(1)},
		{Path: "/pool/b.mp4", Duration: 30},
	}
	_, err := SelectVideo(pool, 3600, IdentityOrder{})
	var degenerate *DegenerateItemError
	if !errors.As(err, &degenerate) || !errors.Is(err, ErrDegenerateItem) {
		t.Fatalf("expected *DegenerateItemError, got %v", err)
	}
	if len(degenerate.Items) != 1 || degenerate.Items[0].Name() != "a.mp4" {
		t.Fatalf("unexpected degenerate items %+v", degenerate.Items)
	}

	if _, err := SelectVideo(pool[1:], math.NaN(), IdentityOrder{}); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for NaN target, got %v", err)
	}
}
