package timeline

import "fmt"

// SelectedSegment is a clip at its position in the final concatenation.
type SelectedSegment struct {
	Item     MediaItem `json:"item" yaml:"item"`
	Position int       `json:"position" yaml:"position"` // 1-based
	Start    float64   `json:"start_s" yaml:"start_s"`
}

// Selection is the ordered video clip list and its summed duration.
type Selection struct {
	Segments []SelectedSegment
	Total    float64
	// Target is the requested duration. Total may be below it when the pool
	// is too small, or above it by up to one clip.
	Target float64
}

// Covered reports whether the selection reached the target.
func (s Selection) Covered() bool {
	return s.Total >= s.Target
}

// Items returns the selected media in order.
func (s Selection) Items() []MediaItem {
	items := make([]MediaItem, len(s.Segments))
	for i, seg := range s.Segments {
		items[i] = seg.Item
	}
	return items
}

// SelectVideo shuffles a copy of pool once and takes clips in that order until
// their summed duration reaches target. Clips are never repeated: when the
// whole pool is shorter than target, every clip is returned.
//
// A NaN or infinite target fails with ErrInvalidTarget, and a clip whose
// duration is NaN or infinite fails with a *DegenerateItemError.
func SelectVideo(pool []MediaItem, target float64, shuffler Shuffler) (Selection, error) {
	if len(pool) == 0 {
		return Selection{}, ErrEmptyPool
	}
	if !finite(target) {
		return Selection{}, fmt.Errorf("%w (got %v)", ErrInvalidTarget, target)
	}
	var bad []MediaItem
	for _, item := range pool {
		if !finite(item.Duration) {
			bad = append(bad, item)
		}
	}
	if len(bad) > 0 {
		return Selection{}, &DegenerateItemError{Items: bad}
	}
	if shuffler == nil {
		shuffler = RandomOrder{}
	}

	order := clonePool(pool)
	shuffler.Shuffle(order)

	sel := Selection{Target: target}
	for _, item := range order {
		sel.Segments = append(sel.Segments, SelectedSegment{
			Item:     item,
			Position: len(sel.Segments) + 1,
			Start:    sel.Total,
		})
		sel.Total += item.Duration
		if sel.Total >= target {
			break
		}
	}
	return sel, nil
}
