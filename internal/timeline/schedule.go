package timeline

import "fmt"

// Placement is a background track laid on the timeline.
type Placement struct {
	Item   MediaItem `json:"item" yaml:"item"`
	Start  float64   `json:"start_s" yaml:"start_s"`
	Volume float64   `json:"volume" yaml:"volume"`
	Pass   int       `json:"pass" yaml:"pass"`
}

// End is the time the track stops playing.
func (p Placement) End() float64 {
	return p.Start + p.Item.Duration
}

// AudioSchedule is the background music layer.
type AudioSchedule struct {
	Placements []Placement
	// HasMusic is true whenever the music pool was non-empty.
	HasMusic bool
	// Skipped holds pool items that were left out for having no duration.
	Skipped []MediaItem
	Target  float64
}

// End returns the end time of the last placement, or zero.
func (s AudioSchedule) End() float64 {
	if len(s.Placements) == 0 {
		return 0
	}
	return s.Placements[len(s.Placements)-1].End()
}

// Overshoot is how far the music runs past the target.
func (s AudioSchedule) Overshoot() float64 {
	if over := s.End() - s.Target; over > 0 {
		return over
	}
	return 0
}

// ValidateVolume checks a volume scalar is in (0, 1].
func ValidateVolume(volume float64) error {
	if !(volume > 0 && volume <= 1) {
		return ErrInvalidVolume
	}
	return nil
}

// ScheduleAudio lays tracks back to back from offset zero until the next
// start offset reaches target. Tracks come from a Cycle over pool, so the pool
// is re-shuffled and repeated as often as needed. The last track is not
// trimmed and may run past target.
//
// An empty pool yields an empty schedule with HasMusic false. Items with no
// positive duration are skipped; if none remain, the error wraps
// ErrDegenerateItem. A NaN or infinite target fails with ErrInvalidTarget.
func ScheduleAudio(pool []MediaItem, target, volume float64, shuffler Shuffler) (AudioSchedule, error) {
	if !finite(target) {
		return AudioSchedule{}, fmt.Errorf("%w (got %v)", ErrInvalidTarget, target)
	}
	sched := AudioSchedule{Target: target}
	if len(pool) == 0 {
		return sched, nil
	}
	if err := ValidateVolume(volume); err != nil {
		return AudioSchedule{}, err
	}
	sched.HasMusic = true

	usable := make([]MediaItem, 0, len(pool))
	for _, item := range pool {
		if item.usable() {
			usable = append(usable, item)
		} else {
			sched.Skipped = append(sched.Skipped, item)
		}
	}
	if len(usable) == 0 {
		return AudioSchedule{}, &DegenerateItemError{Items: sched.Skipped}
	}

	cycle, err := NewCycle(usable, shuffler)
	if err != nil {
		return AudioSchedule{}, err
	}

	start := 0.0
	for start < target {
		item := cycle.Next()
		sched.Placements = append(sched.Placements, Placement{
			Item:   item,
			Start:  start,
			Volume: volume,
			Pass:   cycle.Pass(),
		})
		start += item.Duration
	}
	return sched, nil
}
