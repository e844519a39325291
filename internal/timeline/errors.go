package timeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPool is returned when there are no video clips to select from.
	ErrEmptyPool = errors.New("empty pool: no media items to select")
	// ErrDegenerateItem marks items that cannot advance a timeline.
	ErrDegenerateItem = errors.New("degenerate media item")
	// ErrInvalidVolume is returned for volume scalars outside (0, 1].
	ErrInvalidVolume = errors.New("volume must be greater than 0 and at most 1")
	// ErrInvalidTarget is returned for a NaN or infinite target duration.
	ErrInvalidTarget = errors.New("target duration must be a finite number")
)

// DegenerateItemError lists the items of a pool whose duration is not
// strictly positive.
type DegenerateItemError struct {
	Items []MediaItem
}

func (e *DegenerateItemError) Error() string {
	names := make([]string, len(e.Items))
	for i, item := range e.Items {
		names[i] = fmt.Sprintf("%s (%.2fs)", item.Name(), item.Duration)
	}
	return fmt.Sprintf("%s: no usable duration in %s", ErrDegenerateItem, strings.Join(names, ", "))
}

func (e *DegenerateItemError) Unwrap() error {
	return ErrDegenerateItem
}
