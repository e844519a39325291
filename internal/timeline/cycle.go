package timeline

// Cycle yields items from repeated independent shuffles of the same pool.
// The first pass uses one shuffle; every time the order is exhausted the pool
// is shuffled again, so the sequence never ends.
type Cycle struct {
	order    []MediaItem
	shuffler Shuffler
	pos      int
	pass     int
}

// NewCycle copies pool and shuffles it once. Every item in pool must have a
// strictly positive duration, otherwise the returned error wraps
// ErrDegenerateItem.
func NewCycle(pool []MediaItem, shuffler Shuffler) (*Cycle, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	var bad []MediaItem
	for _, item := range pool {
		if !item.usable() {
			bad = append(bad, item)
		}
	}
	if len(bad) > 0 {
		return nil, &DegenerateItemError{Items: bad}
	}
	if shuffler == nil {
		shuffler = RandomOrder{}
	}

	order := clonePool(pool)
	shuffler.Shuffle(order)
	return &Cycle{order: order, shuffler: shuffler, pass: 1}, nil
}

// Next returns the next item, reshuffling first when the current pass is
// exhausted.
func (c *Cycle) Next() MediaItem {
	if c.pos == len(c.order) {
		c.shuffler.Shuffle(c.order)
		c.pos = 0
		c.pass++
	}
	item := c.order[c.pos]
	c.pos++
	return item
}

// Pass reports the 1-based shuffle pass the last returned item came from.
func (c *Cycle) Pass() int {
	return c.pass
}

// PassDuration is the duration a full pass contributes. It is always
// positive, which bounds the number of passes needed to reach any target.
func (c *Cycle) PassDuration() float64 {
	return TotalDuration(c.order)
}
