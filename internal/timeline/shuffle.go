package timeline

import "math/rand/v2"

// Shuffler reorders a pool in place.
type Shuffler interface {
	Shuffle(items []MediaItem)
}

// RandomOrder shuffles with the process-wide random source.
type RandomOrder struct{}

func (RandomOrder) Shuffle(items []MediaItem) {
	rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// IdentityOrder leaves items in discovery order. It makes selection and
// scheduling fully deterministic.
type IdentityOrder struct{}

func (IdentityOrder) Shuffle([]MediaItem) {}

// SeededOrder shuffles reproducibly from a fixed seed.
type SeededOrder struct {
	rng *rand.Rand
}

// NewSeededOrder returns a shuffler whose permutations depend only on seed.
func NewSeededOrder(seed uint64) *SeededOrder {
	return &SeededOrder{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SeededOrder) Shuffle(items []MediaItem) {
	s.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// ShufflerFor returns a seeded shuffler when seed is non-nil, otherwise a
// random one.
func ShufflerFor(seed *uint64) Shuffler {
	if seed == nil {
		return RandomOrder{}
	}
	return NewSeededOrder(*seed)
}
