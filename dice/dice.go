// Package dice produces die rolls for the game engine.
package dice

import (
	"math/rand/v2"

	"github.com/sasha-s/go-deadlock"
)

// Faces is the number of faces on the die.
const Faces = 6

// Die produces a single move length in [1, Faces].
type Die interface {
	Roll() int
}

// Random is a uniformly distributed die. It is safe for concurrent use.
type Random struct {
	rng *rand.Rand
	mu  deadlock.Mutex
}

// NewRandom returns a die seeded with seed. The same seed yields the same rolls.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roll implements Die.
func (r *Random) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(Faces) + 1
}

// Sequence replays a fixed list of values, wrapping around at the end.
type Sequence struct {
	values []int
	next   int
	mu     deadlock.Mutex
}

// NewSequence returns a die that yields values in order. With no values it always rolls 1.
func NewSequence(values ...int) *Sequence {
	if len(values) == 0 {
		values = []int{1}
	}
	return &Sequence{values: values}
}

// Roll implements Die.
func (s *Sequence) Roll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}
