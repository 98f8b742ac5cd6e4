package dice

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandom(t *testing.T) {
	t.Run("rolls stay on the die", func(t *testing.T) {
		d := NewRandom(42)
		seen := map[int]bool{}
		for range 1000 {
			v := d.Roll()
			assert.GreaterOrEqual(t, v, 1)
			assert.LessOrEqual(t, v, Faces)
			seen[v] = true
		}
		assert.Len(t, seen, Faces)
	})

	t.Run("same seed same rolls", func(t *testing.T) {
		a, b := NewRandom(7), NewRandom(7)
		for range 50 {
			assert.Equal(t, a.Roll(), b.Roll())
		}
	})
}

func TestSequence(t *testing.T) {
	d := NewSequence(3, 6, 1)
	assert.Equal(t, []int{3, 6, 1, 3, 6}, []int{d.Roll(), d.Roll(), d.Roll(), d.Roll(), d.Roll()})

	assert.Equal(t, 1, NewSequence().Roll())
}

func TestConcurrentRolls(t *testing.T) {
	t.Run("dice keep their lock to themselves", func(t *testing.T) {
		_, random := any(NewRandom(1)).(sync.Locker)
		_, sequence := any(NewSequence(1)).(sync.Locker)
		assert.False(t, random)
		assert.False(t, sequence)
	})

	t.Run("sequence hands out every value once per lap", func(t *testing.T) {
		d := NewSequence(1, 2, 3, 4, 5, 6)
		counts := make([]int, Faces+1)
		var mu sync.Mutex
		var wg sync.WaitGroup
		for range 60 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v := d.Roll()
				mu.Lock()
				counts[v]++
				mu.Unlock()
			}()
		}
		wg.Wait()
		for face := 1; face <= Faces; face++ {
			assert.Equal(t, 10, counts[face], "face %d", face)
		}
	})
}
