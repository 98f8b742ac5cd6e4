package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("serializes one key", func(t *testing.T) {
		k := NewKeyedLocker()
		id := uuid.New()
		counter := 0

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := k.Lock(ctx, id)
				if !assert.NoError(t, err) {
					return
				}
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 50, counter)
		assert.Equal(t, 0, k.Len())
	})

	t.Run("distinct keys do not contend", func(t *testing.T) {
		k := NewKeyedLocker()
		unlockA, err := k.Lock(ctx, uuid.New())
		require.NoError(t, err)
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlockB, err := k.Lock(ctx, uuid.New())
			if err == nil {
				unlockB()
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on a second game blocked")
		}
		assert.Equal(t, 1, k.Len())
	})

	t.Run("readers share", func(t *testing.T) {
		k := NewKeyedLocker()
		id := uuid.New()
		r1, err := k.RLock(ctx, id)
		require.NoError(t, err)
		r2, err := k.RLock(ctx, id)
		require.NoError(t, err)
		r1()
		r2()
		assert.Equal(t, 0, k.Len())
	})

	t.Run("cancelled context", func(t *testing.T) {
		k := NewKeyedLocker()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := k.Lock(cctx, uuid.New())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("waiting writer gives up when its context expires", func(t *testing.T) {
		k := NewKeyedLocker()
		id := uuid.New()
		unlock, err := k.Lock(ctx, id)
		require.NoError(t, err)

		wctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err = k.Lock(wctx, id)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 1, k.Len())

		unlock()
		assert.Equal(t, 0, k.Len())
	})

	t.Run("waiting reader gives up while a writer holds the game", func(t *testing.T) {
		k := NewKeyedLocker()
		id := uuid.New()
		unlock, err := k.Lock(ctx, id)
		require.NoError(t, err)
		defer unlock()

		rctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = k.RLock(rctx, id)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("writer waits for readers", func(t *testing.T) {
		k := NewKeyedLocker()
		id := uuid.New()
		runlock, err := k.RLock(ctx, id)
		require.NoError(t, err)

		acquired := make(chan func())
		go func() {
			unlock, err := k.Lock(ctx, id)
			if err == nil {
				acquired <- unlock
			}
		}()

		select {
		case <-acquired:
			t.Fatal("writer entered while a reader held the game")
		case <-time.After(20 * time.Millisecond):
		}
		runlock()
		select {
		case unlock := <-acquired:
			unlock()
		case <-time.After(time.Second):
			t.Fatal("writer never acquired the game")
		}
		assert.Equal(t, 0, k.Len())
	})
}
