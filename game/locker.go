package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/semaphore"
)

// Locker serializes mutations of a single game. Distinct games never contend.
type Locker interface {
	// Lock acquires exclusive access to the game. The returned func releases it.
	Lock(ctx context.Context, gameID uuid.UUID) (func(), error)

	// RLock acquires shared access for taking a consistent snapshot.
	RLock(ctx context.Context, gameID uuid.UUID) (func(), error)
}

// writerWeight is the full capacity of a game's semaphore. A writer takes all of it and a
// reader takes one unit, so readers share and a writer excludes everyone.
const writerWeight = 1 << 20

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// KeyedLocker is an in-process Locker holding one weighted semaphore per game id.
// Waiting honours ctx. Entries are dropped once nobody holds or waits on them.
type KeyedLocker struct {
	entries map[uuid.UUID]*lockEntry
	mu      deadlock.Mutex
}

// NewKeyedLocker returns an empty lock registry.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[uuid.UUID]*lockEntry)}
}

// Lock implements Locker.
func (k *KeyedLocker) Lock(ctx context.Context, gameID uuid.UUID) (func(), error) {
	return k.take(ctx, gameID, writerWeight)
}

// RLock implements Locker.
func (k *KeyedLocker) RLock(ctx context.Context, gameID uuid.UUID) (func(), error) {
	return k.take(ctx, gameID, 1)
}

func (k *KeyedLocker) take(ctx context.Context, gameID uuid.UUID, weight int64) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := k.acquire(gameID)
	if err := e.sem.Acquire(ctx, weight); err != nil {
		k.release(gameID)
		return nil, fmt.Errorf("waiting for game %s: %w", gameID, err)
	}
	return func() {
		e.sem.Release(weight)
		k.release(gameID)
	}, nil
}

// Len returns the number of games with a live lock entry.
func (k *KeyedLocker) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *KeyedLocker) acquire(gameID uuid.UUID) *lockEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[gameID]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(writerWeight)}
		k.entries[gameID] = e
	}
	e.refs++
	return e
}

func (k *KeyedLocker) release(gameID uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[gameID]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, gameID)
	}
}
