// Package lock provides a per-game Locker shared by every API instance through Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL        = 8 * time.Second
	defaultTries      = 64
	defaultRetryDelay = 50 * time.Millisecond
	unlockTimeout     = 2 * time.Second
)

// RedisLocker holds one redsync mutex per game for the duration of a mutation.
type RedisLocker struct {
	locker     *redsync.Redsync
	ttl        time.Duration
	tries      int
	retryDelay time.Duration
	logger     i.Logger
}

type Config struct {
	Client     redis.UniversalClient
	TTL        time.Duration // lock expiry; a crashed holder blocks the game at most this long
	Tries      int
	RetryDelay time.Duration
	Logger     i.Logger
}

// NewRedisLocker creates a RedisLocker on top of the given client.
func NewRedisLocker(c *Config) (*RedisLocker, error) {
	if c.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	rl := &RedisLocker{
		locker:     redsync.New(goredis.NewPool(c.Client)),
		ttl:        c.TTL,
		tries:      c.Tries,
		retryDelay: c.RetryDelay,
		logger:     c.Logger,
	}
	if rl.ttl <= 0 {
		rl.ttl = defaultTTL
	}
	if rl.tries <= 0 {
		rl.tries = defaultTries
	}
	if rl.retryDelay <= 0 {
		rl.retryDelay = defaultRetryDelay
	}
	return rl, nil
}

// Key returns the redis key guarding a game.
func Key(gameID uuid.UUID) string {
	return "game:" + gameID.String() + ":lock"
}

// Lock implements game.Locker. While held, the lock is extended every third of its TTL so a
// slow mutation keeps it.
func (rl *RedisLocker) Lock(ctx context.Context, gameID uuid.UUID) (func(), error) {
	mutex := rl.locker.NewMutex(Key(gameID),
		redsync.WithExpiry(rl.ttl),
		redsync.WithTries(rl.tries),
		redsync.WithRetryDelay(rl.retryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		// redsync reports a cancelled wait as ErrFailed.
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		}
		return nil, fmt.Errorf("locking game %s: %w", gameID, err)
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go rl.keepAlive(mutex, gameID, stop, stopped)

	return func() {
		close(stop)
		<-stopped

		uctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()
		if ok, err := mutex.UnlockContext(uctx); !ok || err != nil {
			rl.logger.Warning(fmt.Sprintf("releasing lock of game %s: ok=%v err=%v", gameID, ok, err))
		}
	}, nil
}

// RLock implements game.Locker. Redsync has no shared mode, so readers take the exclusive
// lock and never observe a game halfway through a Save.
func (rl *RedisLocker) RLock(ctx context.Context, gameID uuid.UUID) (func(), error) {
	return rl.Lock(ctx, gameID)
}

func (rl *RedisLocker) keepAlive(mutex *redsync.Mutex, gameID uuid.UUID, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	every := max(rl.ttl/3, time.Millisecond)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ectx, cancel := context.WithTimeout(context.Background(), every)
			ok, err := mutex.ExtendContext(ectx)
			cancel()
			if !ok || err != nil {
				rl.logger.Error(fmt.Sprintf("extending lock of game %s: ok=%v err=%v", gameID, ok, err))
				return
			}
		}
	}
}
