package lock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Advisory distributed locks over a shared store. A lock is a key with a
// short TTL and no payload; the TTL recovers from a crashed holder. Nothing
// stops a party that ignores the lock, so every mutating code path must go
// through Acquire before reading table state.

var ErrResourceBusy = errors.New("resource_busy")

const (
	defaultRetries = 40
	defaultBackoff = 50 * time.Millisecond
)

// Backend is the conditional set-if-absent the manager runs on.
type Backend interface {
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

type Manager struct {
	backend Backend
	ttl     time.Duration
	retries int
	backoff time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Manager {
	return NewWithBackend(redisBackend{rdb: rdb}, ttl)
}

func NewWithBackend(b Backend, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Manager{
		backend: b,
		ttl:     ttl,
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
}

// Acquire takes the lock, retrying with a fixed backoff up to the retry
// ceiling. After the ceiling it fails with ErrResourceBusy; the caller
// surfaces that as a transient failure and must not mutate anything.
func (m *Manager) Acquire(ctx context.Context, key string) error {
	for attempt := 0; attempt <= m.retries; attempt++ {
		ok, err := m.backend.SetNX(ctx, key, m.ttl)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.backoff):
		}
	}
	return ErrResourceBusy
}

// Release drops the lock. Best effort: a failed delete only shortens to the
// TTL, it never corrupts state.
func (m *Manager) Release(ctx context.Context, key string) {
	if err := m.backend.Del(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("lock release failed, ttl will expire it")
	}
}

type redisBackend struct {
	rdb *redis.Client
}

func (b redisBackend) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return b.rdb.SetNX(ctx, key, 1, ttl).Result()
}

func (b redisBackend) Del(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, key).Err()
}

// Key namespaces. Table, user and table-type keys are disjoint, so composite
// operations may take them in any order.
func TableKey(tableID string) string { return "lock:table:" + tableID }

func UserKey(userID string) string { return "lock:user:" + userID }

func TableTypeKey(tableTypeID string) string { return "lock:ttype:" + tableTypeID }

func TournamentKey(tournamentID string) string { return "lock:tournament:" + tournamentID }
