package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/niftyquant/pkg/redis"
)

// ErrNotFound is returned for unknown or expired keys
var ErrNotFound = errors.New("artifact not found")

// Store keeps rendered artifacts (PNG bytes) by content key
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Sweep removes expired entries and reports how many were dropped
	Sweep(ctx context.Context) (int, error)
}

// =============================================================================
// Memory
// =============================================================================

type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore mutex-guarded map with TTL
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-process store. ttl <= 0 keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores a copy of data under key
func (s *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	e := entry{data: append([]byte(nil), data...)}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
	return nil
}

// Get returns the stored bytes or ErrNotFound
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.expired(e) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), e.data...), nil
}

// Sweep drops expired entries
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len number of entries (expired included until swept)
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

// =============================================================================
// Redis
// =============================================================================

// RedisStore redis-backed store. Expiry is delegated to redis TTLs.
type RedisStore struct {
	cache *redis.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewRedisStore creates a store over a redis cache
func NewRedisStore(cache *redis.Cache, ttl time.Duration, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "artifact.redis").Logger(),
	}
}

// Put stores data with the configured TTL
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.cache.SetBytes(ctx, redis.ArtifactKey(kindOf(key), key), data, s.ttl); err != nil {
		return fmt.Errorf("store artifact %s: %w", key, err)
	}
	s.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("Artifact stored")
	return nil
}

// Get returns the stored bytes or ErrNotFound
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, found, err := s.cache.GetBytes(ctx, redis.ArtifactKey(kindOf(key), key))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, nil
}

// Sweep is a no-op; redis expires keys itself
func (s *RedisStore) Sweep(_ context.Context) (int, error) {
	return 0, nil
}

// kindOf network-<hash> -> network
func kindOf(key string) string {
	if kind, _, ok := strings.Cut(key, "-"); ok {
		return kind
	}
	return "misc"
}
