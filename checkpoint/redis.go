package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "accrual:checkpoint"

// RedisStore persists snapshots in Redis so a run can be resumed from
// another process. Each snapshot is stored under a per-step key plus a
// latest-pointer key, both expiring after the configured TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the default key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL sets the snapshot expiry. Zero keeps snapshots until deleted.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore creates a Redis-backed snapshot store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("checkpoint: nil redis client")
	}

	s := &RedisStore{client: client, prefix: defaultKeyPrefix}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *RedisStore) stepKey(runID, stepName string) string {
	return fmt.Sprintf("%s:%s:step:%s", s.prefix, runID, stepName)
}

func (s *RedisStore) latestKey(runID string) string {
	return fmt.Sprintf("%s:%s:latest", s.prefix, runID)
}

// Save writes the snapshot under its step key and updates the latest
// pointer atomically.
func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("checkpoint: encode snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.stepKey(snap.RunID, snap.StepName), payload, s.ttl)
	pipe.Set(ctx, s.latestKey(snap.RunID), payload, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("checkpoint: save snapshot: %w", err)
	}

	return nil
}

// Load returns the snapshot taken after the named step.
func (s *RedisStore) Load(ctx context.Context, runID, stepName string) (Snapshot, error) {
	return s.get(ctx, s.stepKey(runID, stepName))
}

// Latest returns the run's most recent snapshot.
func (s *RedisStore) Latest(ctx context.Context, runID string) (Snapshot, error) {
	return s.get(ctx, s.latestKey(runID))
}

func (s *RedisStore) get(ctx context.Context, key string) (Snapshot, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return Snapshot{}, fmt.Errorf("checkpoint: load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("checkpoint: decode snapshot: %w", err)
	}

	return snap, nil
}
