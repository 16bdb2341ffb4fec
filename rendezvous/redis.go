package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/ruteri/nfc-attendance/interfaces"
)

// DefaultRedisPrefix namespaces the rendezvous keys.
const DefaultRedisPrefix = "attendance:rendezvous"

// tryCaptureScript moves the tag into the captured key only while the mode key exists.
var tryCaptureScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("SET", KEYS[2], ARGV[1])
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// RedisStore implements interfaces.RendezvousStore on a Redis server.
// Each operation executes atomically on the server.
type RedisStore struct {
	rdb        *redis.Client
	prefix     string
	modeKey    string
	captureKey string
	log        *slog.Logger
}

// NewRedisStore creates a store with keys under prefix.
func NewRedisStore(opts *redis.Options, prefix string, log *slog.Logger) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	return &RedisStore{
		rdb:        redis.NewClient(opts),
		prefix:     prefix,
		modeKey:    prefix + ":mode",
		captureKey: prefix + ":captured",
		log:        log,
	}
}

// OpenWindow sets the mode key and deletes the captured key in one transaction.
func (s *RedisStore) OpenWindow(ctx context.Context) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.captureKey)
		pipe.Set(ctx, s.modeKey, waitingModeContent, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to open window: %w", interfaces.ErrStoreUnavailable, err)
	}

	s.log.Debug("Registration window opened", slog.String("key", s.modeKey))
	return nil
}

// TryCapture stores tag if the mode key exists.
func (s *RedisStore) TryCapture(ctx context.Context, tag interfaces.TagID) (bool, error) {
	n, err := tryCaptureScript.Run(ctx, s.rdb, []string{s.modeKey, s.captureKey}, tag.String()).Int()
	if err != nil {
		return false, fmt.Errorf("%w: failed to capture tag: %w", interfaces.ErrStoreUnavailable, err)
	}

	if n == 1 {
		s.log.Debug("Tag captured for registration", slog.String("tag", tag.String()))
	}
	return n == 1, nil
}

// ConsumeCapture returns and deletes the captured key.
func (s *RedisStore) ConsumeCapture(ctx context.Context) (interfaces.TagID, bool, error) {
	value, err := s.rdb.GetDel(ctx, s.captureKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to consume captured tag: %w", interfaces.ErrStoreUnavailable, err)
	}
	if value == "" {
		return "", false, nil
	}
	return interfaces.TagID(value), true, nil
}

// Reset deletes both keys.
func (s *RedisStore) Reset(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.modeKey, s.captureKey).Err(); err != nil {
		return fmt.Errorf("%w: failed to reset: %w", interfaces.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Name returns a unique identifier for this store.
func (s *RedisStore) Name() string {
	return fmt.Sprintf("redis-%s", s.prefix)
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
