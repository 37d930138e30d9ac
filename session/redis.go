package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the session entries under a caller-supplied key
// prefix, typically one prefix per device or browser profile. A non-zero
// TTL bounds how long an abandoned tuple survives.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store over an existing Redis client. The
// prefix namespaces the two entry keys; ttl <= 0 persists without expiry.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "misauth:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(entry string) string {
	return s.prefix + entry
}

// Load describes the load operation and its observable behavior.
//
// Load does not mutate shared global state and can be used concurrently.
func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	values, err := s.client.MGet(ctx, s.key(KeyCredential), s.key(KeyPrincipal)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var credential, principal []byte
	if len(values) == 2 {
		if raw, ok := values[0].(string); ok {
			credential = []byte(raw)
		}
		if raw, ok := values[1].(string); ok {
			principal = []byte(raw)
		}
	}

	return decodeRecord(credential, principal), nil
}

// Save writes both entries in one pipeline round trip.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	principal, err := encodePrincipal(rec.Principal)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	if rec.Token == "" {
		pipe.Del(ctx, s.key(KeyCredential))
	} else {
		pipe.Set(ctx, s.key(KeyCredential), rec.Token, s.ttl)
	}
	if principal == nil {
		pipe.Del(ctx, s.key(KeyPrincipal))
	} else {
		pipe.Set(ctx, s.key(KeyPrincipal), principal, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear removes both entries.
func (s *RedisStore) Clear(ctx context.Context) error {
	err := s.client.Del(ctx, s.key(KeyCredential), s.key(KeyPrincipal)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
