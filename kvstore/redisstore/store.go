// Package redisstore keeps kvstore items in Redis so several server instances
// can share client storage.
package redisstore

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/go-seller-session/internal/errors"
	"github.com/jrsteele09/go-seller-session/kvstore"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultOpTimeout = 2 * time.Second

var _ kvstore.Repo = (*Store)(nil)

// Store is a Redis backed kvstore.Repo. Items carry no TTL; session expiry is
// decided by the session store, not by Redis.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	opTimeout time.Duration
}

// Option configures a Store
type Option func(*Store)

// WithKeyPrefix prefixes every Redis key, e.g. "seller:"
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.keyPrefix = prefix
	}
}

// WithOpTimeout bounds each Redis round trip
func WithOpTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.opTimeout = timeout
	}
}

// New wraps an existing client
func New(client redis.UniversalClient, options ...Option) *Store {
	s := &Store{
		client:    client,
		opTimeout: defaultOpTimeout,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Connect parses a redis:// or rediss:// URL, pings the server and returns a Store
func Connect(ctx context.Context, url string, options ...Option) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "[redisstore.Connect] redis.ParseURL")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(apperrors.ErrStorageUnavailable, "[redisstore.Connect] ping: %v", err)
	}

	return New(client, options...), nil
}

// GetItem returns the value stored under key
func (s *Store) GetItem(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	value, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errors.Wrapf(apperrors.ErrNotFound, "key %q", key)
	}
	if err != nil {
		return "", errors.Wrapf(apperrors.ErrStorageUnavailable, "get %q: %v", key, err)
	}
	return value, nil
}

// SetItem creates or overwrites the value stored under key
func (s *Store) SetItem(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(apperrors.ErrStorageUnavailable, "set %q: %v", key, err)
	}
	return nil
}

// RemoveItem deletes key
func (s *Store) RemoveItem(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return errors.Wrapf(apperrors.ErrStorageUnavailable, "remove %q: %v", key, err)
	}
	return nil
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
