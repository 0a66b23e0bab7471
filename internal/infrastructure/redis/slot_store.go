package redisstore

import (
	"context"
	"errors"
	"time"

	"fxportal/internal/application"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces pending quote slots by session id.
const DefaultPrefix = application.PendingQuoteKey + ":"

// Store keeps one pending quote slot per session in Redis. A zero TTL keeps
// slots until they are deleted.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

var _ application.SlotProvider = (*Store)(nil)

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{Client: client, TTL: ttl, Prefix: DefaultPrefix}
}

func (s *Store) Slot(sessionID string) application.SessionSlot {
	return &slot{store: s, key: s.Prefix + sessionID}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.Client.Close()
}

type slot struct {
	store *Store
	key   string
}

func (s *slot) Get(ctx context.Context) (string, bool, error) {
	v, err := s.store.Client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *slot) Set(ctx context.Context, value string) error {
	return s.store.Client.Set(ctx, s.key, value, s.store.TTL).Err()
}

func (s *slot) Delete(ctx context.Context) error {
	return s.store.Client.Del(ctx, s.key).Err()
}
