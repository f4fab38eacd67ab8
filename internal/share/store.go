package share

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/geocoder89/clubhub/internal/cache"
	"github.com/geocoder89/clubhub/internal/redisclient"
	"github.com/geocoder89/clubhub/internal/utils"
)

// Grant is what a share token unlocks: one receipt, identified by its number, of one user for one event.
type Grant struct {
	EventID       string    `json:"eventId"`
	UserID        string    `json:"userId"`
	ReceiptNumber string    `json:"receiptNumber"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type Store interface {
	Put(ctx context.Context, token string, g Grant, ttl time.Duration) error
	// Get returns ok=false for unknown or expired tokens.
	Get(ctx context.Context, token string) (Grant, bool, error)
}

// NewToken returns an opaque bearer token.
func NewToken() string {
	return uuid.NewString()
}

type RedisStore struct {
	rdb *redisclient.Client
}

func NewRedisStore(rdb *redisclient.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Put(ctx context.Context, token string, g Grant, ttl time.Duration) error {
	b, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode share grant: %w", err)
	}
	return s.rdb.SetEX(ctx, utils.ShareTokenKey(token), string(b), ttl)
}

func (s *RedisStore) Get(ctx context.Context, token string) (Grant, bool, error) {
	raw, ok, err := s.rdb.Get(ctx, utils.ShareTokenKey(token))
	if err != nil || !ok {
		return Grant{}, false, err
	}

	var g Grant
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return Grant{}, false, fmt.Errorf("decode share grant: %w", err)
	}
	return g, true, nil
}

// MemoryStore is the single-instance fallback when no Redis is configured.
type MemoryStore struct {
	c *cache.Cache[Grant]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New[Grant](time.Hour)}
}

func (s *MemoryStore) Put(_ context.Context, token string, g Grant, ttl time.Duration) error {
	s.c.SetTTL(utils.ShareTokenKey(token), g, ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (Grant, bool, error) {
	g, ok := s.c.Get(utils.ShareTokenKey(token))
	return g, ok, nil
}
