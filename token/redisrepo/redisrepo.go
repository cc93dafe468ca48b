// Package redisrepo keeps credentials in Redis, expiring them with the
// refresh window.
package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/token"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "postureiq:credentials:"
	// Credentials with a refresh token outlive the access token expiry.
	refreshTTL = 30 * 24 * time.Hour
)

var _ token.Repo = (*RedisStore)(nil)

// RedisStore implements token.Repo for one profile key.
type RedisStore struct {
	client  *redis.Client
	key     string
	nowTime func() time.Time
}

// New connects to redisURL. profile names the stored credential set.
func New(ctx context.Context, redisURL, profile string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewWithClient(client, profile), nil
}

// NewWithClient creates a store from an existing client.
func NewWithClient(client *redis.Client, profile string) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{client: client, key: defaultPrefix + profile, nowTime: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, creds *token.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl(creds)).Err(); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) ttl(creds *token.Credentials) time.Duration {
	if creds.CanRefresh() || creds.Expiry.IsZero() {
		return refreshTTL
	}
	ttl := creds.Expiry.Sub(s.nowTime())
	if ttl <= 0 {
		// Keep briefly so Load can still see and clear it.
		ttl = time.Minute
	}
	return ttl
}

func (s *RedisStore) Load(ctx context.Context) (*token.Credentials, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, internalerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	var creds token.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return &creds, nil
}

func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
