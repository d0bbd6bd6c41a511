// Package cache wraps Redis for the gateway token cache and the payment
// callback claim lock. A nil *Redis is a valid, disabled cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telehealth-server/internal/config"
	"telehealth-server/internal/logger"

	"github.com/redis/go-redis/v9"
)

const (
	connectAttempts = 5
	connectDelay    = 2 * time.Second
)

// Redis is a thin key/value and lock layer over a go-redis client.
type Redis struct {
	client *redis.Client
}

// New wraps an existing client.
func New(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Connect dials Redis and pings it, retrying a few times while the server
// comes up. An empty address returns a nil cache and no error.
func Connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Network:  "tcp",
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var err error
	for i := 0; i < connectAttempts; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return New(client), nil
		}
		log.WithError(err).WithField("attempt", i+1).Warn("Failed to connect to Redis")

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(connectDelay):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", connectAttempts, err)
}

// Enabled reports whether r is backed by a client.
func (r *Redis) Enabled() bool {
	return r != nil && r.client != nil
}

// Get returns the value stored at key. A missing key is ("", false, nil).
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if !r.Enabled() {
		return "", false, nil
	}
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value at key for ttl.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Acquire claims key for ttl. It returns false when someone else holds it.
// Without Redis every claim succeeds.
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !r.Enabled() {
		return true, nil
	}
	return r.client.SetNX(ctx, key, "1", ttl).Result()
}

// Release drops a claim taken with Acquire.
func (r *Redis) Release(ctx context.Context, key string) error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Del(ctx, key).Err()
}

// Ping checks the connection for the health endpoint.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
