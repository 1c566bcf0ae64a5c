package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	pingTimeout    = 2 * time.Second
)

// Config holds the connection settings shared by the fix stream, the geocode
// cache and the dedup store.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
	// PoolSize bounds regular commands. Every fix stream watch holds one extra
	// pub/sub connection outside the pool.
	PoolSize int
}

// Connect returns a client that has answered a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	client := redis.NewClient(newOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func newOptions(cfg Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		// Command deadlines follow the caller's ctx; pub/sub receives wait on ctx only.
		ContextTimeoutEnabled: true,
	}
}

// Ping is the readiness check for Redis.
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
