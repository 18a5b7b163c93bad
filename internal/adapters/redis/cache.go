// Package redis stores classifications in Redis as JSON strings.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
)

const keyPrefix = "shelfsound:classification:"

// Options configure the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

type Cache struct {
	client *goredis.Client
}

var _ ports.ClassificationCache = (*Cache)(nil)

// Connect opens a client and pings it.
func Connect(ctx context.Context, opts Options) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis adapter: ping %s: %w", opts.Addr, err)
	}
	return &Cache{client: client}, nil
}

// NewCache wraps an existing client.
func NewCache(client *goredis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) (domain.Classification, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Classification{}, false, nil
	}
	if err != nil {
		return domain.Classification{}, false, fmt.Errorf("redis adapter: get: %w", err)
	}
	var out domain.Classification
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Classification{}, false, fmt.Errorf("redis adapter: decode: %w", err)
	}
	return out, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, cl domain.Classification, ttl time.Duration) error {
	raw, err := json.Marshal(cl)
	if err != nil {
		return fmt.Errorf("redis adapter: encode: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis adapter: set: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
