// Package redis keeps listing view counters in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// viewsKey is the hash holding one counter field per listing.
const viewsKey = "rentwise:listing_views"

var _ domain.ViewCounter = (*ViewCounter)(nil)

// Config holds the connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewClient creates a Redis client from cfg.
func NewClient(cfg Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// ViewCounter implements domain.ViewCounter on a Redis hash.
type ViewCounter struct {
	client goredis.UniversalClient
}

// NewViewCounter creates a counter backed by client.
func NewViewCounter(client goredis.UniversalClient) *ViewCounter {
	return &ViewCounter{client: client}
}

func (c *ViewCounter) IncrementViews(ctx context.Context, listingID string) (int64, error) {
	n, err := c.client.HIncrBy(ctx, viewsKey, listingID, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing views of listing %s: %w", listingID, err)
	}
	return n, nil
}

// Views returns zero for listings that were never viewed.
func (c *ViewCounter) Views(ctx context.Context, listingID string) (int64, error) {
	n, err := c.client.HGet(ctx, viewsKey, listingID).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading views of listing %s: %w", listingID, err)
	}
	return n, nil
}

// Ping checks connectivity.
func (c *ViewCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
