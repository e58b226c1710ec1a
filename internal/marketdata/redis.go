package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const priceKeyPrefix = "price:"

// RedisStore reads and writes market prices in Redis under "price:<instrument>".
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects a price store to Redis. A zero ttl keeps prices
// until overwritten.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Price returns the last quoted price for the instrument.
func (s *RedisStore) Price(ctx context.Context, instrument string) (decimal.Decimal, error) {
	val, err := s.client.Get(ctx, priceKeyPrefix+instrument).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Decimal{}, ErrNoPrice
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to get price for %s: %w", instrument, err)
	}
	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price for %s: %w", instrument, err)
	}
	return price, nil
}

// SetPrice upserts the instrument's market price.
func (s *RedisStore) SetPrice(ctx context.Context, instrument string, price decimal.Decimal) error {
	if err := s.client.Set(ctx, priceKeyPrefix+instrument, price.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set price for %s: %w", instrument, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
