package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/flightapp/config"
	"github.com/Domenick1991/flightapp/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

// AcquireFlightLock takes the cross-instance lock for one flight. The
// in-process keylock already serializes bookers inside one instance; this tier
// extends the exclusion scope across instances. The database row locks remain
// authoritative either way.
func (c *RedisCache) AcquireFlightLock(ctx context.Context, flightID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, flightLockKey(flightID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseFlightLock(ctx context.Context, flightID string) error {
	return c.client.Del(ctx, flightLockKey(flightID)).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func flightLockKey(flightID string) string {
	return fmt.Sprintf("lock:flight:%s", flightID)
}
