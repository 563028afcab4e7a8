package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type RedisClient struct {
	Client *redis.Client
	logger zerolog.Logger
}

func NewRedisClient(host, password string, db int) *RedisClient {
	return &RedisClient{
		Client: redis.NewClient(&redis.Options{
			Addr:         host,
			Password:     password,
			DB:           db,
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
		logger: log.With().Str("component", "redis").Logger(),
	}
}

func (r *RedisClient) Connect(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	r.logger.Info().Str("addr", r.Client.Options().Addr).Msg("Redis connected")
	return nil
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// RateDecision - kết quả của một lần đếm request trong fixed window
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Allow tăng counter của key trong window hiện tại.
// INCR + EXPIRE NX chạy trong MULTI nên TTL chỉ được set ở request đầu tiên của window.
func (r *RedisClient) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error) {
	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)

	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return decide(incr.Val(), limit, pttl.Val(), window), nil
}

func decide(count int64, limit int, ttl, window time.Duration) RateDecision {
	if ttl <= 0 {
		ttl = window
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateDecision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetIn:   ttl,
	}
}
