package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes a Redis lock.
type RedisConfig struct {
	Prefix     string
	TTL        time.Duration
	RetryDelay time.Duration
}

// DefaultRedisConfig returns settings sized for short aggregate updates.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix:     "storefront:lock:",
		TTL:        10 * time.Second,
		RetryDelay: 25 * time.Millisecond,
	}
}

// Redis is a lock shared by every instance using the same Redis. Each hold
// expires after TTL in case the holder dies.
type Redis struct {
	client redis.Cmdable
	cfg    RedisConfig
	logger *slog.Logger
}

// NewRedis creates a Redis-backed locker.
func NewRedis(client redis.Cmdable, cfg RedisConfig, logger *slog.Logger) *Redis {
	return &Redis{client: client, cfg: cfg, logger: logger}
}

// Lock polls SET NX until it wins or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := r.cfg.Prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, k, token, r.cfg.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrNotAcquired, ctx.Err())
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-time.After(r.cfg.RetryDelay):
		}
	}

	return func() {
		// The caller's ctx may already be cancelled; release regardless.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, r.client, []string{k}, token).Err(); err != nil {
			r.logger.WarnContext(ctx, "failed to release lock",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}, nil
}
