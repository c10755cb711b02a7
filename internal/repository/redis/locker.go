// Package redis holds the Redis-backed rating lock used when
// RATING_LOCK_MODE=redis, so recomputes of one product serialize across
// every storefront instance.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/rating"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const keyPrefix = "storefront:rating-lock:"

const (
	defaultPollInterval = 25 * time.Millisecond
	releaseTimeout      = 2 * time.Second
)

// releaseScript deletes the lock only while it still carries our token, so a
// holder whose lock already expired cannot release a newer holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RatingLocker implements rating.Locker with SET NX PX.
type RatingLocker struct {
	client       *redis.Client
	ttl          time.Duration
	wait         time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

var _ rating.Locker = (*RatingLocker)(nil)

// NewRatingLocker creates a RatingLocker. ttl bounds how long a crashed
// holder can block others; wait bounds how long Lock polls before giving up.
func NewRatingLocker(client *redis.Client, ttl, wait time.Duration, logger *slog.Logger) *RatingLocker {
	return &RatingLocker{
		client:       client,
		ttl:          ttl,
		wait:         wait,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}
}

// Lock blocks until the product's lock is acquired, ctx ends or the wait
// elapses. A wait timeout is reported as ErrServiceUnavail.
func (l *RatingLocker) Lock(ctx context.Context, productID string) (func(), error) {
	key := keyPrefix + productID
	token := uuid.NewString()

	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis set lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		poll := time.NewTimer(l.pollInterval)
		select {
		case <-ctx.Done():
			poll.Stop()
			return nil, ctx.Err()
		case <-deadline.C:
			poll.Stop()
			return nil, fmt.Errorf("rating lock for product %s held too long: %w", productID, apperrors.ErrServiceUnavail)
		case <-poll.C:
		}
	}
}

func (l *RatingLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("failed to release rating lock",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
