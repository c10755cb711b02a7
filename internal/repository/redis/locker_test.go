package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func setupLocker(t *testing.T, wait time.Duration) (*RatingLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := NewRatingLocker(client, 5*time.Second, wait, logger)
	l.pollInterval = 5 * time.Millisecond
	return l, mr
}

func TestRatingLocker_LockAndRelease(t *testing.T) {
	l, mr := setupLocker(t, time.Second)

	unlock, err := l.Lock(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"prod-1"))
	assert.Equal(t, 5*time.Second, mr.TTL(keyPrefix+"prod-1"))

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"prod-1"))
}

func TestRatingLocker_WaitTimeout(t *testing.T) {
	l, _ := setupLocker(t, 30*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "prod-1")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(context.Background(), "prod-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

func TestRatingLocker_ContextCanceled(t *testing.T) {
	l, _ := setupLocker(t, time.Minute)

	unlock, err := l.Lock(context.Background(), "prod-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "prod-1")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRatingLocker_DifferentProductsDoNotBlock(t *testing.T) {
	l, _ := setupLocker(t, 20*time.Millisecond)

	u1, err := l.Lock(context.Background(), "prod-1")
	require.NoError(t, err)
	defer u1()

	u2, err := l.Lock(context.Background(), "prod-2")
	require.NoError(t, err)
	u2()
}

func TestRatingLocker_StaleReleaseKeepsNewHolder(t *testing.T) {
	l, mr := setupLocker(t, time.Second)

	staleUnlock, err := l.Lock(context.Background(), "prod-1")
	require.NoError(t, err)

	// The first holder's lock expires and someone else takes it.
	mr.FastForward(6 * time.Second)
	require.False(t, mr.Exists(keyPrefix+"prod-1"))

	unlock, err := l.Lock(context.Background(), "prod-1")
	require.NoError(t, err)

	staleUnlock()
	assert.True(t, mr.Exists(keyPrefix+"prod-1"))

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"prod-1"))
}

func TestRatingLocker_SerializesHolders(t *testing.T) {
	l, _ := setupLocker(t, 5*time.Second)

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "prod-1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}
