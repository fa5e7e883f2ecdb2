//go:build integration

package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

// startRedis runs a throwaway Redis and returns a connected client.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLocker_ExcludesSecondHolder(t *testing.T) {
	client := startRedis(t)
	locker := NewRedisLocker(client, 5*time.Second, zaptest.NewLogger(t))
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "roomtype:a")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "roomtype:a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locker.Lock(ctx, "roomtype:b")
	require.NoError(t, err, "different keys do not block each other")
	other()

	unlock()
	unlock()
	again, err := locker.Lock(ctx, "roomtype:a")
	require.NoError(t, err)
	again()

	n, err := client.Exists(ctx, "lock:roomtype:a").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	client := startRedis(t)
	logger := zaptest.NewLogger(t)
	short := NewRedisLocker(client, 150*time.Millisecond, logger)
	long := NewRedisLocker(client, 5*time.Second, logger)
	ctx := context.Background()

	expired, err := short.Lock(ctx, "roomtype:a")
	require.NoError(t, err)

	// The first hold lapses by TTL and another replica takes the key.
	acquireCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	current, err := long.Lock(acquireCtx, "roomtype:a")
	require.NoError(t, err)

	expired()
	n, err := client.Exists(ctx, "lock:roomtype:a").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "a stale token must not release the new holder")

	current()
	n, err = client.Exists(ctx, "lock:roomtype:a").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisLocker_ReplicasShareOneLock(t *testing.T) {
	client := startRedis(t)
	logger := zaptest.NewLogger(t)
	replicas := []*RedisLocker{
		NewRedisLocker(client, 5*time.Second, logger),
		NewRedisLocker(client, 5*time.Second, logger),
	}

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(locker *RedisLocker) {
			defer wg.Done()
			unlock, err := AcquireAll(context.Background(), locker, []string{"roomtype:b", "roomtype:a"})
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}(replicas[i%2])
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestNewRedisClient_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
