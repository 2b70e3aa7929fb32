package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/storage"
)

// setupTestRedis starts a Redis container and returns a connected client.
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready to accept connections").WithStartupTimeout(60*time.Second),
				wait.ForListeningPort("6379/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewClient(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)

	cleanup := func() {
		client.Close()
		_ = container.Terminate(ctx)
	}
	return client, cleanup
}

func TestKey(t *testing.T) {
	assert.Equal(t, "babamul:cutouts:ztf:2462000012015", Key(domain.SurveyZTF, 2462000012015))
	assert.Equal(t, "babamul:cutouts:lsst:7", Key(domain.SurveyLSST, 7))
}

func TestNewCutoutCache_DefaultTTL(t *testing.T) {
	cache := NewCutoutCache(nil, 0)
	assert.Equal(t, DefaultTTL, cache.ttl)
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "http://localhost:6379")
	assert.Error(t, err)
}

func TestCutoutCache_PutAndGet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewCutoutCache(client, time.Minute)
	ctx := context.Background()

	cut := &domain.Cutouts{
		Candid:     42,
		Science:    []byte{0x1f, 0x8b, 0x00, 0xff},
		Template:   []byte("template"),
		Difference: []byte("difference"),
	}
	require.NoError(t, cache.PutCutouts(ctx, domain.SurveyZTF, cut))

	got, err := cache.GetCutouts(ctx, domain.SurveyZTF, 42)
	require.NoError(t, err)
	assert.Equal(t, cut, got)

	ttl, err := client.TTL(ctx, Key(domain.SurveyZTF, 42)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestCutoutCache_Miss(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewCutoutCache(client, time.Minute)

	_, err := cache.GetCutouts(context.Background(), domain.SurveyLSST, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCutoutCache_ReplaceDropsStaleStamps(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewCutoutCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.PutCutouts(ctx, domain.SurveyLSST, &domain.Cutouts{
		Candid: 9, Science: []byte("a"), Template: []byte("b"), Difference: []byte("c"),
	}))
	require.NoError(t, cache.PutCutouts(ctx, domain.SurveyLSST, &domain.Cutouts{
		Candid: 9, Science: []byte("new"),
	}))

	got, err := cache.GetCutouts(ctx, domain.SurveyLSST, 9)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.Science)
	assert.Nil(t, got.Template)
	assert.Nil(t, got.Difference)
}
