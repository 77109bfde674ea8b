package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/curvebox/log"
)

// testClient 连接 REDIS_ADDR（默认 localhost:6379），不可用时跳过
func testClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := Single(addr)
	cfg.Password = os.Getenv("REDIS_PASSWORD")
	cfg.DialTimeout = time.Second

	client, err := New(ctx, cfg, opts...)
	if err != nil {
		t.Skipf("Skipping test (Redis not available): %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSingleMode(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	key := "curvebox:test:key"
	require.NoError(t, client.UniversalClient().Set(ctx, key, "value", time.Minute).Err())

	got, err := client.UniversalClient().Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	client.UniversalClient().Del(ctx, key)
	_, err = client.UniversalClient().Get(ctx, key).Result()
	assert.ErrorIs(t, err, ErrNil)
	assert.NotNil(t, client.Stats())
}

func TestWithDebug(t *testing.T) {
	client := testClient(t, WithDebug(time.Nanosecond))
	assert.NoError(t, client.Ping(context.Background()))
}

// TestSetupHooks 埋点只注册 hook，不需要连上 Redis
func TestSetupHooks(t *testing.T) {
	cfg := Single("127.0.0.1:1")
	require.NoError(t, cfg.ApplyDefaults())
	c := &Client{config: cfg, logger: log.G, client: redis.NewUniversalClient(buildUniversalOptions(cfg))}
	t.Cleanup(func() { _ = c.client.Close() })

	opts := applyOptions([]Option{
		WithTracing(redisotel.WithDBStatement(false)),
		WithMetrics(),
		WithDebug(time.Millisecond),
		nil,
	})
	assert.True(t, opts.enableTracing)
	assert.True(t, opts.enableMetrics)
	assert.True(t, opts.enableDebug)
	assert.Len(t, opts.tracingOpts, 1)
	assert.Equal(t, time.Millisecond, opts.slowQueryThresh)
	require.NoError(t, c.setupHooks(opts))

	plain := applyOptions(nil)
	assert.False(t, plain.enableTracing || plain.enableMetrics || plain.enableDebug)
}

func TestInvalidConfig(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(ctx, &Config{})
	assert.ErrorIs(t, err, ErrEmptyAddrs)

	_, err = New(ctx, &Config{Addrs: []string{"localhost:6379"}, DialTimeout: -time.Second})
	assert.ErrorIs(t, err, ErrInvalidTimeout)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Single("localhost:6379")
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, 3, cfg.Protocol)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.MaxIdleTime)
	assert.Equal(t, 8*time.Millisecond, cfg.MinRetryBackoff)

	opts := buildUniversalOptions(cfg)
	assert.Equal(t, cfg.DialTimeout, opts.DialTimeout)
	assert.Positive(t, opts.PoolSize)
}

func TestConfigHelpers(t *testing.T) {
	assert.Equal(t, "single", Single("a:1").Mode())
	assert.Equal(t, "cluster", Cluster("a:1", "b:1").Mode())
	assert.Equal(t, "sentinel", Sentinel("m", "a:1").Mode())
	assert.True(t, Single("a:1").IsSingle())
	assert.False(t, Cluster("a:1", "b:1").IsSingle())
}
