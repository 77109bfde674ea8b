package etcd

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEtcd 连接 ETCD_ENDPOINT（默认 localhost:2379），不可用时跳过
func testEtcd(t *testing.T) *Etcd {
	t.Helper()
	endpoint := os.Getenv("ETCD_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:2379"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	e, err := New(ctx, &Config{Endpoints: []string{endpoint}, DialTimeout: time.Second, RequestTimeout: time.Second})
	if err != nil {
		t.Skipf("Skipping test (etcd not available): %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestPutGet(t *testing.T) {
	e := testEtcd(t)
	ctx := context.Background()

	key := "/curvebox/test/key"
	_, err := e.Client.Put(ctx, key, "value")
	require.NoError(t, err)
	defer e.Client.Delete(ctx, key)

	resp, err := e.Client.Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, resp.Kvs, 1)
	assert.Equal(t, "value", string(resp.Kvs[0].Value))
}

func TestCloseIsIdempotent(t *testing.T) {
	e := testEtcd(t)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Ping(context.Background()), ErrEtcdNotInitialized)
}

func TestInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.init())
	assert.Equal(t, []string{"localhost:2379"}, c.Endpoints)
	assert.Equal(t, 5*time.Second, c.DialTimeout)
	assert.Equal(t, 30*time.Second, c.KeepAliveTime)
	assert.Equal(t, 2097152, c.MaxSendMsgSize)
}
