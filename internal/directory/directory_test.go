package directory

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/core/crypto/ecies"
	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/store/db"
	"github.com/kochabx/curvebox/store/etcd"
	"github.com/kochabx/curvebox/store/redis"
)

func toyParams() curve.Params {
	return curve.Params{
		Name: "toy17",
		A:    big.NewInt(2),
		B:    big.NewInt(2),
		P:    big.NewInt(17),
		N:    big.NewInt(19),
		G:    curve.NewPointInt64(5, 1),
	}
}

func entry(t *testing.T, username string, d int64) Entry {
	t.Helper()
	pub, err := ecies.DerivePublic(curve.Secp256k1(), big.NewInt(d))
	require.NoError(t, err)
	return Entry{
		Username:  username,
		Curve:     pub.Curve().Params(),
		Point:     pub.Point(),
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// exerciseStore runs the behaviour every Store must share
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "nobody"), ErrNotFound)

	bob := entry(t, "bob", 7)
	alice := entry(t, "alice", 3)
	require.NoError(t, s.Put(ctx, bob))
	require.NoError(t, s.Put(ctx, alice))

	got, err := s.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.True(t, got.Point.Equal(bob.Point))
	assert.Equal(t, "secp256k1", got.Curve.Name)
	assert.Zero(t, got.Curve.P.Cmp(curve.Secp256k1().P()))

	// Put replaces
	bob2 := entry(t, "bob", 8)
	require.NoError(t, s.Put(ctx, bob2))
	got, err = s.Get(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, got.Point.Equal(bob2.Point))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, "bob", list[1].Username)

	require.NoError(t, s.Delete(ctx, "alice"))
	_, err = s.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLStore(t *testing.T) {
	client, err := db.Open(context.Background(), db.Config{SQLite: db.SQLite{Path: filepath.Join(t.TempDir(), "dir.db")}})
	require.NoError(t, err)
	defer client.Close()

	s, err := NewSQLStore(client)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := redis.New(ctx, redis.Single(addr))
	if err != nil {
		t.Skipf("Skipping test (redis not available): %v", err)
	}
	defer client.Close()

	prefix := "curvebox:test:" + time.Now().Format("150405.000000") + ":"
	s := NewRedisStore(client, prefix)
	t.Cleanup(func() {
		bg := context.Background()
		for _, name := range []string{"alice", "bob"} {
			_ = s.Delete(bg, name)
		}
		client.UniversalClient().Del(bg, prefix+"index")
	})
	exerciseStore(t, s)
}

func TestEtcdStore(t *testing.T) {
	endpoint := os.Getenv("ETCD_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:2379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	e, err := etcd.New(ctx, &etcd.Config{Endpoints: []string{endpoint}, DialTimeout: time.Second})
	if err != nil {
		t.Skipf("Skipping test (etcd not available): %v", err)
	}
	defer e.Close()

	prefix := "/curvebox/test/" + time.Now().Format("150405.000000") + "/"
	t.Cleanup(func() {
		_, _ = e.Client.Delete(context.Background(), prefix, clientv3.WithPrefix())
	})
	exerciseStore(t, NewEtcdStore(e, prefix))
}

func TestServiceRegisterLookup(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	e, err := svc.Register(ctx, "carol", toyParams(), "6", "3")
	require.NoError(t, err)
	assert.Equal(t, "toy17", e.Curve.Name)

	pub, err := svc.Lookup(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "(6, 3)", pub.Point().String())
	assert.Zero(t, pub.Curve().P().Cmp(big.NewInt(17)))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Remove(ctx, "carol"))
	_, err = svc.Lookup(ctx, "carol")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 404, errors.Code(err))
}

func TestServiceRejects(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	for _, name := range []string{"", "has space", "x/y", string(make([]byte, 65))} {
		_, err := svc.Register(ctx, name, toyParams(), "6", "3")
		assert.ErrorIs(t, err, ErrInvalidUsername, "username %q", name)
	}

	_, err := svc.Register(ctx, "dave", toyParams(), "1", "1")
	assert.Equal(t, ecerr.InvalidPoint, ecerr.KindOf(err))

	bad := toyParams()
	bad.G = curve.NewPointInt64(1, 1)
	_, err = svc.Register(ctx, "dave", bad, "6", "3")
	assert.Equal(t, ecerr.InvalidGenerator, ecerr.KindOf(err))

	_, err = svc.Publish(ctx, "dave", nil)
	assert.ErrorIs(t, err, ecies.ErrPublicKeyEmpty)

	_, err = svc.Lookup(ctx, "dave")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceClock(t *testing.T) {
	at := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryStore(), WithClock(func() time.Time { return at }))

	pub, err := ecies.DerivePublic(curve.Secp256r1(), big.NewInt(5))
	require.NoError(t, err)
	e, err := svc.Publish(context.Background(), "erin", pub)
	require.NoError(t, err)
	assert.Equal(t, at, e.UpdatedAt)
}
