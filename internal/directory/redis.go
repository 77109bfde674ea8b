package directory

import (
	"context"
	"slices"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/store/redis"
)

const (
	fieldCurve     = "curve"
	fieldX         = "x"
	fieldY         = "y"
	fieldUpdatedAt = "updated_at"
)

// RedisStore keeps one hash per user under prefix+username and a set of
// user names under prefix+"index" for List.
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: client.UniversalClient(), prefix: prefix}
}

func (s *RedisStore) key(username string) string { return s.prefix + username }
func (s *RedisStore) index() string              { return s.prefix + "index" }

func (s *RedisStore) Put(ctx context.Context, e Entry) error {
	params, err := marshalParams(e.Curve)
	if err != nil {
		return err
	}
	_, err = s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, s.key(e.Username),
			fieldCurve, params,
			fieldX, e.Point.X().String(),
			fieldY, e.Point.Y().String(),
			fieldUpdatedAt, e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		p.SAdd(ctx, s.index(), e.Username)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, 500, "save public key")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, username string) (*Entry, error) {
	h, err := s.rdb.HGetAll(ctx, s.key(username)).Result()
	if err != nil {
		return nil, errors.Wrap(err, 500, "load public key")
	}
	if len(h) == 0 {
		return nil, ErrNotFound
	}
	return entryFromHash(username, h)
}

func (s *RedisStore) Delete(ctx context.Context, username string) error {
	n, err := s.rdb.Del(ctx, s.key(username)).Result()
	if err != nil {
		return errors.Wrap(err, 500, "delete public key")
	}
	if err := s.rdb.SRem(ctx, s.index(), username).Err(); err != nil {
		return errors.Wrap(err, 500, "delete public key")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	names, err := s.rdb.SMembers(ctx, s.index()).Result()
	if err != nil {
		return nil, errors.Wrap(err, 500, "list public keys")
	}
	slices.Sort(names)

	out := make([]Entry, 0, len(names))
	for _, name := range names {
		e, err := s.Get(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func entryFromHash(username string, h map[string]string) (*Entry, error) {
	params, err := unmarshalParams(h[fieldCurve])
	if err != nil {
		return nil, err
	}
	pt, err := curve.ParsePoint(h[fieldX], h[fieldY])
	if err != nil {
		return nil, errors.Wrap(err, 500, "stored point is corrupt")
	}
	updated, _ := time.Parse(time.RFC3339Nano, h[fieldUpdatedAt])
	return &Entry{Username: username, Curve: params, Point: pt, UpdatedAt: updated}, nil
}
