package directory

import (
	"context"
	"encoding/json"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/store/etcd"
)

// EtcdStore keeps each entry as a JSON value under prefix+username.
type EtcdStore struct {
	etcd   *etcd.Etcd
	prefix string
}

func NewEtcdStore(e *etcd.Etcd, prefix string) *EtcdStore {
	return &EtcdStore{etcd: e, prefix: prefix}
}

func (s *EtcdStore) key(username string) string { return s.prefix + username }

func (s *EtcdStore) Put(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, 500, "encode public key")
	}
	ctx, cancel := s.etcd.WithTimeout(ctx)
	defer cancel()
	if _, err := s.etcd.Client.Put(ctx, s.key(e.Username), string(b)); err != nil {
		return errors.Wrap(err, 500, "save public key")
	}
	return nil
}

func (s *EtcdStore) Get(ctx context.Context, username string) (*Entry, error) {
	ctx, cancel := s.etcd.WithTimeout(ctx)
	defer cancel()
	resp, err := s.etcd.Client.Get(ctx, s.key(username))
	if err != nil {
		return nil, errors.Wrap(err, 500, "load public key")
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}
	return decodeEntry(resp.Kvs[0].Value)
}

func (s *EtcdStore) Delete(ctx context.Context, username string) error {
	ctx, cancel := s.etcd.WithTimeout(ctx)
	defer cancel()
	resp, err := s.etcd.Client.Delete(ctx, s.key(username))
	if err != nil {
		return errors.Wrap(err, 500, "delete public key")
	}
	if resp.Deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *EtcdStore) List(ctx context.Context) ([]Entry, error) {
	ctx, cancel := s.etcd.WithTimeout(ctx)
	defer cancel()
	resp, err := s.etcd.Client.Get(ctx, s.prefix,
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
	)
	if err != nil {
		return nil, errors.Wrap(err, 500, "list public keys")
	}
	out := make([]Entry, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		// nested keys under the prefix are not entries
		if strings.Contains(strings.TrimPrefix(string(kv.Key), s.prefix), "/") {
			continue
		}
		e, err := decodeEntry(kv.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func decodeEntry(b []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, errors.Wrap(err, 500, "stored public key is corrupt")
	}
	return &e, nil
}
