package history

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore 进程内存储
type MemoryStore struct {
	mu          sync.RWMutex
	curves      []CurveRecord
	encryptions []EncryptionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AddCurve(_ context.Context, r CurveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.curves = append(m.curves, r)
	return nil
}

func (m *MemoryStore) RecentCurves(_ context.Context, limit int) ([]CurveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return recent(m.curves, limit, func(r CurveRecord) time.Time { return r.CreatedAt }), nil
}

func (m *MemoryStore) AddEncryption(_ context.Context, r EncryptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.encryptions = append(m.encryptions, r)
	return nil
}

func (m *MemoryStore) RecentEncryptions(_ context.Context, limit int) ([]EncryptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return recent(m.encryptions, limit, func(r EncryptionRecord) time.Time { return r.CreatedAt }), nil
}

func (m *MemoryStore) Prune(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.curves) + len(m.encryptions)
	m.curves = slices.DeleteFunc(m.curves, func(r CurveRecord) bool { return r.CreatedAt.Before(before) })
	m.encryptions = slices.DeleteFunc(m.encryptions, func(r EncryptionRecord) bool { return r.CreatedAt.Before(before) })
	return int64(n - len(m.curves) - len(m.encryptions)), nil
}

// recent 按插入顺序倒序、再按时间稳定排序，取前 limit 条
func recent[T any](records []T, limit int, at func(T) time.Time) []T {
	out := slices.Clone(records)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b T) int { return at(b).Compare(at(a)) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
