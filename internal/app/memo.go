package service

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/okian/nbai/pkg/metrics"
)

// memo caches computed values for the process lifetime, keyed on the inputs
// that produced them. Concurrent misses on one key compute once. Errors are
// never cached.
type memo struct {
	mu     sync.RWMutex
	values map[string]any
	group  singleflight.Group

	hits, misses int64
}

func newMemo() *memo {
	return &memo{values: map[string]any{}}
}

// remember returns the cached value for key, computing it on a miss.
// entry labels the metric.
func remember[T any](ctx context.Context, m *memo, entry, key string, compute func(context.Context) (T, error)) (T, error) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if ok {
		m.mu.Lock()
		m.hits++
		m.mu.Unlock()
		metrics.RecordMemoHit(entry)
		return v.(T), nil
	}

	res, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		v, ok := m.values[key]
		m.mu.RUnlock()
		if ok {
			return v, nil
		}
		m.mu.Lock()
		m.misses++
		m.mu.Unlock()
		metrics.RecordMemoMiss(entry)

		// a caller leaving early must not abort the shared computation
		out, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.values[key] = out
		m.mu.Unlock()
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// forget drops every entry whose key starts with prefix.
func (m *memo) forget(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			delete(m.values, k)
		}
	}
}

func (m *memo) stats() (entries int, hits, misses int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values), m.hits, m.misses
}
