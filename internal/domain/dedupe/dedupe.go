// Package dedupe tracks row fingerprints so exact duplicate rows are kept once.
package dedupe

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// fieldSep cannot appear in CSV field values read by the ingest stage.
const fieldSep = "\x1f"

// Deduper records seen row fingerprints.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Size returns the number of distinct keys recorded.
	Size() int64
}

// inMemoryDeduper implements Deduper with a map guarded by a mutex.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	size     atomic.Int64
	expected int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, max(d.expected, 0))
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Fingerprint joins the ordered column values of a row into one key.
func Fingerprint(values ...string) string {
	return strings.Join(values, fieldSep)
}

// Float formats a numeric column for a fingerprint. Every NaN maps to the
// same text so rows with matching missing values compare equal.
func Float(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Filter keeps the first occurrence of every key, preserving input order.
// It returns the kept rows and the number of dropped duplicates.
func Filter[T any](ctx context.Context, d Deduper, rows []T, key func(T) string) ([]T, int) {
	kept := rows[:0:0]
	for _, r := range rows {
		if d.SeenAndRecord(ctx, key(r)) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(rows) - len(kept)
}
