// Package dedupe drops tag events that were already seen.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/tagboard/internal/domain/model"
)

// Deduper records event keys so a tag is folded at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Reset forgets every key. Used when a fresh log replaces the current one.
	Reset(ctx context.Context)

	Size() int
}

// inMemoryDeduper keeps keys in a map and evicts the oldest once full.
// maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, used as a FIFO for eviction
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50_000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize && len(d.order) > 0 {
			d.evictOldest()
		}
		d.order = append(d.order, key)
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{})
	d.order = nil
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	oldest := d.order[0]
	d.order[0] = ""
	d.order = d.order[1:]
	delete(d.seen, oldest)
}

// Filter returns events whose keys d has not seen, recording them, and the
// number of duplicates dropped. Order is preserved.
func Filter(ctx context.Context, d Deduper, events []model.TagEvent) ([]model.TagEvent, int) {
	out := make([]model.TagEvent, 0, len(events))
	dropped := 0
	for _, e := range events {
		if d.SeenAndRecord(ctx, e.Key()) {
			dropped++
			continue
		}
		out = append(out, e)
	}
	return out, dropped
}

// Remember records every event's key without dropping anything, so later
// posts of the same tags count as duplicates.
func Remember(ctx context.Context, d Deduper, events []model.TagEvent) {
	for _, e := range events {
		d.SeenAndRecord(ctx, e.Key())
	}
}
