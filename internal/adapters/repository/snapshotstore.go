package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/tagboard/internal/domain/types"
	"github.com/okian/tagboard/pkg/metrics"
)

const defaultSubscriberBuffer = 1

// SnapshotStore keeps the latest snapshot behind an atomic pointer.
// Publish is called by the single writer; reads never block it.
type SnapshotStore struct {
	snapshot atomic.Pointer[Snapshot]
	version  atomic.Uint64

	mu        sync.Mutex
	subs      map[uint64]chan *Snapshot
	nextSub   uint64
	subBuffer int
}

// NewSnapshotStore returns a store holding an empty snapshot.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		subs:      make(map[uint64]chan *Snapshot),
		subBuffer: defaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{GeneratedAt: time.Now(), byPlayer: map[string]int{}})
	return s
}

// Publish stamps snap with the next version and makes it current.
func (s *SnapshotStore) Publish(_ context.Context, snap *Snapshot) {
	if snap == nil {
		return
	}
	snap.Version = s.version.Add(1)
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now()
	}
	snap.byPlayer = make(map[string]int, len(snap.Entries))
	for i, e := range snap.Entries {
		snap.byPlayer[e.Player] = i
	}
	s.snapshot.Store(snap)
	metrics.RecordSnapshotPublished(snap.GeneratedAt.Unix())

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		offer(ch, snap)
	}
}

// offer delivers snap, evicting the oldest pending snapshot if ch is full.
func offer(ch chan *Snapshot, snap *Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Current returns the latest snapshot.
func (s *SnapshotStore) Current() *Snapshot {
	return s.snapshot.Load()
}

// Rank looks a player up in O(1).
func (s *SnapshotStore) Rank(_ context.Context, player string) (types.Entry, error) {
	snap := s.Current()
	i, ok := snap.byPlayer[player]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}
	return snap.Entries[i], nil
}

// TopN returns up to n rows. n must be positive.
func (s *SnapshotStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	entries := s.Current().Entries
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]types.Entry, n)
	copy(out, entries[:n])
	return out, nil
}

// Count returns the number of rows in the current snapshot.
func (s *SnapshotStore) Count(_ context.Context) int {
	return len(s.Current().Entries)
}

// Subscribe registers a listener for future snapshots.
func (s *SnapshotStore) Subscribe() (<-chan *Snapshot, func()) {
	ch := make(chan *Snapshot, s.subBuffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}
