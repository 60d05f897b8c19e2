package repository

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithSubscriberBuffer sets how many pending snapshots a subscriber may
// lag behind before older ones are dropped.
func WithSubscriberBuffer(n int) Option {
	return func(s *SnapshotStore) {
		if n > 0 {
			s.subBuffer = n
		}
	}
}
