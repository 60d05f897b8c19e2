// Package repository holds the read side of the scoring engine: immutable
// snapshots published by the writer and served to readers without locks.
package repository

import (
	"context"
	"time"

	"github.com/okian/tagboard/internal/domain/types"
)

// Snapshot is one published view of the game. It is never mutated after
// Publish.
type Snapshot struct {
	Version      uint64
	RunID        string
	GeneratedAt  time.Time
	Entries      []types.Entry
	Achievements types.Achievements
	Events       int
	Skipped      int
	Days         int
	Holder       string

	byPlayer map[string]int
}

// Store provides access to the latest snapshot.
type Store interface {
	// Publish replaces the current snapshot and notifies subscribers.
	Publish(ctx context.Context, snap *Snapshot)

	// Current returns the latest snapshot. It is never nil.
	Current() *Snapshot

	// Rank returns the row of a player.
	// Returns ErrNotFound if the player is not on the board.
	Rank(ctx context.Context, player string) (types.Entry, error)

	// TopN returns the first n rows in rank order.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of players on the board.
	Count(ctx context.Context) int

	// Subscribe returns a channel of published snapshots and a cancel func.
	Subscribe() (<-chan *Snapshot, func())
}
