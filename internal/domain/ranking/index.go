package ranking

import "time"

// Index ranks roster positions by holding time. It is not safe for
// concurrent use; the scoring state that owns it has a single writer.
type Index struct {
	root    *node
	holding []time.Duration
}

// NewIndex creates an index over n roster positions, all starting at zero.
func NewIndex(n int) *Index {
	idx := &Index{holding: make([]time.Duration, n)}
	for pos := 0; pos < n; pos++ {
		idx.root = insert(idx.root, pos, 0)
	}
	return idx
}

// Set moves pos to a new holding total.
func (x *Index) Set(pos int, holding time.Duration) {
	if pos < 0 || pos >= len(x.holding) {
		return
	}
	if x.holding[pos] == holding {
		return
	}
	x.root = deleteNode(x.root, pos, x.holding[pos])
	x.holding[pos] = holding
	x.root = insert(x.root, pos, holding)
}

// Holding returns the total currently indexed for pos.
func (x *Index) Holding(pos int) time.Duration {
	if pos < 0 || pos >= len(x.holding) {
		return 0
	}
	return x.holding[pos]
}

// Rank returns the 1-based position of pos, or 0 when pos is out of range.
func (x *Index) Rank(pos int) int {
	if pos < 0 || pos >= len(x.holding) {
		return 0
	}
	return countBefore(x.root, pos, x.holding[pos]) + 1
}

// Ordered returns roster positions from most to least time held.
func (x *Index) Ordered() []int {
	out := make([]int, 0, len(x.holding))
	collectAll(x.root, &out)
	return out
}
