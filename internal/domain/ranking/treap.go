// Package ranking keeps players ordered by accumulated holding time.
//
// Ordering: holding DESC, then roster position ASC (deterministic).
// The BST comparator treats "less" as "ranks earlier", so an in-order walk
// yields the ranking from most to least time held. Every node carries its
// subtree size, which turns the treap into an order-statistics tree and lets
// Rank answer in O(log n).
package ranking

import "time"

type node struct {
	pos     int // roster declaration position
	holding time.Duration
	prio    uint64
	left    *node
	right   *node
	size    int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aHold, aPos) ranks before (bHold, bPos).
func less(aHold time.Duration, aPos int, bHold time.Duration, bPos int) bool {
	if aHold != bHold {
		return aHold > bHold
	}
	return aPos < bPos
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// priorityFor derives a heap priority from the roster position with a
// splitmix64 step. Priorities must not follow the key order or the tree
// degenerates into a list.
func priorityFor(pos int) uint64 {
	z := uint64(pos) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func insert(n *node, pos int, holding time.Duration) *node {
	if n == nil {
		return &node{pos: pos, holding: holding, prio: priorityFor(pos), size: 1}
	}
	if less(holding, pos, n.holding, n.pos) {
		n.left = insert(n.left, pos, holding)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, pos, holding)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, pos int, holding time.Duration) *node {
	if n == nil {
		return nil
	}
	if pos == n.pos {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, pos, holding)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, pos, holding)
		}
	} else if less(holding, pos, n.holding, n.pos) {
		n.left = deleteNode(n.left, pos, holding)
	} else {
		n.right = deleteNode(n.right, pos, holding)
	}
	fix(n)
	return n
}

// countBefore returns how many nodes rank strictly before (holding, pos).
func countBefore(n *node, pos int, holding time.Duration) int {
	count := 0
	for n != nil {
		if less(n.holding, n.pos, holding, pos) {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

func collectAll(n *node, out *[]int) {
	if n == nil {
		return
	}
	collectAll(n.left, out)
	*out = append(*out, n.pos)
	collectAll(n.right, out)
}
