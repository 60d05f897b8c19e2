package model

import (
	"errors"
	"fmt"
	"strings"
)

// Roster errors.
var (
	ErrEmptyRoster     = errors.New("roster is empty")
	ErrDuplicatePlayer = errors.New("duplicate player in roster")
	ErrBlankPlayer     = errors.New("blank player name in roster")
)

// Roster is the fixed, ordered set of players. Declaration order is used for
// display and to break ties between otherwise equal players.
type Roster struct {
	players []Player
	index   map[Player]int
}

// NewRoster builds a roster from names in declaration order.
func NewRoster(names ...string) (*Roster, error) {
	if len(names) == 0 {
		return nil, ErrEmptyRoster
	}
	r := &Roster{
		players: make([]Player, 0, len(names)),
		index:   make(map[Player]int, len(names)),
	}
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, ErrBlankPlayer
		}
		p := Player(n)
		if _, ok := r.index[p]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePlayer, n)
		}
		r.index[p] = len(r.players)
		r.players = append(r.players, p)
	}
	return r, nil
}

// MustRoster is NewRoster that panics on error. Intended for tests and constants.
func MustRoster(names ...string) *Roster {
	r, err := NewRoster(names...)
	if err != nil {
		panic(err)
	}
	return r
}

// Players returns a copy of the roster in declaration order.
func (r *Roster) Players() []Player {
	out := make([]Player, len(r.players))
	copy(out, r.players)
	return out
}

// Len is the number of players.
func (r *Roster) Len() int { return len(r.players) }

// Index returns the declaration position of p.
func (r *Roster) Index(p Player) (int, bool) {
	i, ok := r.index[p]
	return i, ok
}

// Contains reports whether p is on the roster.
func (r *Roster) Contains(p Player) bool {
	_, ok := r.index[p]
	return ok
}

// At returns the player at declaration position i.
func (r *Roster) At(i int) Player { return r.players[i] }
