package scoring

// Default rule values.
const (
	defaultPenaltyPerHour = 5
	defaultIsolationBonus = 35
)

// defaultAwards is indexed by holding rank minus one; ranks past the end earn nothing.
var defaultAwards = []int{50, 40, 30, 20, 10, 5}

// Rules is the tunable rule set of a run.
type Rules struct {
	awards         []int
	penaltyPerHour int
	isolationBonus int
}

// Option applies a configuration option to Rules.
type Option func(*Rules)

// WithAwardSchedule replaces the catch award schedule. Empty schedules are ignored.
func WithAwardSchedule(awards []int) Option {
	return func(r *Rules) {
		if len(awards) > 0 {
			r.awards = append([]int(nil), awards...)
		}
	}
}

// WithPenaltyPerHour sets the points lost per full hour held.
func WithPenaltyPerHour(points int) Option {
	return func(r *Rules) {
		if points >= 0 {
			r.penaltyPerHour = points
		}
	}
}

// WithIsolationBonus sets the points for a day untagged together with both neighbours.
func WithIsolationBonus(points int) Option {
	return func(r *Rules) {
		if points >= 0 {
			r.isolationBonus = points
		}
	}
}

// NewRules builds the rule set, starting from the standard values.
func NewRules(opts ...Option) Rules {
	r := Rules{
		awards:         append([]int(nil), defaultAwards...),
		penaltyPerHour: defaultPenaltyPerHour,
		isolationBonus: defaultIsolationBonus,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Award returns the points for catching a player at 1-based holding rank.
func (r Rules) Award(rank int) int {
	if rank < 1 || rank > len(r.awards) {
		return 0
	}
	return r.awards[rank-1]
}

// Awards returns a copy of the award schedule.
func (r Rules) Awards() []int { return append([]int(nil), r.awards...) }

// PenaltyPerHour is the points lost per full hour held.
func (r Rules) PenaltyPerHour() int { return r.penaltyPerHour }

// IsolationBonus is the points per isolated untagged day.
func (r Rules) IsolationBonus() int { return r.isolationBonus }
