package policies

import (
	"github.com/zeu5/osm-deviation-rl/types"
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
)

// TopN is the number of best actions SARSA keeps in its exploration set
const TopN = 3

// Sarsa is the on-policy variant with n-epsilon-greedy exploration: instead of
// any action it explores among the best few and the untried ones
type Sarsa struct {
	rand *rand.Rand
	n    int
}

var _ types.Policy = &Sarsa{}

func NewSarsa(r *rand.Rand) *Sarsa {
	return &Sarsa{
		rand: r,
		n:    TopN,
	}
}

func (s *Sarsa) Name() string {
	return "SARSA"
}

func (s *Sarsa) SelectAction(row []float64, valid []int, epsilon float64) int {
	if len(valid) == 0 {
		return -1
	}
	values := types.Restrict(row, valid)
	if s.rand.Float64() < epsilon || allZero(row) {
		candidates := Candidates(row, valid, s.n)
		return candidates[s.rand.Intn(len(candidates))]
	}
	return valid[floats.MaxIdx(values)]
}

func (s *Sarsa) Target(next []float64, _ []int, nextAction int, _ float64) float64 {
	if nextAction < 0 {
		return 0
	}
	return next[nextAction]
}

func (s *Sarsa) DecayEpsilon(epsilon, decay float64) float64 {
	return decayFloored(epsilon, decay)
}

// Candidates returns the union of the n highest valued valid actions and the
// valid actions still at zero, without duplicates and in ascending order.
// Never empty when valid is not.
func Candidates(row []float64, valid []int, n int) []int {
	ranked := make([]int, len(valid))
	copy(ranked, valid)
	slices.SortStableFunc(ranked, func(a, b int) int {
		switch {
		case row[a] > row[b]:
			return -1
		case row[a] < row[b]:
			return 1
		}
		return 0
	})
	if n > len(ranked) {
		n = len(ranked)
	}

	set := make(map[int]bool)
	for _, a := range ranked[:n] {
		set[a] = true
	}
	for _, a := range valid {
		if row[a] == 0 {
			set[a] = true
		}
	}
	out := make([]int, 0, len(set))
	for _, a := range valid {
		if set[a] {
			out = append(out, a)
			delete(set, a)
		}
	}
	return out
}
