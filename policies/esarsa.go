package policies

import (
	"github.com/zeu5/osm-deviation-rl/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ExpectedSarsa updates towards the expected value of the next state under the
// epsilon greedy distribution and samples its actions from that distribution.
// Unvisited states are explored uniformly.
type ExpectedSarsa struct {
	rand *rand.Rand
}

var _ types.Policy = &ExpectedSarsa{}

func NewExpectedSarsa(r *rand.Rand) *ExpectedSarsa {
	return &ExpectedSarsa{
		rand: r,
	}
}

func (e *ExpectedSarsa) Name() string {
	return "Expected-SARSA"
}

func (e *ExpectedSarsa) SelectAction(row []float64, valid []int, epsilon float64) int {
	if len(valid) == 0 {
		return -1
	}
	if unvisited(row) {
		return valid[e.rand.Intn(len(valid))]
	}
	i, ok := sampleuv.NewWeighted(Probabilities(row, valid, epsilon), e.rand).Take()
	if !ok {
		return valid[e.rand.Intn(len(valid))]
	}
	return valid[i]
}

func (e *ExpectedSarsa) Target(next []float64, valid []int, _ int, epsilon float64) float64 {
	if len(valid) == 0 {
		return 0
	}
	return floats.Dot(Probabilities(next, valid, epsilon), types.Restrict(next, valid))
}

func (e *ExpectedSarsa) DecayEpsilon(epsilon, decay float64) float64 {
	return decayFloored(epsilon, decay)
}

// Probabilities is the epsilon greedy distribution over the valid actions, in
// the order of valid: epsilon/|valid| each plus 1-epsilon on the greedy one
func Probabilities(row []float64, valid []int, epsilon float64) []float64 {
	probs := make([]float64, len(valid))
	if len(valid) == 0 {
		return probs
	}
	for i := range probs {
		probs[i] = epsilon / float64(len(valid))
	}
	probs[floats.MaxIdx(types.Restrict(row, valid))] += 1 - epsilon
	return probs
}
