package policies

import (
	"github.com/zeu5/osm-deviation-rl/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// QLearning is the off-policy variant: epsilon greedy exploration and the
// best next value as the update target
type QLearning struct {
	rand *rand.Rand
}

var _ types.Policy = &QLearning{}

func NewQLearning(r *rand.Rand) *QLearning {
	return &QLearning{
		rand: r,
	}
}

func (q *QLearning) Name() string {
	return "Q-learning"
}

// SelectAction explores uniformly with probability epsilon or when the row
// looks unvisited
func (q *QLearning) SelectAction(row []float64, valid []int, epsilon float64) int {
	if len(valid) == 0 {
		return -1
	}
	values := types.Restrict(row, valid)
	if q.rand.Float64() < epsilon || unvisited(row) {
		return valid[q.rand.Intn(len(valid))]
	}
	return valid[floats.MaxIdx(values)]
}

func (q *QLearning) Target(next []float64, valid []int, _ int, _ float64) float64 {
	if len(valid) == 0 {
		return 0
	}
	return floats.Max(types.Restrict(next, valid))
}

func (q *QLearning) DecayEpsilon(epsilon, decay float64) float64 {
	return epsilon * decay
}

// unvisited reports a row whose values sum to exactly zero, which is how a
// state nothing was learned about looks
func unvisited(row []float64) bool {
	return floats.Sum(row) == 0
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

// floored decay shared by the on-policy variants
func decayFloored(epsilon, decay float64) float64 {
	if epsilon*decay < EpsilonFloor {
		return EpsilonFloor
	}
	return epsilon * decay
}

// EpsilonFloor is the smallest exploration rate of SARSA and Expected-SARSA
const EpsilonFloor = 0.025
