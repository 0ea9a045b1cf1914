package types

import (
	"gonum.org/v1/gonum/floats"
	"golang.org/x/exp/rand"
)

// Policy is the part of a temporal difference algorithm that differs between
// variants: how an action is picked and what the update target of the next
// state is. The table, the episode loop and the convergence check are shared
// by the Agent.
type Policy interface {
	Name() string
	// SelectAction picks one of the valid actions given the action values of the state
	SelectAction(row []float64, valid []int, epsilon float64) int
	// Target is the value of the next state used in the update, nextAction is
	// the action already selected for the next state
	Target(next []float64, valid []int, nextAction int, epsilon float64) float64
	// DecayEpsilon returns the exploration rate for the next episode
	DecayEpsilon(epsilon, decay float64) float64
}

// Greedy returns the valid action with the highest value, the lowest index on
// ties. A nil valid slice means every action is valid. Returns -1 when there is
// nothing to choose from.
func Greedy(row []float64, valid []int) int {
	if valid == nil {
		if len(row) == 0 {
			return -1
		}
		return floats.MaxIdx(row)
	}
	if len(valid) == 0 {
		return -1
	}
	return valid[floats.MaxIdx(Restrict(row, valid))]
}

// Restrict copies the values of the valid actions, in the order of valid
func Restrict(row []float64, valid []int) []float64 {
	out := make([]float64, len(valid))
	for i, a := range valid {
		out[i] = row[a]
	}
	return out
}

// AllActions returns [0, n)
func AllActions(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// RandomPolicy picks valid actions uniformly and never learns anything.
// Serves as a baseline in comparisons.
type RandomPolicy struct {
	rand *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy(r *rand.Rand) *RandomPolicy {
	return &RandomPolicy{
		rand: r,
	}
}

func (r *RandomPolicy) Name() string {
	return "Random"
}

func (r *RandomPolicy) SelectAction(_ []float64, valid []int, _ float64) int {
	if len(valid) == 0 {
		return -1
	}
	return valid[r.rand.Intn(len(valid))]
}

func (r *RandomPolicy) Target(_ []float64, _ []int, _ int, _ float64) float64 {
	return 0
}

func (r *RandomPolicy) DecayEpsilon(epsilon, _ float64) float64 {
	return epsilon
}
