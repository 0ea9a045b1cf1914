package policies

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

func TestCandidatesUnionOfTopAndZero(t *testing.T) {
	row := []float64{0.5, 0, 0.9, 0.1, 0, 0.7}
	valid := []int{0, 1, 2, 3, 4, 5}

	got := Candidates(row, valid, 3)
	require.Equal(t, []int{0, 1, 2, 4, 5}, got)
}

func TestCandidatesRestrictedToValid(t *testing.T) {
	row := []float64{0.5, 0, 0.9, 0.1}
	got := Candidates(row, []int{1, 3}, 3)
	require.Equal(t, []int{1, 3}, got)
}

func TestCandidatesNoDuplicates(t *testing.T) {
	// zero valued actions that are also among the top ones appear once
	row := []float64{0, 0, 0}
	got := Candidates(row, []int{0, 1, 2}, 3)
	require.Equal(t, []int{0, 1, 2}, got)
}

func TestProbabilitiesSumToOne(t *testing.T) {
	row := []float64{0.1, 0.4, -0.2, 0.3}
	valid := []int{0, 1, 3}
	for _, eps := range []float64{0, 0.025, 0.3, 1} {
		probs := Probabilities(row, valid, eps)
		require.Len(t, probs, 3)
		require.InDelta(t, 1.0, floats.Sum(probs), 1e-12)
		require.InDelta(t, 1-eps+eps/3, probs[1], 1e-12)
	}
}

func TestExpectedSarsaTarget(t *testing.T) {
	e := NewExpectedSarsa(rand.New(rand.NewSource(1)))
	next := []float64{1, 3}
	got := e.Target(next, []int{0, 1}, -1, 0.5)
	require.InDelta(t, 0.25*1+0.75*3, got, 1e-12)
	require.Equal(t, 0.0, e.Target(next, nil, -1, 0.5))
}

func TestQLearningTargetIsMaxOverValid(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(1)))
	next := []float64{5, -1, 2}
	require.Equal(t, 2.0, q.Target(next, []int{1, 2}, -1, 0.1))
	require.Equal(t, 0.0, q.Target(next, []int{}, -1, 0.1))
}

func TestSarsaTargetFollowsNextAction(t *testing.T) {
	s := NewSarsa(rand.New(rand.NewSource(1)))
	next := []float64{5, -1, 2}
	require.Equal(t, -1.0, s.Target(next, []int{0, 1, 2}, 1, 0.1))
	require.Equal(t, 0.0, s.Target(next, []int{0, 1, 2}, -1, 0.1))
}

func TestGreedySelectionWithoutExploration(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	row := []float64{0.2, 0.8, 0.5}
	valid := []int{0, 1, 2}

	require.Equal(t, 1, NewQLearning(r).SelectAction(row, valid, 0))
	require.Equal(t, 1, NewSarsa(r).SelectAction(row, valid, 0))
	require.Equal(t, 1, NewExpectedSarsa(r).SelectAction(row, valid, 0))
	require.Equal(t, 2, NewQLearning(r).SelectAction(row, []int{0, 2}, 0))
}

func TestSelectionStaysInValid(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	row := make([]float64, 6)
	valid := []int{1, 4}
	for _, p := range []interface {
		SelectAction([]float64, []int, float64) int
	}{NewQLearning(r), NewSarsa(r), NewExpectedSarsa(r)} {
		for i := 0; i < 100; i++ {
			require.Contains(t, valid, p.SelectAction(row, valid, 1))
		}
		require.Equal(t, -1, p.SelectAction(row, nil, 1))
	}
}

func TestEpsilonDecay(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	require.InDelta(t, 0.01*0.5, NewQLearning(r).DecayEpsilon(0.01, 0.5), 1e-15)
	require.Equal(t, EpsilonFloor, NewSarsa(r).DecayEpsilon(0.03, 0.5))
	require.Equal(t, EpsilonFloor, NewExpectedSarsa(r).DecayEpsilon(0.01, 0.999))
	require.False(t, math.IsNaN(NewSarsa(r).DecayEpsilon(0.8, 0.999)))
}

func TestQLearningExploresZeroSumRow(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(11)))
	counts := make(map[int]int)
	for i := 0; i < 1000; i++ {
		counts[q.SelectAction([]float64{1, -1}, []int{0, 1}, 0)]++
	}
	require.Len(t, counts, 2)
	require.Greater(t, counts[0], 350)
	require.Greater(t, counts[1], 350)

	// a row that does not sum to zero is exploited
	require.Equal(t, 0, q.SelectAction([]float64{1, -0.5}, []int{0, 1}, 0))
}

func TestExpectedSarsaExploresUnvisitedRow(t *testing.T) {
	e := NewExpectedSarsa(rand.New(rand.NewSource(5)))
	row := make([]float64, 4)
	valid := []int{0, 1, 2, 3}
	counts := make(map[int]int)
	for i := 0; i < 1000; i++ {
		counts[e.SelectAction(row, valid, EpsilonFloor)]++
	}
	require.Len(t, counts, 4)
	for _, a := range valid {
		require.Greater(t, counts[a], 150, "action %d", a)
	}
}

func TestSarsaExploitsNonZeroRow(t *testing.T) {
	s := NewSarsa(rand.New(rand.NewSource(5)))
	for i := 0; i < 100; i++ {
		require.Equal(t, 0, s.SelectAction([]float64{1, -1}, []int{0, 1}, 0))
	}
}
