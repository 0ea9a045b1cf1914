package types

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EpisodeMetrics describes a single finished episode
type EpisodeMetrics struct {
	Episode  int
	Steps    int
	Reward   float64 // discounted cumulative reward
	Delta    float64 // largest absolute change of a table entry
	Duration time.Duration
	Epsilon  float64 // exploration rate at the end of the episode
}

// Monitor collects the metrics of every episode of a fit
type Monitor struct {
	episodes []EpisodeMetrics
}

func NewMonitor() *Monitor {
	return &Monitor{
		episodes: make([]EpisodeMetrics, 0),
	}
}

// Add records an episode
func (m *Monitor) Add(e EpisodeMetrics) {
	m.episodes = append(m.episodes, e)
}

// Len returns the number of episodes recorded
func (m *Monitor) Len() int {
	return len(m.episodes)
}

// Episodes returns the recorded metrics in episode order
func (m *Monitor) Episodes() []EpisodeMetrics {
	out := make([]EpisodeMetrics, len(m.episodes))
	copy(out, m.episodes)
	return out
}

// Reset forgets every episode
func (m *Monitor) Reset() {
	m.episodes = m.episodes[:0]
}

// Converged reports whether the last window episodes all changed the table by
// less than threshold. Fewer than window episodes never converge.
func (m *Monitor) Converged(window int, threshold float64) bool {
	if window <= 0 || len(m.episodes) < window {
		return false
	}
	deltas := make([]float64, window)
	for i, e := range m.episodes[len(m.episodes)-window:] {
		deltas[i] = e.Delta
	}
	return floats.Max(deltas) < threshold
}

// Series returns one metric of every episode, the columns of a report
func (m *Monitor) Series() (steps, rewards, deltas, epsilons []float64) {
	n := len(m.episodes)
	steps = make([]float64, n)
	rewards = make([]float64, n)
	deltas = make([]float64, n)
	epsilons = make([]float64, n)
	for i, e := range m.episodes {
		steps[i] = float64(e.Steps)
		rewards[i] = e.Reward
		deltas[i] = e.Delta
		epsilons[i] = e.Epsilon
	}
	return
}

// Summary of a fit
type Summary struct {
	Episodes   int
	MeanSteps  float64
	MeanReward float64
	MaxDelta   float64
	Duration   time.Duration
}

// Summary aggregates the recorded episodes
func (m *Monitor) Summary() Summary {
	s := Summary{Episodes: len(m.episodes)}
	if len(m.episodes) == 0 {
		return s
	}
	steps, rewards, deltas, _ := m.Series()
	s.MeanSteps = stat.Mean(steps, nil)
	s.MeanReward = stat.Mean(rewards, nil)
	s.MaxDelta = math.Abs(floats.Max(deltas))
	for _, e := range m.episodes {
		s.Duration += e.Duration
	}
	return s
}
