package types

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// chain of n states, action 1 moves right, action 0 moves left,
// reaching the right end pays 1 and terminates
type chainEnv struct {
	n   int
	pos int
}

func (c *chainEnv) ActionSpace() int { return 2 }

func (c *chainEnv) Reset() (StateKey, error) {
	c.pos = 0
	return Key(int64(c.pos)), nil
}

func (c *chainEnv) Step(a int) (StateKey, float64, bool, error) {
	if a < 0 || a > 1 {
		return StateKey{}, 0, false, errors.New("bad action")
	}
	if a == 1 {
		c.pos++
	} else if c.pos > 0 {
		c.pos--
	}
	if c.pos == c.n-1 {
		return Key(int64(c.pos)), 1, true, nil
	}
	return Key(int64(c.pos)), 0, false, nil
}

func (c *chainEnv) ValidActions() []int {
	if c.pos == c.n-1 {
		return []int{}
	}
	return []int{0, 1}
}

// greedy variant with a max target, enough to exercise the agent loop
type greedyMax struct {
	rand *rand.Rand
}

func (g *greedyMax) Name() string { return "greedy-max" }

func (g *greedyMax) SelectAction(row []float64, valid []int, epsilon float64) int {
	if len(valid) == 0 {
		return -1
	}
	if g.rand.Float64() < epsilon {
		return valid[g.rand.Intn(len(valid))]
	}
	return Greedy(row, valid)
}

func (g *greedyMax) Target(next []float64, valid []int, _ int, _ float64) float64 {
	if len(valid) == 0 {
		return 0
	}
	return next[Greedy(next, valid)]
}

func (g *greedyMax) DecayEpsilon(epsilon, decay float64) float64 { return epsilon * decay }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAgentChecksActionSpace(t *testing.T) {
	_, err := NewAgent(&chainEnv{n: 3}, NewQTable(5), NewRandomPolicy(rand.New(rand.NewSource(1))))
	require.Error(t, err)
}

func TestFitRunsExactlyTheBudget(t *testing.T) {
	table := NewQTable(2)
	agent, err := NewAgent(&chainEnv{n: 4}, table, &greedyMax{rand: rand.New(rand.NewSource(1))})
	require.NoError(t, err)
	agent.WithLogger(quietLogger())

	seen := 0
	agent.OnEpisode(func(EpisodeMetrics) { seen++ })

	config := DefaultFitConfig()
	config.EpisodeBudget = 50
	episodes, err := agent.Fit(config)
	require.NoError(t, err)
	require.Equal(t, 50, episodes)
	require.Equal(t, 50, seen)

	metrics := agent.Monitor().Episodes()
	require.Len(t, metrics, 50)
	for i, m := range metrics {
		require.Equal(t, i+1, m.Episode)
		require.GreaterOrEqual(t, m.Steps, 3)
		require.GreaterOrEqual(t, m.Delta, 0.0)
	}
	require.Greater(t, table.Value(Key(2), 1), 0.0)
}

func TestFitStopsOnConvergence(t *testing.T) {
	agent, err := NewAgent(&chainEnv{n: 3}, NewQTable(2), &greedyMax{rand: rand.New(rand.NewSource(2))})
	require.NoError(t, err)
	agent.WithLogger(quietLogger())

	config := DefaultFitConfig()
	config.Epsilon = 0.1
	config.Window = 20
	config.Threshold = 1e-6
	episodes, err := agent.Fit(config)
	require.NoError(t, err)
	require.GreaterOrEqual(t, episodes, 20)
	require.True(t, agent.Monitor().Converged(20, 1e-6))
}

func TestFitHorizonCapsEpisodes(t *testing.T) {
	agent, err := NewAgent(&chainEnv{n: 50}, NewQTable(2), NewRandomPolicy(rand.New(rand.NewSource(3))))
	require.NoError(t, err)
	agent.WithLogger(quietLogger())

	config := DefaultFitConfig()
	config.EpisodeBudget = 5
	config.Horizon = 7
	_, err = agent.Fit(config)
	require.NoError(t, err)
	for _, m := range agent.Monitor().Episodes() {
		require.LessOrEqual(t, m.Steps, 7)
	}
}

func TestMonitorConvergedNeedsFullWindow(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < 4; i++ {
		m.Add(EpisodeMetrics{Episode: i + 1, Steps: 2, Reward: 1, Delta: 1e-9})
	}
	require.False(t, m.Converged(5, 1e-4))
	require.True(t, m.Converged(4, 1e-4))
	m.Add(EpisodeMetrics{Episode: 5, Steps: 4, Reward: 3, Delta: 0.5})
	require.False(t, m.Converged(4, 1e-4))

	s := m.Summary()
	require.Equal(t, 5, s.Episodes)
	require.InDelta(t, 2.4, s.MeanSteps, 1e-12)
	require.InDelta(t, 1.4, s.MeanReward, 1e-12)
	require.Equal(t, 0.5, s.MaxDelta)

	m.Reset()
	require.Equal(t, 0, m.Len())
}

func TestRolloutFollowsTable(t *testing.T) {
	table := NewQTable(2)
	for i := int64(0); i < 3; i++ {
		table.Update(Key(i), 1, 1)
	}
	trace, err := Rollout(&chainEnv{n: 4}, table, 0)
	require.NoError(t, err)
	require.Equal(t, 3, trace.Len())
	require.Equal(t, 1.0, trace.Return())
	_, action, reward, next, ok := trace.Last()
	require.True(t, ok)
	require.Equal(t, 1, action)
	require.Equal(t, 1.0, reward)
	require.Equal(t, Key(3), next)
	require.Equal(t, 3, table.Len())
}

type countingSink struct {
	records map[string]int
}

func (c *countingSink) Record(experiment string, _ int, episodes []EpisodeMetrics) error {
	c.records[experiment] += len(episodes)
	return nil
}

func TestComparisonFeedsSinksAndComparators(t *testing.T) {
	config := DefaultFitConfig()
	config.EpisodeBudget = 10
	comparison := NewComparison(&ComparisonConfig{Runs: 2, Fit: config, Logger: quietLogger()})
	comparison.AddExperiment(NewExperiment("greedy", &greedyMax{rand: rand.New(rand.NewSource(4))}, &chainEnv{n: 3}))
	comparison.AddExperiment(NewExperiment("random", NewRandomPolicy(rand.New(rand.NewSource(5))), &chainEnv{n: 3}))

	sink := &countingSink{records: make(map[string]int)}
	comparison.AddSink(sink)
	compared := 0
	comparison.AddComparator("count", func(_ int, names []string, monitors []*Monitor) error {
		require.Equal(t, []string{"greedy", "random"}, names)
		require.Len(t, monitors, 2)
		compared++
		return nil
	})

	require.NoError(t, comparison.Run(context.Background()))
	require.Equal(t, 2, compared)
	require.Equal(t, map[string]int{"greedy": 20, "random": 20}, sink.records)
	require.NotNil(t, comparison.Experiments[0].Table())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, comparison.Run(ctx), context.Canceled)
}
