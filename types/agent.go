package types

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

const (
	// DefaultWindow is the number of consecutive episodes checked for convergence
	DefaultWindow = 200
	// DefaultThreshold is the largest table change still counted as converged
	DefaultThreshold = 1e-4
)

// FitConfig holds the learning parameters of a fit. Values are not range
// checked: gamma, epsilon and alpha outside [0, 1] simply give degenerate
// numbers.
type FitConfig struct {
	Gamma        float64
	Epsilon      float64
	EpsilonDecay float64
	Alpha        float64
	// EpisodeBudget stops the fit after exactly that many episodes when > 0,
	// otherwise the fit runs until convergence
	EpisodeBudget int
	// Horizon caps the steps of an episode when > 0
	Horizon   int
	Window    int
	Threshold float64
}

// DefaultFitConfig returns the parameters used by the experiments
func DefaultFitConfig() FitConfig {
	return FitConfig{
		Gamma:        0.95,
		Epsilon:      0.8,
		EpsilonDecay: 0.999,
		Alpha:        0.8,
		Window:       DefaultWindow,
		Threshold:    DefaultThreshold,
	}
}

// Tabular temporal difference agent. The environment, the table and the
// policy are injected; the policy decides the algorithm variant.
type Agent struct {
	environment Environment
	table       *QTable
	policy      Policy
	monitor     *Monitor
	logger      *slog.Logger
	onEpisode   func(EpisodeMetrics)
}

// Instantiates a new Agent. The table must match the action space of the environment.
func NewAgent(env Environment, table *QTable, policy Policy) (*Agent, error) {
	if table.ActionSpace() != env.ActionSpace() {
		return nil, fmt.Errorf("table has %d actions, environment %d", table.ActionSpace(), env.ActionSpace())
	}
	return &Agent{
		environment: env,
		table:       table,
		policy:      policy,
		monitor:     NewMonitor(),
		logger:      slog.Default(),
	}, nil
}

// WithLogger replaces the logger of the agent
func (a *Agent) WithLogger(l *slog.Logger) *Agent {
	a.logger = l
	return a
}

// OnEpisode registers a callback run after every episode
func (a *Agent) OnEpisode(f func(EpisodeMetrics)) *Agent {
	a.onEpisode = f
	return a
}

// Table returns the table the agent learns into
func (a *Agent) Table() *QTable {
	return a.table
}

// Monitor returns the metrics of the last fit
func (a *Agent) Monitor() *Monitor {
	return a.monitor
}

// Policy returns the algorithm variant
func (a *Agent) Policy() Policy {
	return a.policy
}

// Fit runs episodes until the episode budget is used up or, without a budget,
// until the table converged. Returns the number of episodes run.
func (a *Agent) Fit(config FitConfig) (int, error) {
	window := config.Window
	if window <= 0 {
		window = DefaultWindow
	}
	threshold := config.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	a.monitor.Reset()
	epsilon := config.Epsilon
	episodes := 0
	for {
		metrics, nextEpsilon, err := a.runEpisode(episodes+1, epsilon, config)
		if err != nil {
			return episodes, fmt.Errorf("%s episode %d: %w", a.policy.Name(), episodes+1, err)
		}
		epsilon = nextEpsilon
		episodes += 1
		a.monitor.Add(metrics)
		if a.onEpisode != nil {
			a.onEpisode(metrics)
		}
		a.logger.Debug("episode finished",
			"policy", a.policy.Name(),
			"episode", episodes,
			"steps", metrics.Steps,
			"reward", metrics.Reward,
			"delta", metrics.Delta,
			"epsilon", metrics.Epsilon)

		if config.EpisodeBudget > 0 {
			if episodes >= config.EpisodeBudget {
				break
			}
			continue
		}
		if a.monitor.Converged(window, threshold) {
			break
		}
	}
	a.logger.Info("fit finished", "policy", a.policy.Name(), "episodes", episodes)
	return episodes, nil
}

// run a single episode and return its metrics with the decayed epsilon
func (a *Agent) runEpisode(episode int, epsilon float64, config FitConfig) (EpisodeMetrics, float64, error) {
	start := time.Now()
	metrics := EpisodeMetrics{Episode: episode}

	state, err := a.environment.Reset()
	if err != nil {
		return metrics, epsilon, err
	}
	action := a.policy.SelectAction(a.table.Get(state), a.environment.ValidActions(), epsilon)
	epsilon = a.policy.DecayEpsilon(epsilon, config.EpsilonDecay)

	for action >= 0 {
		nextState, reward, done, err := a.environment.Step(action)
		if err != nil {
			return metrics, epsilon, err
		}

		nextRow := a.table.Get(nextState)
		nextValid := a.environment.ValidActions()
		nextAction := -1
		if !done {
			nextAction = a.policy.SelectAction(nextRow, nextValid, epsilon)
		}

		value := a.table.Value(state, action)
		target := a.policy.Target(nextRow, nextValid, nextAction, epsilon)
		nextValue := value + reward + config.Alpha*(config.Gamma*target-value)
		a.table.Update(state, action, nextValue)

		metrics.Steps += 1
		metrics.Reward += math.Pow(config.Gamma, float64(metrics.Steps)) * reward
		metrics.Delta = math.Max(metrics.Delta, math.Abs(nextValue-value))

		if done || (config.Horizon > 0 && metrics.Steps >= config.Horizon) {
			break
		}
		state = nextState
		action = nextAction
	}

	metrics.Duration = time.Since(start)
	metrics.Epsilon = epsilon
	return metrics, epsilon, nil
}
