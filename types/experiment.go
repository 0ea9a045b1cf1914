package types

import (
	"context"
	"fmt"
	"log/slog"
)

// Sink receives the metrics of a finished experiment run
type Sink interface {
	Record(experiment string, run int, episodes []EpisodeMetrics) error
}

// Comparator differentiates between the monitors of the experiments of one run
// run, experiment names, monitors
type Comparator func(int, []string, []*Monitor) error

func NoopComparator() Comparator {
	return func(int, []string, []*Monitor) error { return nil }
}

// Progress is notified after every episode of an experiment
type Progress func(experiment string, m EpisodeMetrics)

// Experiment fits one policy on one environment with a fresh table per run
type Experiment struct {
	Name        string
	policy      Policy
	environment Environment
	table       *QTable
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, policy Policy, environment Environment) *Experiment {
	return &Experiment{
		Name:        name,
		policy:      policy,
		environment: environment,
	}
}

// Table returns the table learned in the last run, nil before any run
func (e *Experiment) Table() *QTable {
	return e.table
}

// Environment returns the environment the experiment learns on
func (e *Experiment) Environment() Environment {
	return e.environment
}

// Run fits a fresh table and returns the monitor of the fit
func (e *Experiment) Run(config FitConfig, logger *slog.Logger, progress Progress) (*Monitor, error) {
	table := NewQTable(e.environment.ActionSpace())
	agent, err := NewAgent(e.environment, table, e.policy)
	if err != nil {
		return nil, err
	}
	agent.WithLogger(logger.With("experiment", e.Name))
	if progress != nil {
		agent.OnEpisode(func(m EpisodeMetrics) { progress(e.Name, m) })
	}
	if _, err := agent.Fit(config); err != nil {
		return nil, err
	}
	e.table = table
	return agent.Monitor(), nil
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs   int
	Fit    FitConfig
	Logger *slog.Logger
	// Progress is called after every episode when set
	Progress Progress
}

// Comparison contains the different experiments to compare.
// The monitors of every run are written to the sinks and handed to the comparators.
type Comparison struct {
	Experiments []*Experiment
	sinks       []Sink
	comparators map[string]Comparator
	config      *ComparisonConfig
}

// NewComparison creates a comparison instance
func NewComparison(config *ComparisonConfig) *Comparison {
	if config.Runs <= 0 {
		config.Runs = 1
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Comparison{
		Experiments: make([]*Experiment, 0),
		sinks:       make([]Sink, 0),
		comparators: make(map[string]Comparator),
		config:      config,
	}
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// AddSink registers a sink for the metrics of every experiment run
func (c *Comparison) AddSink(s Sink) {
	c.sinks = append(c.sinks, s)
}

// AddComparator registers a comparator called at the end of every run
func (c *Comparison) AddComparator(name string, comp Comparator) {
	c.comparators[name] = comp
}

// SetProgress replaces the per episode callback
func (c *Comparison) SetProgress(p Progress) {
	c.config.Progress = p
}

// Run the comparison
func (c *Comparison) Run(ctx context.Context) error {
	for run := 0; run < c.config.Runs; run++ {
		c.config.Logger.Info("starting run", "run", run+1, "experiments", len(c.Experiments))

		names := make([]string, len(c.Experiments))
		monitors := make([]*Monitor, len(c.Experiments))
		for i, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			monitor, err := e.Run(c.config.Fit, c.config.Logger, c.config.Progress)
			if err != nil {
				return fmt.Errorf("experiment %s run %d: %w", e.Name, run+1, err)
			}
			for _, s := range c.sinks {
				if err := s.Record(e.Name, run, monitor.Episodes()); err != nil {
					return fmt.Errorf("recording %s: %w", e.Name, err)
				}
			}
			names[i] = e.Name
			monitors[i] = monitor
		}
		for name, comp := range c.comparators {
			if err := comp(run, names, monitors); err != nil {
				return fmt.Errorf("comparator %s: %w", name, err)
			}
		}
	}
	return nil
}
