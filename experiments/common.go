package experiments

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strings"
	"time"

	"github.com/zeu5/osm-deviation-rl/policies"
	"github.com/zeu5/osm-deviation-rl/report"
	"github.com/zeu5/osm-deviation-rl/types"
	"github.com/zeu5/osm-deviation-rl/util"
	"golang.org/x/exp/rand"
)

// Algorithms known to the command line, in comparison order
var Algorithms = []string{"q-learning", "sarsa", "expected-sarsa", "random"}

// NewPolicy creates the named algorithm drawing from r
func NewPolicy(name string, r *rand.Rand) (types.Policy, error) {
	switch strings.ToLower(name) {
	case "q-learning", "qlearning", "q":
		return policies.NewQLearning(r), nil
	case "sarsa":
		return policies.NewSarsa(r), nil
	case "expected-sarsa", "esarsa":
		return policies.NewExpectedSarsa(r), nil
	case "random":
		return types.NewRandomPolicy(r), nil
	}
	return nil, fmt.Errorf("unknown algorithm %q", name)
}

// environment factory, every experiment learns on its own instance so that
// all of them see the same seeded episodes
type envFactory func() (types.Environment, *rand.Rand, error)

// signalContext is cancelled on interrupt
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// compare fits every configured algorithm and writes tables and reports to the save folder
func compare(ctx context.Context, name string, newEnv envFactory) (*types.Comparison, error) {
	algorithms := config.Fit.Algorithms
	if len(algorithms) == 0 {
		algorithms = Algorithms
	}

	comparison := types.NewComparison(&types.ComparisonConfig{
		Runs:   runs,
		Fit:    config.FitConfig(episodes, horizon),
		Logger: logger.With("task", name),
	})
	names := make([]string, 0, len(algorithms))
	for _, a := range algorithms {
		env, r, err := newEnv()
		if err != nil {
			return nil, err
		}
		policy, err := NewPolicy(a, r)
		if err != nil {
			return nil, err
		}
		comparison.AddExperiment(types.NewExperiment(policy.Name(), policy, env))
		names = append(names, policy.Name())
	}

	saveDir := path.Join(saveFile, name)
	if err := util.EnsureDir(saveDir); err != nil {
		return nil, err
	}
	if config.Sinks.CSV {
		comparison.AddSink(report.NewCSVSink(path.Join(saveDir, "reports")))
	}
	if config.Sinks.SQLite != "" {
		sink, err := report.NewSQLiteSink(config.Sinks.SQLite)
		if err != nil {
			return nil, err
		}
		defer sink.Close()
		comparison.AddSink(sink)
	}
	if config.Sinks.Plot {
		comparison.AddComparator("plot", report.PlotComparator(path.Join(saveDir, "plots")))
	}
	comparison.AddComparator("summary", summaryComparator())

	printer := types.NewTerminalPrinter(ctx, os.Stdout, names, time.Second)
	comparison.SetProgress(printer.Progress())
	printer.Start()
	err := comparison.Run(ctx)
	printer.Stop()
	if err != nil {
		return nil, err
	}

	for _, e := range comparison.Experiments {
		file := path.Join(saveDir, tableFileName(e.Name))
		if err := e.Table().Save(file); err != nil {
			return nil, err
		}
		logger.Info("saved table", "experiment", e.Name, "file", file, "states", e.Table().Len())
	}
	return comparison, nil
}

func summaryComparator() types.Comparator {
	return func(run int, names []string, monitors []*types.Monitor) error {
		for i, m := range monitors {
			s := m.Summary()
			fmt.Printf("run %d %-16s episodes %6d, mean steps %8.2f, mean reward %8.4f, took %s\n",
				run+1, names[i], s.Episodes, s.MeanSteps, s.MeanReward, s.Duration.Round(time.Millisecond))
		}
		return nil
	}
}

func tableFileName(experiment string) string {
	return strings.ToLower(experiment) + ".json"
}
