package experiments

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeu5/osm-deviation-rl/deviation"
	"github.com/zeu5/osm-deviation-rl/network"
	"github.com/zeu5/osm-deviation-rl/types"
	"github.com/zeu5/osm-deviation-rl/util"
	"golang.org/x/exp/rand"
)

// loadGraph reads the JSON graph or, without one, the OSM extract
func loadGraph(ctx context.Context, c *Config) (*network.Graph, error) {
	switch {
	case c.Graph != "":
		f, err := os.Open(c.Graph)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return network.LoadGraphJSON(f)
	case c.OSM != "":
		f, err := os.Open(c.OSM)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return network.ReadOSM(ctx, f, runtime.GOMAXPROCS(0))
	}
	return nil, fmt.Errorf("config needs a graph or an osm file: %w", network.ErrInvalidArgument)
}

// loadTrip reads a JSON trip or a plain list of way ids named after the file
func loadTrip(file string) (*network.Trip, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(file), ".json") {
		return network.LoadTripJSON(f)
	}
	id := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return network.LoadTripLines(f, id)
}

func loadScenarios(c *Config) ([]deviation.Scenario, error) {
	if len(c.Trips) == 0 {
		return nil, fmt.Errorf("config lists no trips: %w", network.ErrInvalidArgument)
	}
	scenarios := make([]deviation.Scenario, len(c.Trips))
	for i, t := range c.Trips {
		trip, err := loadTrip(t.File)
		if err != nil {
			return nil, err
		}
		blocked := make([]network.WayID, len(t.Blocked))
		for j, b := range t.Blocked {
			blocked[j] = network.WayID(b)
		}
		scenarios[i] = deviation.Scenario{
			Trip:    trip,
			Blocked: blocked,
			Start:   network.WayID(t.Start),
		}
	}
	return scenarios, nil
}

// WayDeviation learns way by way detours around the blocked ways of the configured trips
func WayDeviation(ctx context.Context) error {
	graph, err := loadGraph(ctx, config)
	if err != nil {
		return err
	}
	scenarios, err := loadScenarios(config)
	if err != nil {
		return err
	}
	logger.Info("loaded network", "ways", graph.Size(), "max_degree", graph.MaxDegree(), "scenarios", len(scenarios))

	newEnv := func() (types.Environment, *rand.Rand, error) {
		env, err := deviation.NewEnvironment(graph, seed)
		if err != nil {
			return nil, nil, err
		}
		task, err := deviation.NewWayTask(env, scenarios)
		if err != nil {
			return nil, nil, err
		}
		return task, env.Rand(), nil
	}

	comparison, err := compare(ctx, "ways", newEnv)
	if err != nil {
		return err
	}

	// one greedy rollout per learned table
	for _, e := range comparison.Experiments {
		trace, err := types.Rollout(e.Environment(), e.Table(), horizon)
		if err != nil {
			return err
		}
		bs, err := json.Marshal(trace)
		if err != nil {
			return err
		}
		file := path.Join(saveFile, "ways", "rollouts.jsonl")
		if err := util.AppendToFile(file, fmt.Sprintf(`{"experiment":%q,"trace":%s}`, e.Name, bs)); err != nil {
			return err
		}
		logger.Info("greedy rollout", "experiment", e.Name, "steps", trace.Len(), "return", trace.Return())
	}
	return nil
}

func WaysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ways",
		Short: "Learn way level detours on a road graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return WayDeviation(ctx)
		},
	}
}
