package experiments

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeu5/osm-deviation-rl/deviation"
	"github.com/zeu5/osm-deviation-rl/network"
	"github.com/zeu5/osm-deviation-rl/types"
	"golang.org/x/exp/rand"
)

func loadRouteSets(c *Config) ([]deviation.RouteSet, error) {
	sets := make([]deviation.RouteSet, len(c.Routes))
	for i, rc := range c.Routes {
		f, err := os.Open(rc.Route)
		if err != nil {
			return nil, err
		}
		route, err := network.LoadRouteJSON(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", rc.Route, err)
		}
		devs := make([]*network.Deviation, len(rc.Deviations))
		for j, file := range rc.Deviations {
			f, err := os.Open(file)
			if err != nil {
				return nil, err
			}
			devs[j], err = network.LoadDeviationJSON(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("deviation %s: %w", file, err)
			}
		}
		sets[i] = deviation.RouteSet{Route: route, Deviations: devs}
	}
	return sets, nil
}

// RouteDeviation learns which detour a route takes for every blocked node scenario
func RouteDeviation(ctx context.Context) error {
	sets, err := loadRouteSets(config)
	if err != nil {
		return err
	}
	scenarios := make([]network.NodeID, len(config.Scenarios))
	for i, s := range config.Scenarios {
		scenarios[i] = network.NodeID(s)
	}

	newEnv := func() (types.Environment, *rand.Rand, error) {
		env, err := deviation.NewRouteEnvironment(sets, scenarios, config.Weights, seed)
		if err != nil {
			return nil, nil, err
		}
		return env, env.Rand(), nil
	}

	comparison, err := compare(ctx, "routes", newEnv)
	if err != nil {
		return err
	}
	for _, e := range comparison.Experiments {
		env := e.Environment().(*deviation.RouteEnvironment)
		fmt.Println(e.Name)
		printChoices(env.BestChoices(e.Table()))
	}
	return nil
}

func printChoices(choices []deviation.Choice) {
	fmt.Printf("%-16s %-12s %s\n", "route", "scenario", "action")
	for _, c := range choices {
		fmt.Printf("%-16s %-12d %d\n", c.Route, c.Scenario, c.Action)
	}
	fmt.Println()
}

func RoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Learn route level deviation choices per blocked node",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return RouteDeviation(ctx)
		},
	}
}
