package experiments

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeu5/osm-deviation-rl/deviation"
	"github.com/zeu5/osm-deviation-rl/network"
	"github.com/zeu5/osm-deviation-rl/types"
)

// Inspect prints every state of a saved table with its greedy action, and the
// route choices when the configuration lists routes
func Inspect(file string) error {
	table, err := types.LoadQTable(file)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d states, %d actions\n", file, table.Len(), table.ActionSpace())
	for _, k := range table.Keys() {
		row, _ := table.Row(k)
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = fmt.Sprintf("%.4f", v)
		}
		fmt.Printf("%-20s best %2d  [%s]\n", k, table.Predict(k), strings.Join(values, " "))
	}

	if len(config.Routes) == 0 || len(config.Scenarios) == 0 {
		return nil
	}
	sets, err := loadRouteSets(config)
	if err != nil {
		return err
	}
	scenarios := make([]network.NodeID, len(config.Scenarios))
	for i, s := range config.Scenarios {
		scenarios[i] = network.NodeID(s)
	}
	env, err := deviation.NewRouteEnvironment(sets, scenarios, config.Weights, seed)
	if err != nil {
		return err
	}
	fmt.Println()
	printChoices(env.BestChoices(table))
	return nil
}

func InspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [table.json]",
		Short: "Print a saved table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Inspect(args[0])
		},
	}
}
