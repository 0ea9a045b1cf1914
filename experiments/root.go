package experiments

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	episodes   int
	horizon    int
	saveFile   string
	runs       int
	seed       uint64
	configFile string
	logLevel   string

	config *Config
	logger *slog.Logger
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "osm-deviation-rl",
		Short:         "Learn how vehicles get around blocked ways of their trip",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			config, err = LoadConfig(configFile)
			return err
		},
	}
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 0, "Number of episodes to run, 0 runs until convergence")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 500, "Maximum steps of an episode, 0 for no limit")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 42, "Seed of the environment generators")
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "Experiment configuration (yaml)")
	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	// adding the subcommands here
	rootCommand.AddCommand(WaysCommand())
	rootCommand.AddCommand(RoutesCommand())
	rootCommand.AddCommand(InspectCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(RedisPushCommand())
	return rootCommand
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
