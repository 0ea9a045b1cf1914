package experiments

import (
	"context"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/zeu5/osm-deviation-rl/server"
	"github.com/zeu5/osm-deviation-rl/types"
)

// Serve exposes a table over HTTP until the context is cancelled. The table is
// read from file, or from the configured redis hash when file is empty.
func Serve(ctx context.Context, addr, file string) error {
	table := types.NewQTable(0)
	name := filepath.Base(file)
	if file != "" {
		if err := table.Load(file); err != nil {
			return err
		}
	} else {
		client := redis.NewClient(&redis.Options{Addr: config.Redis.Addr})
		defer client.Close()
		if err := types.NewRedisStore(client, config.Redis.Key).Load(ctx, table); err != nil {
			return err
		}
		name = config.Redis.Key
	}

	s := server.NewTableServer(ctx, addr, name, table)
	s.Start()
	logger.Info("serving table", "addr", addr, "name", name, "states", table.Len())
	<-ctx.Done()
	return nil
}

func ServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve [table.json]",
		Short: "Serve a table for inspection, from file or redis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return Serve(ctx, addr, file)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	return cmd
}
