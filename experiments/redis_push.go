package experiments

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/zeu5/osm-deviation-rl/types"
)

// RedisPush mirrors a saved table into the configured redis hash, or with
// pull writes the hash back to the file
func RedisPush(ctx context.Context, file string, pull bool) error {
	client := redis.NewClient(&redis.Options{
		Addr: config.Redis.Addr,
	})
	defer client.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return err
	}

	store := types.NewRedisStore(client, config.Redis.Key)
	if pull {
		table := types.NewQTable(0)
		if err := store.Load(ctx, table); err != nil {
			return err
		}
		logger.Info("pulled table", "key", config.Redis.Key, "states", table.Len(), "file", file)
		return table.Save(file)
	}

	table, err := types.LoadQTable(file)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, table); err != nil {
		return err
	}
	logger.Info("pushed table", "key", config.Redis.Key, "states", table.Len())
	return nil
}

func RedisPushCommand() *cobra.Command {
	var pull bool
	cmd := &cobra.Command{
		Use:   "redis-push [table.json]",
		Short: "Copy a table between a file and redis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return RedisPush(ctx, args[0], pull)
		},
	}
	cmd.Flags().BoolVar(&pull, "pull", false, "Read the table from redis into the file instead")
	return cmd
}
