package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/takaflow/dispatch/config"
	"github.com/takaflow/dispatch/infra/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster related commands",
}

var rosterLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List registered collectors",
	RunE:  runRosterLs,
}

func init() {
	rosterCmd.AddCommand(rosterLsCmd)
	rootCmd.AddCommand(rosterCmd)
}

func runRosterLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Roster.Backend != "redis" {
		return fmt.Errorf("roster ls requires the redis backend, configured backend is %q", cfg.Roster.Backend)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Roster.RedisAddr,
		Password: cfg.Roster.RedisPassword,
		DB:       cfg.Roster.RedisDB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			if _, ferr := fmt.Fprintf(cmd.ErrOrStderr(), "error while closing redis client: %v\n", err); ferr != nil {
				fmt.Println("failed to write to stderr:", ferr)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store := roster.NewRedisStore(rdb)
	collectors, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range collectors {
		state := "offline"
		if c.Online {
			state = "online"
		}
		fmt.Printf("%s\t%s\tload %d/%d\trating %.1f\n", c.ID, state, c.CurrentLoad, c.MaxLoad, c.Rating)
	}
	return nil
}
