package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takaflow/dispatch/config"
	"github.com/takaflow/dispatch/infra/logger"
	"github.com/takaflow/dispatch/simulator"
)

var (
	simCollectors int
	simRequests   int
	simSeed       int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a synthetic dispatch round against a generated roster",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simCollectors, "collectors", 20, "number of generated collectors")
	simulateCmd.Flags().IntVar(&simRequests, "requests", 50, "number of generated requests")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 1, "random seed")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	simCfg := simulator.Config{
		Collectors: simCollectors,
		Requests:   simRequests,
		Seed:       simSeed,
	}
	res, err := simulator.Run(simCfg, cfg.Dispatch, logger.New("simulator"))
	if err != nil {
		return err
	}

	fmt.Printf("requests:  %d\n", res.Requests)
	fmt.Printf("matched:   %d\n", res.Matched)
	fmt.Printf("unmatched: %d\n", res.Unmatched)
	fmt.Printf("proposals: %d\n", res.Proposals)
	fmt.Printf("routes:    %d (%.1f km total)\n", res.Routes, res.RouteKm)
	return nil
}
