package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/takaflow/dispatch/config"
	"github.com/takaflow/dispatch/core/conditions"
	"github.com/takaflow/dispatch/core/dispatch"
	"github.com/takaflow/dispatch/core/model"
	"github.com/takaflow/dispatch/infra/logger"
	"github.com/takaflow/dispatch/infra/mqtt"
	"github.com/takaflow/dispatch/infra/roster"
	"github.com/takaflow/dispatch/pkg/export"
	"github.com/takaflow/dispatch/qa/scenarios"
)

var (
	planScenario  string
	planCollector string
	planFormat    string
	planOut       string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan pickup routes for the collectors of a scenario file",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planScenario, "scenario", "", "scenario yaml file (required)")
	planCmd.Flags().StringVar(&planCollector, "collector", "", "plan only this collector")
	planCmd.Flags().StringVar(&planFormat, "format", "json", "output format: json or csv")
	planCmd.Flags().StringVar(&planOut, "out", "", "output file, stdout when empty")
	_ = planCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sc, err := scenarios.Load(planScenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	collectors := make([]model.Collector, len(sc.Collectors))
	for i, def := range sc.Collectors {
		collectors[i] = def.ToModel()
	}
	requests := make([]model.ServiceRequest, len(sc.Requests))
	for i, def := range sc.Requests {
		requests[i] = def.ToModel()
	}

	store := roster.NewMemoryStore(collectors...)
	cond := conditions.NewSeededStore(1)
	transport := mqtt.NewMockTransport()
	engine, err := dispatch.NewEngine(cfg.Dispatch, store, cond, nil, transport, transport, nil, nil, logger.New("plan-command"))
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	var routes []model.OptimizedRoute
	for _, c := range collectors {
		if planCollector != "" && c.ID != planCollector {
			continue
		}
		route := engine.OptimizeRoute(ctx, c, requests, nil)
		if route.Empty() {
			continue
		}
		routes = append(routes, route)
	}
	if planCollector != "" && len(routes) == 0 {
		return fmt.Errorf("no route for collector %q", planCollector)
	}

	var w io.Writer = cmd.OutOrStdout()
	if planOut != "" {
		f, err := os.Create(planOut)
		if err != nil {
			return err
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "close %s: %v\n", planOut, err)
			}
		}()
		w = f
	}

	switch planFormat {
	case "json":
		return export.WriteJSON(w, routes)
	case "csv":
		return export.WriteCSV(w, routes)
	default:
		return fmt.Errorf("unknown format %q", planFormat)
	}
}
