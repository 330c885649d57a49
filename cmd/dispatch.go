package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/takaflow/dispatch/app"
	"github.com/takaflow/dispatch/config"
	"github.com/takaflow/dispatch/core/model"
	"github.com/takaflow/dispatch/infra/logger"
)

var (
	reqWasteType string
	reqQuantity  float64
	reqAddress   string
	reqLat       float64
	reqLng       float64
	reqUrgency   string
	reqPrice     float64
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Inject a test pickup request",
	RunE:  dispatchRequest,
}

func init() {
	dispatchCmd.Flags().StringVar(&reqWasteType, "waste", "mixed", "waste type")
	dispatchCmd.Flags().Float64Var(&reqQuantity, "quantity", 20, "quantity in kg")
	dispatchCmd.Flags().StringVar(&reqAddress, "address", "", "pickup address")
	dispatchCmd.Flags().Float64Var(&reqLat, "lat", 0, "pickup latitude")
	dispatchCmd.Flags().Float64Var(&reqLng, "lng", 0, "pickup longitude")
	dispatchCmd.Flags().StringVar(&reqUrgency, "urgency", "normal", "urgency: normal, urgent or emergency")
	dispatchCmd.Flags().Float64Var(&reqPrice, "price", 500, "final price offered")
	rootCmd.AddCommand(dispatchCmd)
}

func dispatchRequest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New("dispatch-command")
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	wt, err := model.ParseWasteType(reqWasteType)
	if err != nil {
		return err
	}
	var urgency model.Urgency
	switch reqUrgency {
	case "normal":
		urgency = model.UrgencyNormal
	case "urgent":
		urgency = model.UrgencyUrgent
	case "emergency":
		urgency = model.UrgencyEmergency
	default:
		return fmt.Errorf("unknown urgency %q", reqUrgency)
	}

	req := model.ServiceRequest{
		ID:         uuid.NewString(),
		WasteType:  wt,
		QuantityKg: reqQuantity,
		Location: model.Location{
			Address:     reqAddress,
			Coordinates: model.Coordinates{Lat: reqLat, Lng: reqLng},
		},
		Urgency:   urgency,
		Price:     model.PriceEstimate{FinalPrice: reqPrice, Currency: "KES"},
		CreatedAt: time.Now(),
	}

	_, match, ok, err := svc.Engine.Dispatch(ctx, req)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if !ok {
		fmt.Println("no collector matched")
		return nil
	}
	fmt.Printf("matched %s (%.1f km, score %.1f)\n", match.Collector.ID, match.DistanceKm, match.Score)
	return nil
}
