package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/takaflow/dispatch/config"
	"github.com/takaflow/dispatch/core/conditions"
	"github.com/takaflow/dispatch/core/dispatch"
	"github.com/takaflow/dispatch/core/geo"
	"github.com/takaflow/dispatch/core/model"
	coremon "github.com/takaflow/dispatch/core/monitoring"
	"github.com/takaflow/dispatch/core/requeststatus"
	"github.com/takaflow/dispatch/infra/logger"
	"github.com/takaflow/dispatch/infra/metrics"
	"github.com/takaflow/dispatch/infra/monitoring"
	"github.com/takaflow/dispatch/infra/mqtt"
	"github.com/takaflow/dispatch/infra/roster"
	"github.com/takaflow/dispatch/infra/telemetry"
	"github.com/takaflow/dispatch/internal/eventbus"
	"github.com/takaflow/dispatch/jobs"
)

// Service wires the dispatch engine to its adapters and background jobs.
type Service struct {
	Engine     *dispatch.Engine
	Bus        *eventbus.Bus[model.StatusUpdate]
	Statuses   *requeststatus.MemoryStore
	refresher  *jobs.TrafficRefresher
	presence   *telemetry.Manager
	client     *mqtt.PahoClient
	log        logger.Logger
	promConfig promSettings
}

type promSettings struct {
	enabled bool
	addr    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	sink, err := metrics.FromConfig(cfg.Metrics, logg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	store := conditions.NewSeededStore(cfg.Conditions.Seed)
	table := conditions.GenerateStaticTable(
		cfg.Conditions.Bounds.Min(), cfg.Conditions.Bounds.Max(),
		cfg.Conditions.Cells, cfg.Conditions.Seed,
	)
	if err := store.Load(context.Background(), table); err != nil {
		return nil, fmt.Errorf("condition table: %w", err)
	}
	weather, err := conditions.ParseWeather(cfg.Conditions.Weather)
	if err != nil {
		return nil, err
	}
	store.SetWeather(weather)

	var rstore dispatch.RosterStore
	switch cfg.Roster.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Roster.RedisAddr,
			Password: cfg.Roster.RedisPassword,
			DB:       cfg.Roster.RedisDB,
		})
		rstore = roster.NewRedisStore(rdb)
	default:
		rstore = roster.NewMemoryStore()
	}

	geocoder := geo.NewStaticGeocoder(cfg.Geocode.Table(), cfg.Geocode.Fallback())
	bus := eventbus.New[model.StatusUpdate]()

	engine, err := dispatch.NewEngine(cfg.Dispatch, rstore, store, geocoder, client, client, sink, bus, logg)
	if err != nil {
		return nil, fmt.Errorf("dispatch engine: %w", err)
	}

	refresher := jobs.NewTrafficRefresher(store, cfg.Conditions.RefreshCron, sink, logg)

	var presence *telemetry.Manager
	if cfg.Telemetry.Enabled {
		ps, ok := rstore.(telemetry.PresenceStore)
		if !ok {
			return nil, fmt.Errorf("telemetry: roster backend %q cannot accept presence writes", cfg.Roster.Backend)
		}
		presence, err = telemetry.NewManager(cfg.MQTT, cfg.Telemetry, ps)
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
	}

	addr := cfg.Metrics.PrometheusPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &Service{
		Engine:     engine,
		Bus:        bus,
		Statuses:   requeststatus.NewMemoryStore(),
		refresher:  refresher,
		presence:   presence,
		client:     client,
		log:        logg,
		promConfig: promSettings{enabled: cfg.Metrics.PrometheusEnabled, addr: addr},
	}, nil
}

// Run starts the background jobs and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.refresher.Start(); err != nil {
		return fmt.Errorf("traffic refresher: %w", err)
	}
	go requeststatus.Follow(ctx, s.Bus, s.Statuses)
	if s.presence != nil {
		go s.presence.Start(ctx)
	}
	if s.promConfig.enabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promConfig.addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	s.log.Infof("dispatch service running")
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.refresher.Stop()
	s.client.Disconnect()
	coremon.Flush(2 * time.Second)
	return nil
}
