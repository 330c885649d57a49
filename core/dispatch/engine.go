package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/takaflow/dispatch/core/geo"
	"github.com/takaflow/dispatch/core/logger"
	"github.com/takaflow/dispatch/core/metrics"
	"github.com/takaflow/dispatch/core/model"
	"github.com/takaflow/dispatch/core/monitoring"
	"github.com/takaflow/dispatch/internal/eventbus"
)

// Engine owns the matching and routing state: the roster port, the
// condition tables and the scoring/planning components. It is an explicit
// service object passed into request-handling code; no package-level
// state exists, which keeps tests isolated.
type Engine struct {
	cfg       Config
	roster    RosterStore
	geocoder  geo.Geocoder
	est       *geo.Estimator
	matcher   *Matcher
	planner   *RoutePlanner
	fleet     *FleetPlanner
	notifier  Notifier
	publisher StatusPublisher
	metrics   metrics.Sink
	bus       *eventbus.Bus[model.StatusUpdate]
	log       logger.Logger
	now       func() time.Time

	// mu serializes broadcast-side load reservations so interleaved
	// broadcasts against the same collector cannot lose updates.
	mu sync.Mutex
}

// NewEngine creates an engine from its collaborators. The condition
// source, notifier, publisher and roster are required; a nil sink
// disables metrics and a nil bus disables in-process event fan-out.
func NewEngine(cfg Config, roster RosterStore, cond geo.ConditionSource, geocoder geo.Geocoder, notifier Notifier, publisher StatusPublisher, sink metrics.Sink, bus *eventbus.Bus[model.StatusUpdate], log logger.Logger) (*Engine, error) {
	if roster == nil || cond == nil || notifier == nil || publisher == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewEngine")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if geocoder == nil {
		geocoder = geo.NewStaticGeocoder(nil, model.Coordinates{})
	}

	est := geo.NewEstimator(cond)
	matcher := NewMatcher(est)
	matcher.RangeKm = cfg.RangeMatchKm
	filter := CompatibilityFilter{RangeKm: cfg.RangeRouteKm}
	planner := NewRoutePlanner(est, cond, filter)
	planner.MaxStops = cfg.MaxRouteStops
	planner.TwoOptPasses = cfg.TwoOptPasses

	return &Engine{
		cfg:       cfg,
		roster:    roster,
		geocoder:  geocoder,
		est:       est,
		matcher:   matcher,
		planner:   planner,
		fleet:     NewFleetPlanner(matcher, filter),
		notifier:  notifier,
		publisher: publisher,
		metrics:   sink,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}, nil
}

// Estimator exposes the engine's travel-time estimator for callers that
// need standalone ETA computations.
func (e *Engine) Estimator() *geo.Estimator { return e.est }

// resolveRequest fills in missing coordinates through the lenient
// geocoder, logging when the city-center fallback had to be applied.
func (e *Engine) resolveRequest(req model.ServiceRequest) model.ServiceRequest {
	loc := geo.ResolveLocation(e.geocoder, req.Location)
	if loc.Approximate && !req.Location.Approximate {
		e.log.Warnf("request %s: address %q not resolvable, using city-center fallback", req.ID, req.Location.Address)
	}
	req.Location = loc
	return req
}

// FindNearbyCollectors ranks every roster collector against the request.
// Collectors beyond the matching radius or scoring zero are excluded.
func (e *Engine) FindNearbyCollectors(ctx context.Context, req model.ServiceRequest) ([]model.MatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	req = e.resolveRequest(req)

	roster, err := e.roster.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	results := e.matcher.Rank(req, roster)

	recs := make([]metrics.MatchRecord, 0, len(results))
	for i, r := range results {
		recs = append(recs, metrics.MatchRecord{
			RequestID:     req.ID,
			CollectorID:   r.Collector.ID,
			WasteType:     req.WasteType,
			Urgency:       req.Urgency,
			DistanceKm:    r.DistanceKm,
			EstimatedTime: r.EstimatedTime,
			Score:         r.Score,
			Matched:       i == 0,
			Time:          e.now(),
		})
	}
	if len(recs) > 0 {
		if err := e.metrics.RecordMatch(recs); err != nil {
			e.log.Errorf("metrics error: %v", err)
		}
	}
	return results, nil
}

// MatchRequest returns the best-ranked collector for the request. The
// second return is false when no viable collector exists; this is an
// expected outcome, not an error.
func (e *Engine) MatchRequest(ctx context.Context, req model.ServiceRequest) (model.MatchResult, bool, error) {
	results, err := e.FindNearbyCollectors(ctx, req)
	if err != nil {
		return model.MatchResult{}, false, err
	}
	if len(results) == 0 {
		e.log.Infof("request %s: no viable match", req.ID)
		return model.MatchResult{}, false, nil
	}
	return results[0], true, nil
}

// Broadcast notifies the top matches, reserves one load slot on each
// notified collector and emits the matched status update for the request.
// Reservations are not rolled back when a collector later declines; the
// roster owner reconciles loads out of band.
func (e *Engine) Broadcast(ctx context.Context, req model.ServiceRequest, matches []model.MatchResult) (model.StatusUpdate, error) {
	if len(matches) == 0 {
		return model.StatusUpdate{}, fmt.Errorf("broadcast: no matches for request %s", req.ID)
	}
	top := matches
	if len(top) > e.cfg.BroadcastCount {
		top = top[:e.cfg.BroadcastCount]
	}

	notified := make([]model.MatchResult, 0, len(top))
	for _, m := range top {
		if err := e.notifier.NotifyCollector(ctx, m.Collector, req); err != nil {
			e.log.Errorf("notify %s: %v", m.Collector.ID, err)
			monitoring.CaptureException(err, map[string]string{
				"collector_id": m.Collector.ID,
				"module":       "dispatch_engine",
			})
			continue
		}
		notified = append(notified, m)
	}

	// Only the load reservations need the lock; notifications stay outside it.
	e.mu.Lock()
	for _, m := range notified {
		if err := e.roster.IncrementLoad(ctx, m.Collector.ID); err != nil {
			e.log.Errorf("reserve slot on %s: %v", m.Collector.ID, err)
			continue
		}
		e.log.Debugw("slot reserved", map[string]any{
			"request_id":   req.ID,
			"collector_id": m.Collector.ID,
			"score":        m.Score,
		})
	}
	e.mu.Unlock()

	best := top[0]
	eta := e.now().Add(time.Duration(best.EstimatedTime * float64(time.Minute)))
	update := model.StatusUpdate{
		RequestID:          req.ID,
		Status:             model.StatusMatched.String(),
		MatchedCollectorID: best.Collector.ID,
		MatchedCollector:   best.Collector.Name,
		CollectorPhone:     best.Collector.Phone,
		ETA:                eta.Format("15:04"),
	}
	if err := e.publisher.PublishStatus(ctx, update); err != nil {
		return update, fmt.Errorf("publish status: %w", err)
	}
	if e.bus != nil {
		e.bus.Publish(update)
	}
	return update, nil
}

// Dispatch runs the full single-request flow: rank, broadcast to the top
// matches and transition the request to matched. When nothing matches the
// request is returned unchanged with ok=false.
func (e *Engine) Dispatch(ctx context.Context, req model.ServiceRequest) (model.ServiceRequest, model.MatchResult, bool, error) {
	results, err := e.FindNearbyCollectors(ctx, req)
	if err != nil {
		return req, model.MatchResult{}, false, err
	}
	if len(results) == 0 {
		return req, model.MatchResult{}, false, nil
	}
	if _, err := e.Broadcast(ctx, req, results); err != nil {
		return req, results[0], true, err
	}
	if req.Status.CanTransition(model.StatusMatched) {
		req.Status = model.StatusMatched
	}
	e.log.Infof("request %s matched to %s (%d candidates)", req.ID, results[0].Collector.ID, len(results))
	return req, results[0], true, nil
}

// OptimizeRoute plans a multi-stop route for the collector over the
// available requests. A nil origin starts from the collector's last known
// location. The returned route is ephemeral; persistence happens in the
// route-acceptance flow outside this module.
func (e *Engine) OptimizeRoute(ctx context.Context, collector model.Collector, available []model.ServiceRequest, origin *model.Coordinates) model.OptimizedRoute {
	resolved := make([]model.ServiceRequest, len(available))
	for i, r := range available {
		resolved[i] = e.resolveRequest(r)
	}
	route := e.planner.Optimize(collector, resolved, origin)

	if err := e.metrics.RecordRoute(metrics.RouteRecord{
		CollectorID:   collector.ID,
		Stops:         len(route.Requests),
		TotalDistance: route.TotalDistance,
		DurationMin:   route.DurationMin,
		Earnings:      route.TotalEarnings,
		Efficiency:    route.Efficiency,
		TimeSavedMin:  route.Gain.TimeSavedMin,
		Time:          e.now(),
	}); err != nil {
		e.log.Errorf("metrics error: %v", err)
	}
	if route.Empty() {
		e.log.Infof("collector %s: nothing to optimize", collector.ID)
	}
	return route
}

// AssignFleet distributes a request batch over the whole roster using the
// LP planner with its greedy fallback.
func (e *Engine) AssignFleet(ctx context.Context, reqs []model.ServiceRequest) (map[string][]string, error) {
	roster, err := e.roster.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	resolved := make([]model.ServiceRequest, len(reqs))
	for i, r := range reqs {
		resolved[i] = e.resolveRequest(r)
	}
	return e.fleet.AssignFleet(roster, resolved), nil
}
