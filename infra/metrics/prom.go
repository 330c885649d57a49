package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/takaflow/dispatch/core/metrics"
)

// PromSink records match and route outcomes in Prometheus metrics.
type PromSink struct {
	matches    *prometheus.CounterVec
	matchDist  *prometheus.HistogramVec
	routeStops prometheus.Histogram
	routeKm    prometheus.Histogram
	efficiency prometheus.Gauge
	refreshes  *prometheus.CounterVec
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	matches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "match_candidates_total",
		Help: "Collectors ranked against service requests",
	}, []string{"waste_type", "urgency", "matched"})
	matchDist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "match_distance_km",
		Help:    "Collector-to-request distance of ranked candidates",
		Buckets: []float64{0.5, 1, 2, 4, 6, 8, 10},
	}, []string{"matched"})
	routeStops := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_stops",
		Help:    "Stops per optimized route",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8},
	})
	routeKm := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_distance_km",
		Help:    "Condition-adjusted length of optimized routes",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})
	efficiency := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "route_efficiency_score",
		Help: "Efficiency score of the most recent optimized route",
	})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_refresh_cells_total",
		Help: "Traffic cells seen by the periodic refresh",
	}, []string{"mutated"})

	if err := reg.Register(matches); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			matches = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(matchDist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			matchDist = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(routeStops); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			routeStops = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(routeKm); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			routeKm = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(efficiency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			efficiency = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(refreshes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			refreshes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		matches:    matches,
		matchDist:  matchDist,
		routeStops: routeStops,
		routeKm:    routeKm,
		efficiency: efficiency,
		refreshes:  refreshes,
	}, nil
}

// RecordMatch increments the candidate counter and observes distances.
func (s *PromSink) RecordMatch(recs []coremetrics.MatchRecord) error {
	for _, r := range recs {
		matched := strconv.FormatBool(r.Matched)
		s.matches.WithLabelValues(r.WasteType.String(), r.Urgency.String(), matched).Inc()
		s.matchDist.WithLabelValues(matched).Observe(r.DistanceKm)
	}
	return nil
}

// RecordRoute observes the route shape and updates the efficiency gauge.
func (s *PromSink) RecordRoute(rec coremetrics.RouteRecord) error {
	s.routeStops.Observe(float64(rec.Stops))
	s.routeKm.Observe(rec.TotalDistance)
	s.efficiency.Set(rec.Efficiency)
	return nil
}

// RecordTrafficRefresh counts cells touched by a refresh cycle.
func (s *PromSink) RecordTrafficRefresh(cells, mutated int) error {
	s.refreshes.WithLabelValues("false").Add(float64(cells - mutated))
	s.refreshes.WithLabelValues("true").Add(float64(mutated))
	return nil
}
