package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/takaflow/dispatch/core/metrics"
	"github.com/takaflow/dispatch/infra/logger"
)

// InfluxSink writes match and route events to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordMatch writes each ranked candidate as a match_event point.
func (s *InfluxSink) RecordMatch(recs []coremetrics.MatchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("match_event").
			AddTag("request_id", r.RequestID).
			AddTag("collector_id", r.CollectorID).
			AddTag("waste_type", r.WasteType.String()).
			AddTag("urgency", r.Urgency.String()).
			AddTag("matched", strconv.FormatBool(r.Matched)).
			AddTag("component", "dispatch_engine").
			AddField("distance_km", round3(r.DistanceKm)).
			AddField("estimated_min", round3(r.EstimatedTime)).
			AddField("score", round3(r.Score)).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordRoute persists one optimized route plan.
func (s *InfluxSink) RecordRoute(rec coremetrics.RouteRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("route_plan").
		AddTag("collector_id", rec.CollectorID).
		AddTag("component", "route_planner").
		AddField("stops", rec.Stops).
		AddField("distance_km", round3(rec.TotalDistance)).
		AddField("duration_min", round3(rec.DurationMin)).
		AddField("earnings", round3(rec.Earnings)).
		AddField("efficiency", round3(rec.Efficiency)).
		AddField("time_saved_min", round3(rec.TimeSavedMin)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTrafficRefresh persists the outcome of one refresh cycle.
func (s *InfluxSink) RecordTrafficRefresh(cells, mutated int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("traffic_refresh").
		AddTag("component", "condition_store").
		AddField("cells", cells).
		AddField("mutated", mutated).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
