// Package jobs holds the scheduled background work of the engine.
package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/takaflow/dispatch/core/conditions"
	"github.com/takaflow/dispatch/core/logger"
	"github.com/takaflow/dispatch/core/metrics"
)

// TrafficRefresher periodically runs the probabilistic traffic mutation
// cycle on the condition store.
type TrafficRefresher struct {
	store     *conditions.Store
	scheduler *cron.Cron
	spec      string
	sink      metrics.Sink
	log       logger.Logger
	jobID     cron.EntryID
}

// NewTrafficRefresher creates a refresher with the given cron spec, for
// example "@every 5m".
func NewTrafficRefresher(store *conditions.Store, spec string, sink metrics.Sink, log logger.Logger) *TrafficRefresher {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &TrafficRefresher{
		store:     store,
		scheduler: cron.New(),
		spec:      spec,
		sink:      sink,
		log:       log,
	}
}

// Start schedules the refresh cycle.
func (r *TrafficRefresher) Start() error {
	var err error
	r.jobID, err = r.scheduler.AddFunc(r.spec, r.Run)
	if err != nil {
		return fmt.Errorf("schedule traffic refresh: %w", err)
	}
	r.scheduler.Start()
	r.log.Infof("traffic refresh scheduled (%s)", r.spec)
	return nil
}

// Run executes one refresh cycle immediately.
func (r *TrafficRefresher) Run() {
	mutated := r.store.RefreshTraffic()
	cells := r.store.Len()
	r.log.Debugw("traffic refreshed", map[string]any{
		"cells":   cells,
		"mutated": mutated,
	})
	if rec, ok := r.sink.(metrics.ConditionRecorder); ok {
		if err := rec.RecordTrafficRefresh(cells, mutated); err != nil {
			r.log.Errorf("metrics error: %v", err)
		}
	}
}

// Stop halts the scheduler. Queued runs finish in the background.
func (r *TrafficRefresher) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
		r.log.Infof("traffic refresh stopped")
	}
}

// UpdateSchedule replaces the cron spec at runtime.
func (r *TrafficRefresher) UpdateSchedule(spec string) error {
	r.scheduler.Remove(r.jobID)
	var err error
	r.jobID, err = r.scheduler.AddFunc(spec, r.Run)
	if err != nil {
		return fmt.Errorf("update traffic refresh schedule: %w", err)
	}
	r.spec = spec
	return nil
}
