package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/takaflow/dispatch/core/model"
	coremon "github.com/takaflow/dispatch/core/monitoring"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestBroadcastErrorCaptured(t *testing.T) {
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	roster := &memRoster{collectors: []model.Collector{onlineCollector("a", testOrigin)}}
	notifier := &recordingNotifier{failID: "a"}
	e := newTestEngine(t, roster, notifier, &recordingPublisher{})

	if _, _, _, err := e.Dispatch(context.Background(), plasticRequest(model.UrgencyNormal)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if mon.err == nil {
		t.Fatal("notification failure not captured")
	}
	if mon.tags["collector_id"] != "a" || mon.tags["module"] != "dispatch_engine" {
		t.Fatalf("tags missing: %#v", mon.tags)
	}
}
