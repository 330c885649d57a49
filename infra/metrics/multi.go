package metrics

import coremetrics "github.com/takaflow/dispatch/core/metrics"

// MultiSink fanouts records to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMatch forwards the records to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordMatch(recs []coremetrics.MatchRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordMatch(recs); err != nil {
			return err
		}
	}
	return nil
}

// RecordRoute forwards the route record to all sinks.
func (m *MultiSink) RecordRoute(rec coremetrics.RouteRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRoute(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordTrafficRefresh forwards refresh stats to sinks that track them.
func (m *MultiSink) RecordTrafficRefresh(cells, mutated int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ConditionRecorder); ok {
			if err := rec.RecordTrafficRefresh(cells, mutated); err != nil {
				return err
			}
		}
	}
	return nil
}
