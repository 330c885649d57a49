package metrics

import (
	coremetrics "github.com/takaflow/dispatch/core/metrics"
	"github.com/takaflow/dispatch/infra/logger"
)

// FromConfig assembles the configured sinks into one. With nothing
// enabled a NopSink is returned so callers never hold a nil sink.
func FromConfig(cfg coremetrics.Config, log logger.Logger) (coremetrics.Sink, error) {
	cfg.SetDefaults()

	var sinks []coremetrics.Sink
	if cfg.PrometheusEnabled {
		prom, err := NewPromSink(cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, prom)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}

	switch len(sinks) {
	case 0:
		log.Debugf("metrics disabled, using nop sink")
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
