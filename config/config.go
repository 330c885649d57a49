package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/takaflow/dispatch/core/dispatch"
	"github.com/takaflow/dispatch/core/metrics"
	"github.com/takaflow/dispatch/infra/mqtt"
	"github.com/takaflow/dispatch/infra/roster"
	"github.com/takaflow/dispatch/infra/telemetry"
)

// Config is the full engine configuration.
type Config struct {
	MQTT       mqtt.Config      `json:"mqtt"`
	Dispatch   dispatch.Config  `json:"dispatch"`
	Conditions ConditionsConfig `json:"conditions"`
	Metrics    metrics.Config   `json:"metrics"`
	Roster     roster.Config    `json:"roster"`
	Geocode    GeocodeConfig    `json:"geocode"`
	Telemetry  telemetry.Config `json:"telemetry"`
	Sentry     SentryConfig     `json:"sentry"`
}

// Load reads the configuration file, applies K_-prefixed environment
// overrides (K_mqtt__broker and the like) and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Dispatch.SetDefaults()
	cfg.Conditions.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Roster.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Telemetry.SetDefaults()
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Conditions.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Roster.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
