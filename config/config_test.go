package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  accept_topic: "collector/+/accept"
  use_tls: false
dispatch:
  range_match_km: 8
  range_route_km: 18
  broadcast_count: 2
  two_opt_passes: 3
conditions:
  refresh_cron: "@every 10m"
  seed: 42
  cells: 50
  weather: "rain"
metrics:
  prometheus_enabled: true
  prometheus_port: "9100"
roster:
  backend: "redis"
  redis_addr: "localhost:6380"
geocode:
  addresses:
    "Moi Avenue":
      lat: -1.2833
      lng: 36.8226
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"accept_topic", cfg.MQTT.AcceptTopic, "collector/+/accept"},
		{"range_match_km", cfg.Dispatch.RangeMatchKm, 8.0},
		{"range_route_km", cfg.Dispatch.RangeRouteKm, 18.0},
		{"broadcast_count", cfg.Dispatch.BroadcastCount, 2},
		{"max_route_stops_default", cfg.Dispatch.MaxRouteStops, 8},
		{"two_opt_passes", cfg.Dispatch.TwoOptPasses, 3},
		{"refresh_cron", cfg.Conditions.RefreshCron, "@every 10m"},
		{"seed", cfg.Conditions.Seed, int64(42)},
		{"cells", cfg.Conditions.Cells, 50},
		{"weather", cfg.Conditions.Weather, "rain"},
		{"prometheus", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, "9100"},
		{"roster_backend", cfg.Roster.Backend, "redis"},
		{"redis_addr", cfg.Roster.RedisAddr, "localhost:6380"},
		{"geocode_lat", cfg.Geocode.Addresses["Moi Avenue"].Lat, -1.2833},
		{"telemetry_mode_default", cfg.Telemetry.Mode, "push"},
		{"telemetry_interval_default", cfg.Telemetry.IntervalSeconds, 60},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K_MQTT__CLIENT_ID", "env-client")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.MQTT.ClientID != "env-client" {
		t.Errorf("env override not applied: %q", cfg.MQTT.ClientID)
	}
}

func TestLoad_RejectsBadSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
dispatch:
  range_match_km: 25
  range_route_km: 20
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("inconsistent radii must fail load")
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("unsupported extension must fail")
	}
}
