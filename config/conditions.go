package config

import (
	"fmt"

	"github.com/takaflow/dispatch/core/conditions"
	"github.com/takaflow/dispatch/core/model"
)

// ConditionsConfig controls the traffic and weather model.
type ConditionsConfig struct {
	// RefreshCron is the cron spec of the periodic traffic refresh.
	RefreshCron string `json:"refresh_cron"`
	// Seed makes the synthetic condition table reproducible when nonzero.
	Seed int64 `json:"seed"`
	// Cells is the number of synthetic traffic cells generated at startup
	// when no static table is configured.
	Cells int `json:"cells"`
	// Bounds delimits the area the synthetic cells are scattered over.
	Bounds BoundsConfig `json:"bounds"`
	// Weather is the initial weather label: clear, rain, heavy_rain or fog.
	Weather string `json:"weather"`
}

// BoundsConfig is a lat/lng bounding box.
type BoundsConfig struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Min returns the south-west corner.
func (b BoundsConfig) Min() model.Coordinates {
	return model.Coordinates{Lat: b.MinLat, Lng: b.MinLng}
}

// Max returns the north-east corner.
func (b BoundsConfig) Max() model.Coordinates {
	return model.Coordinates{Lat: b.MaxLat, Lng: b.MaxLng}
}

// SetDefaults applies the Nairobi-area defaults.
func (c *ConditionsConfig) SetDefaults() {
	if c.RefreshCron == "" {
		c.RefreshCron = "@every 5m"
	}
	if c.Cells <= 0 {
		c.Cells = 200
	}
	if c.Bounds == (BoundsConfig{}) {
		c.Bounds = BoundsConfig{MinLat: -1.45, MinLng: 36.65, MaxLat: -1.15, MaxLng: 37.00}
	}
	if c.Weather == "" {
		c.Weather = "clear"
	}
}

// Validate checks the section.
func (c ConditionsConfig) Validate() error {
	if c.Bounds.MinLat >= c.Bounds.MaxLat || c.Bounds.MinLng >= c.Bounds.MaxLng {
		return fmt.Errorf("conditions bounds are inverted")
	}
	if _, err := conditions.ParseWeather(c.Weather); err != nil {
		return err
	}
	return nil
}
