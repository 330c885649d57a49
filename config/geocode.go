package config

import "github.com/takaflow/dispatch/core/model"

// GeocodePoint is one known address coordinate.
type GeocodePoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeConfig seeds the static geocoder. Unlisted addresses resolve to
// the fallback point; a zero fallback means the Nairobi city center.
type GeocodeConfig struct {
	Addresses   map[string]GeocodePoint `json:"addresses"`
	FallbackLat float64                 `json:"fallback_lat"`
	FallbackLng float64                 `json:"fallback_lng"`
}

// Table converts the section into geocoder table form.
func (c GeocodeConfig) Table() map[string]model.Coordinates {
	table := make(map[string]model.Coordinates, len(c.Addresses))
	for addr, p := range c.Addresses {
		table[addr] = model.Coordinates{Lat: p.Lat, Lng: p.Lng}
	}
	return table
}

// Fallback returns the configured fallback coordinate.
func (c GeocodeConfig) Fallback() model.Coordinates {
	return model.Coordinates{Lat: c.FallbackLat, Lng: c.FallbackLng}
}
