package geo

import (
	"strings"
	"sync"

	"github.com/takaflow/dispatch/core/model"
)

// NairobiCBD is the city-center coordinate used when an address cannot be
// resolved. Requests falling back here are flagged Approximate so callers
// can tell them apart from real resolutions.
var NairobiCBD = model.Coordinates{Lat: -1.286389, Lng: 36.817223}

// Geocoder resolves street addresses to coordinates.
type Geocoder interface {
	// Geocode returns the coordinates for the address. The second return
	// is false when the address was not resolvable and the city-center
	// fallback was applied.
	Geocode(address string) (model.Coordinates, bool)
}

// StaticGeocoder resolves addresses from an in-memory table. Unknown
// addresses fall back to the configured default coordinate. Lookups are
// case-insensitive on the trimmed address.
type StaticGeocoder struct {
	mu       sync.RWMutex
	table    map[string]model.Coordinates
	fallback model.Coordinates
}

// NewStaticGeocoder creates a geocoder seeded with the given table. A zero
// fallback defaults to the Nairobi CBD.
func NewStaticGeocoder(table map[string]model.Coordinates, fallback model.Coordinates) *StaticGeocoder {
	if fallback == (model.Coordinates{}) {
		fallback = NairobiCBD
	}
	g := &StaticGeocoder{table: make(map[string]model.Coordinates, len(table)), fallback: fallback}
	for addr, c := range table {
		g.table[normalizeAddress(addr)] = c
	}
	return g
}

// Add registers an address in the lookup table.
func (g *StaticGeocoder) Add(address string, c model.Coordinates) {
	g.mu.Lock()
	g.table[normalizeAddress(address)] = c
	g.mu.Unlock()
}

// Geocode implements Geocoder.
func (g *StaticGeocoder) Geocode(address string) (model.Coordinates, bool) {
	g.mu.RLock()
	c, ok := g.table[normalizeAddress(address)]
	g.mu.RUnlock()
	if !ok {
		return g.fallback, false
	}
	return c, true
}

// ResolveLocation fills in missing coordinates on a location, marking it
// approximate when the lenient fallback was used.
func ResolveLocation(g Geocoder, loc model.Location) model.Location {
	if loc.Coordinates != (model.Coordinates{}) {
		return loc
	}
	c, ok := g.Geocode(loc.Address)
	loc.Coordinates = c
	loc.Approximate = !ok
	return loc
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
