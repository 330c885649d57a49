// Package geo contains pure geographic computation helpers used by the
// matching and routing engines.
package geo

import (
	"fmt"
	"math"

	"github.com/takaflow/dispatch/core/model"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(a, b model.Coordinates) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLng := degToRad(b.Lng - a.Lng)

	rLat1 := degToRad(a.Lat)
	rLat2 := degToRad(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// GridKey rounds a coordinate to three decimal places (~111 m cells) and
// formats it as the traffic-table lookup key.
func GridKey(c model.Coordinates) string {
	return fmt.Sprintf("%.3f,%.3f", roundTo(c.Lat, 3), roundTo(c.Lng, 3))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
