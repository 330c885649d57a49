// Package export renders route plans for downstream tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/takaflow/dispatch/core/model"
)

// WriteJSON writes the route plans to w in JSON format.
func WriteJSON(w io.Writer, routes []model.OptimizedRoute) error {
	enc := json.NewEncoder(w)
	return enc.Encode(routes)
}

// WriteCSV writes the route plans to w as one row per stop.
func WriteCSV(w io.Writer, routes []model.OptimizedRoute) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"collector_id", "stop", "request_id", "waste_type", "quantity_kg", "lat", "lng", "eta"}); err != nil {
		return err
	}
	for _, route := range routes {
		for i, wp := range route.Waypoints {
			rec := []string{
				route.CollectorID,
				strconv.Itoa(i + 1),
				requestID(route, i),
				wp.WasteType.String(),
				strconv.FormatFloat(wp.QuantityKg, 'f', -1, 64),
				strconv.FormatFloat(wp.Coordinates.Lat, 'f', -1, 64),
				strconv.FormatFloat(wp.Coordinates.Lng, 'f', -1, 64),
				wp.EstimatedArrival.Format(time.RFC3339),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func requestID(route model.OptimizedRoute, stop int) string {
	if stop < len(route.Requests) {
		return route.Requests[stop].ID
	}
	return ""
}
