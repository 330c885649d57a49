package model

import (
	"fmt"
	"time"
)

// CollectorLocation is the last reported position of a collector.
type CollectorLocation struct {
	Coordinates Coordinates `json:"coordinates"`
	LastUpdated time.Time   `json:"last_updated"`
}

// Collector represents a waste collector available for dispatch.
type Collector struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	Location        CollectorLocation `json:"location"`
	Specializations []WasteType       `json:"specializations"`
	VehicleCapacity float64           `json:"vehicle_capacity_kg"`
	CurrentLoad     int               `json:"current_load"`
	MaxLoad         int               `json:"max_load"`
	Rating          float64           `json:"rating"` // 0.0 to 5.0
	ResponseTimeMin float64           `json:"response_time_min"`
	Online          bool              `json:"online"`
}

// Specializes reports whether the collector handles the given waste type.
func (c Collector) Specializes(w WasteType) bool {
	for _, s := range c.Specializations {
		if s == w {
			return true
		}
	}
	return false
}

// AtCapacity reports whether the collector has no free assignment slot.
func (c Collector) AtCapacity() bool {
	return c.CurrentLoad >= c.MaxLoad
}

// LoadRatio returns currentLoad/maxLoad, or 1 when maxLoad is zero.
func (c Collector) LoadRatio() float64 {
	if c.MaxLoad <= 0 {
		return 1
	}
	return float64(c.CurrentLoad) / float64(c.MaxLoad)
}

// Validate checks that the collector record is internally consistent.
func (c Collector) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("collector id is required")
	}
	if c.MaxLoad <= 0 {
		return fmt.Errorf("max load must be positive")
	}
	if c.CurrentLoad < 0 || c.CurrentLoad > c.MaxLoad {
		return fmt.Errorf("current load %d outside [0, %d]", c.CurrentLoad, c.MaxLoad)
	}
	if c.Rating < 0 || c.Rating > 5 {
		return fmt.Errorf("rating %v outside [0, 5]", c.Rating)
	}
	return nil
}
