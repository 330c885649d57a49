package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/takaflow/dispatch/core/model"
)

type CollectorDef struct {
	ID              string   `yaml:"id"`
	Lat             float64  `yaml:"lat"`
	Lng             float64  `yaml:"lng"`
	WasteTypes      []string `yaml:"waste_types"`
	CapacityKg      float64  `yaml:"capacity_kg"`
	MaxLoad         int      `yaml:"max_load"`
	Rating          float64  `yaml:"rating"`
	ResponseTimeMin float64  `yaml:"response_time_min"`
	Online          bool     `yaml:"online"`
}

func (c CollectorDef) ToModel() model.Collector {
	col := model.Collector{
		ID:              c.ID,
		Name:            c.ID,
		Location:        model.CollectorLocation{Coordinates: model.Coordinates{Lat: c.Lat, Lng: c.Lng}, LastUpdated: time.Now()},
		VehicleCapacity: c.CapacityKg,
		MaxLoad:         c.MaxLoad,
		Rating:          c.Rating,
		ResponseTimeMin: c.ResponseTimeMin,
		Online:          c.Online,
	}
	for _, w := range c.WasteTypes {
		col.Specializations = append(col.Specializations, parseWasteType(w))
	}
	if col.VehicleCapacity == 0 {
		col.VehicleCapacity = 500
	}
	if col.MaxLoad == 0 {
		col.MaxLoad = 5
	}
	if col.ResponseTimeMin == 0 {
		col.ResponseTimeMin = 10
	}
	return col
}

type RequestDef struct {
	ID         string  `yaml:"id"`
	WasteType  string  `yaml:"waste_type"`
	QuantityKg float64 `yaml:"quantity_kg"`
	Address    string  `yaml:"address,omitempty"`
	Lat        float64 `yaml:"lat"`
	Lng        float64 `yaml:"lng"`
	Urgency    string  `yaml:"urgency"`
	Price      float64 `yaml:"price"`
}

func (r RequestDef) ToModel() model.ServiceRequest {
	return model.ServiceRequest{
		ID:         r.ID,
		WasteType:  parseWasteType(r.WasteType),
		QuantityKg: r.QuantityKg,
		Location: model.Location{
			Address:     r.Address,
			Coordinates: model.Coordinates{Lat: r.Lat, Lng: r.Lng},
		},
		Urgency:   parseUrgency(r.Urgency),
		Price:     model.PriceEstimate{FinalPrice: r.Price, Currency: "KES"},
		CreatedAt: time.Now(),
	}
}

type Expected struct {
	Matched int `yaml:"matched"`
	// Proposals is checked only when set; fail_collectors reduce it
	// without changing the matched count.
	Proposals *int `yaml:"proposals,omitempty"`
}

type Scenario struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description,omitempty"`
	Collectors     []CollectorDef `yaml:"collectors"`
	Requests       []RequestDef   `yaml:"requests"`
	FailCollectors []string       `yaml:"fail_collectors,omitempty"`
	OfflineAfter   map[string]int `yaml:"offline_after,omitempty"`
	Expected       Expected       `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func parseWasteType(s string) model.WasteType {
	w, err := model.ParseWasteType(s)
	if err != nil {
		return model.WasteMixed
	}
	return w
}

func parseUrgency(s string) model.Urgency {
	switch s {
	case "urgent":
		return model.UrgencyUrgent
	case "emergency":
		return model.UrgencyEmergency
	default:
		return model.UrgencyNormal
	}
}
