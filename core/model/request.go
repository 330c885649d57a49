package model

import (
	"fmt"
	"time"
)

// WasteType classifies what a service request asks to be collected.
type WasteType int

const (
	WastePlastic WasteType = iota
	WasteOrganic
	WasteElectronic
	WasteHazardous
	WasteMixed
)

// String returns a human-readable representation of the waste type.
func (w WasteType) String() string {
	switch w {
	case WastePlastic:
		return "plastic"
	case WasteOrganic:
		return "organic"
	case WasteElectronic:
		return "electronic"
	case WasteHazardous:
		return "hazardous"
	case WasteMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// ParseWasteType converts a string label to a WasteType.
func ParseWasteType(s string) (WasteType, error) {
	switch s {
	case "plastic":
		return WastePlastic, nil
	case "organic":
		return WasteOrganic, nil
	case "electronic":
		return WasteElectronic, nil
	case "hazardous":
		return WasteHazardous, nil
	case "mixed":
		return WasteMixed, nil
	default:
		return 0, fmt.Errorf("unknown waste type %q", s)
	}
}

// Urgency expresses how quickly a request needs service.
type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyUrgent
	UrgencyEmergency
)

func (u Urgency) String() string {
	switch u {
	case UrgencyNormal:
		return "normal"
	case UrgencyUrgent:
		return "urgent"
	case UrgencyEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// PreferredTime indicates whether the client wants pickup as soon as
// possible or at a scheduled slot.
type PreferredTime int

const (
	PreferASAP PreferredTime = iota
	PreferScheduled
)

func (p PreferredTime) String() string {
	if p == PreferScheduled {
		return "scheduled"
	}
	return "asap"
}

// RequestStatus models the request lifecycle. The engine only performs the
// pending -> matched transition; everything later is driven by collector
// status operations outside this module.
type RequestStatus int

const (
	StatusPending RequestStatus = iota
	StatusMatched
	StatusAccepted
	StatusEnRoute
	StatusArrived
	StatusCollecting
	StatusCompleted
	StatusCancelled
)

func (s RequestStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusMatched:
		return "matched"
	case StatusAccepted:
		return "accepted"
	case StatusEnRoute:
		return "en_route"
	case StatusArrived:
		return "arrived"
	case StatusCollecting:
		return "collecting"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseRequestStatus converts a wire status label to a RequestStatus.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "matched":
		return StatusMatched, nil
	case "accepted":
		return StatusAccepted, nil
	case "en_route":
		return StatusEnRoute, nil
	case "arrived":
		return StatusArrived, nil
	case "collecting":
		return StatusCollecting, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return 0, fmt.Errorf("unknown request status %q", s)
	}
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step. Cancellation is reachable from pending, accepted and en_route.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	if next == StatusCancelled {
		return s == StatusPending || s == StatusAccepted || s == StatusEnRoute
	}
	switch s {
	case StatusPending:
		return next == StatusMatched
	case StatusMatched:
		return next == StatusAccepted
	case StatusAccepted:
		return next == StatusEnRoute
	case StatusEnRoute:
		return next == StatusArrived
	case StatusArrived:
		return next == StatusCollecting
	case StatusCollecting:
		return next == StatusCompleted
	default:
		return false
	}
}

// Coordinates is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location pairs a street address with its resolved coordinates.
// Approximate is set when the coordinates come from the lenient geocoding
// fallback rather than a real resolution of the address.
type Location struct {
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	Approximate bool        `json:"approximate,omitempty"`
}

// PriceEstimate carries the upstream pricing result. The engine only
// consumes FinalPrice; surge computation happens before requests reach it.
type PriceEstimate struct {
	BasePrice       float64 `json:"base_price"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	FinalPrice      float64 `json:"final_price"`
	Currency        string  `json:"currency"`
}

// ServiceRequest is one client pickup request flowing into the engine.
type ServiceRequest struct {
	ID            string
	ClientID      string
	WasteType     WasteType
	QuantityKg    float64
	Location      Location
	Urgency       Urgency
	Price         PriceEstimate
	Status        RequestStatus
	PreferredTime PreferredTime
	CreatedAt     time.Time
}

// Validate checks that the request is well formed before matching.
func (r ServiceRequest) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("request id is required")
	}
	if r.QuantityKg <= 0 {
		return fmt.Errorf("quantity must be positive, got %v", r.QuantityKg)
	}
	return nil
}
