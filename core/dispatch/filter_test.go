package dispatch

import (
	"testing"

	"github.com/takaflow/dispatch/core/model"
)

func TestIsCompatible_Specialization(t *testing.T) {
	f := NewCompatibilityFilter()
	c := onlineCollector("a", testOrigin)
	c.Rating = 5
	c.VehicleCapacity = 10000

	req := plasticRequest(model.UrgencyEmergency)
	req.WasteType = model.WasteHazardous
	if f.IsCompatible(c, req) {
		t.Fatal("waste type outside specializations must be incompatible regardless of other attributes")
	}
	req.WasteType = model.WastePlastic
	if !f.IsCompatible(c, req) {
		t.Fatal("specialist within range and capacity should be compatible")
	}
}

func TestIsCompatible_Capacity(t *testing.T) {
	f := NewCompatibilityFilter()
	c := onlineCollector("a", testOrigin)
	c.VehicleCapacity = 20

	req := plasticRequest(model.UrgencyNormal)
	req.QuantityKg = 25
	if f.IsCompatible(c, req) {
		t.Fatal("quantity above vehicle capacity must be incompatible")
	}
	req.QuantityKg = 20
	if !f.IsCompatible(c, req) {
		t.Fatal("quantity equal to capacity is allowed")
	}
}

func TestIsCompatible_RouteRadius(t *testing.T) {
	f := NewCompatibilityFilter()
	req := plasticRequest(model.UrgencyNormal)

	within := onlineCollector("near", offsetKm(testOrigin, 15))
	if !f.IsCompatible(within, req) {
		t.Error("15 km is inside the 20 km route radius")
	}
	beyond := onlineCollector("far", offsetKm(testOrigin, 25))
	if f.IsCompatible(beyond, req) {
		t.Error("25 km is outside the 20 km route radius")
	}
}

func TestFilter_SubsetsRequests(t *testing.T) {
	f := NewCompatibilityFilter()
	c := onlineCollector("a", testOrigin)
	c.VehicleCapacity = 100

	good := plasticRequest(model.UrgencyNormal)
	wrongType := plasticRequest(model.UrgencyNormal)
	wrongType.WasteType = model.WasteElectronic
	tooHeavy := plasticRequest(model.UrgencyNormal)
	tooHeavy.QuantityKg = 500

	got := f.Filter(c, []model.ServiceRequest{good, wrongType, tooHeavy})
	if len(got) != 1 {
		t.Fatalf("got %d compatible requests, want 1", len(got))
	}
}
