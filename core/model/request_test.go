package model

import "testing"

func TestRequestStatus_Transitions(t *testing.T) {
	chain := []RequestStatus{
		StatusPending, StatusMatched, StatusAccepted, StatusEnRoute,
		StatusArrived, StatusCollecting, StatusCompleted,
	}
	for i := 0; i < len(chain)-1; i++ {
		if !chain[i].CanTransition(chain[i+1]) {
			t.Errorf("%s -> %s should be allowed", chain[i], chain[i+1])
		}
	}
	if StatusPending.CanTransition(StatusCompleted) {
		t.Error("pending -> completed must not skip the chain")
	}
	if StatusCompleted.CanTransition(StatusPending) {
		t.Error("completed is terminal")
	}
}

func TestRequestStatus_Cancellation(t *testing.T) {
	cancellable := []RequestStatus{StatusPending, StatusAccepted, StatusEnRoute}
	for _, s := range cancellable {
		if !s.CanTransition(StatusCancelled) {
			t.Errorf("%s should be cancellable", s)
		}
	}
	for _, s := range []RequestStatus{StatusCollecting, StatusCompleted, StatusCancelled} {
		if s.CanTransition(StatusCancelled) {
			t.Errorf("%s should not be cancellable", s)
		}
	}
}

func TestServiceRequest_Validate(t *testing.T) {
	req := ServiceRequest{ID: "r1", QuantityKg: 10}
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	req.QuantityKg = 0
	if err := req.Validate(); err == nil {
		t.Fatal("zero quantity should be rejected")
	}
	req = ServiceRequest{QuantityKg: 5}
	if err := req.Validate(); err == nil {
		t.Fatal("missing id should be rejected")
	}
}

func TestParseWasteType(t *testing.T) {
	for _, w := range []WasteType{WastePlastic, WasteOrganic, WasteElectronic, WasteHazardous, WasteMixed} {
		got, err := ParseWasteType(w.String())
		if err != nil {
			t.Fatalf("round trip %s: %v", w, err)
		}
		if got != w {
			t.Errorf("round trip %s: got %s", w, got)
		}
	}
	if _, err := ParseWasteType("nuclear"); err == nil {
		t.Error("unknown label should error")
	}
}

func TestCollector_LoadHelpers(t *testing.T) {
	c := Collector{ID: "c1", MaxLoad: 4, CurrentLoad: 4, Rating: 4.0}
	if !c.AtCapacity() {
		t.Error("4/4 should be at capacity")
	}
	c.CurrentLoad = 1
	if c.AtCapacity() {
		t.Error("1/4 should not be at capacity")
	}
	if got := c.LoadRatio(); got != 0.25 {
		t.Errorf("load ratio: got %v want 0.25", got)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("valid collector rejected: %v", err)
	}
	c.CurrentLoad = 9
	if err := c.Validate(); err == nil {
		t.Fatal("load above max must be rejected")
	}
}

func TestCollector_Specializes(t *testing.T) {
	c := Collector{Specializations: []WasteType{WastePlastic, WasteOrganic}}
	if !c.Specializes(WastePlastic) {
		t.Error("expected plastic specialization")
	}
	if c.Specializes(WasteHazardous) {
		t.Error("hazardous is not in the specialization set")
	}
}
