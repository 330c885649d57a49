package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/takaflow/dispatch/core/model"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestCollectorDefDefaults(t *testing.T) {
	c := CollectorDef{ID: "col1", WasteTypes: []string{"plastic"}, Online: true}.ToModel()
	if c.VehicleCapacity != 500 || c.MaxLoad != 5 || c.ResponseTimeMin != 10 {
		t.Fatalf("defaults not applied: %#v", c)
	}
	if len(c.Specializations) != 1 || c.Specializations[0] != model.WastePlastic {
		t.Fatalf("specializations: %#v", c.Specializations)
	}
}

func TestParseUrgency(t *testing.T) {
	if parseUrgency("emergency") != model.UrgencyEmergency {
		t.Error("emergency not parsed")
	}
	if parseUrgency("whenever") != model.UrgencyNormal {
		t.Error("unknown urgency must fall back to normal")
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	tmp, err := os.CreateTemp(t.TempDir(), "bad*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteString(":"); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmp.Name()); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
