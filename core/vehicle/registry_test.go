package vehicle

import (
	"testing"

	"github.com/kilianp07/evdemand/core/model"
)

func intPtr(v int) *int { return &v }

func TestMemoryRegistry_List(t *testing.T) {
	r := NewMemoryRegistry(model.Vehicle{ID: 2, BatteryCapacityWh: 2}, model.Vehicle{ID: 1, BatteryCapacityWh: 1})
	r.Set(model.Vehicle{ID: 3, BatteryCapacityWh: 3})
	out := r.List()
	if len(out) != 3 || out[0].ID != 1 || out[2].ID != 3 {
		t.Fatalf("unexpected order: %#v", out)
	}
}

func TestMemoryRegistry_SetOverrides(t *testing.T) {
	r := NewMemoryRegistry(model.Vehicle{ID: 1, BatteryCapacityWh: 1})
	r.Set(model.Vehicle{ID: 1, BatteryCapacityWh: 40000})
	v, ok := r.Vehicle(1)
	if !ok || v.BatteryCapacityWh != 40000 {
		t.Fatalf("override failed: %#v", v)
	}
}

func TestResolve(t *testing.T) {
	r := NewMemoryRegistry(model.Vehicle{ID: 7, BatteryCapacityWh: 50000, ChargeLossPercent: 5})
	tests := []struct {
		name    string
		reg     Registry
		id      *int
		wantCap int
		wantOK  bool
	}{
		{"known", r, intPtr(7), 50000, true},
		{"unknown", r, intPtr(8), model.DefaultBatteryCapacityWh, false},
		{"nil id", r, nil, model.DefaultBatteryCapacityWh, false},
		{"nil registry", nil, intPtr(7), model.DefaultBatteryCapacityWh, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Resolve(tt.reg, tt.id)
			if ok != tt.wantOK || v.BatteryCapacityWh != tt.wantCap {
				t.Fatalf("got %#v ok=%v", v, ok)
			}
		})
	}
}
