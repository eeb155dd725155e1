package request

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evdemand/core/energy"
	"github.com/kilianp07/evdemand/core/meter"
	"github.com/kilianp07/evdemand/core/model"
	"github.com/kilianp07/evdemand/core/vehicle"
	"github.com/kilianp07/evdemand/internal/logtest"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func newTestSocRequest(t *testing.T, target, vehicleID *int) (*SocRequest, *meter.Cumulative, *logtest.Recorder) {
	t.Helper()
	reg := vehicle.NewMemoryRegistry(model.Vehicle{ID: 1, BatteryCapacityWh: 50000, ChargeLossPercent: 10})
	m := meter.NewCumulative()
	rec := logtest.New()
	r := NewSocRequest(Base{ID: "wallbox", Meter: m}, target, vehicleID, reg, rec)
	return r, m, rec
}

func TestSocRequestFormula(t *testing.T) {
	r, m, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	r.SetInitialSoc(20)
	r.Update(now)
	require.NotNil(t, r.Demand())
	assert.Equal(t, 33000, *r.Demand())

	m.Set(5.0)
	r.Update(now)
	assert.Equal(t, 28000, *r.Demand())
}

func TestSocRequestMinMaxIdentical(t *testing.T) {
	r, _, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	assert.Nil(t, r.Min(now))
	assert.Nil(t, r.Max(now))
	assert.Equal(t, StatePending, r.State(now))
	assert.False(t, r.IsFinished(now))

	r.SetInitialSoc(20)
	r.Update(now)
	assert.Equal(t, r.Min(now), r.Max(now))
	assert.Equal(t, 33000, *r.Max(now))
	assert.Equal(t, StateActive, r.State(now))
}

func TestSocRequestDefaults(t *testing.T) {
	tests := []struct {
		name      string
		vehicleID *int
	}{
		{"no vehicle id", nil},
		{"unknown vehicle", intPtr(42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, rec := newTestSocRequest(t, nil, tt.vehicleID)
			r.Update(now)
			// 0% => 100% on 100 kWh with 10% loss
			assert.Equal(t, 110000, *r.Demand())
			assert.Equal(t, 1, rec.Count("warn"))
			assert.Equal(t, 0, rec.Count("error"))
			assert.Equal(t, DefaultTargetSocPercent, r.TargetSoc())
		})
	}
}

func TestSocRequestMemoization(t *testing.T) {
	r, m, rec := newTestSocRequest(t, intPtr(80), intPtr(1))
	r.SetInitialSoc(20)
	r.Update(now)
	debugLines := rec.Count("debug")
	require.Positive(t, debugLines)

	// target change alone does not invalidate the cached demand
	r.SetTargetSoc(intPtr(90))
	r.Update(now)
	assert.Equal(t, 33000, *r.Demand())
	assert.Equal(t, debugLines, rec.Count("debug"))

	m.Set(1.0)
	r.Update(now)
	// 20% => 90% on 50 kWh with 10% loss, minus 1 kWh
	assert.Equal(t, 38500-1000, *r.Demand())
	assert.Greater(t, rec.Count("debug"), debugLines)
}

func TestSocRequestIdempotentUpdate(t *testing.T) {
	r, m, rec := newTestSocRequest(t, intPtr(80), intPtr(1))
	m.Set(2.5)
	r.SetInitialSoc(40)
	r.Update(now)
	first := *r.Demand()
	lines := len(rec.Entries())
	for i := 0; i < 10; i++ {
		r.Update(now.Add(time.Duration(i) * time.Minute))
	}
	assert.Equal(t, first, *r.Demand())
	assert.Len(t, rec.Entries(), lines)
}

func TestSocRequestFinishTransition(t *testing.T) {
	r, m, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	r.SetEnabled(true)
	r.SetInitialSoc(20)
	r.Update(now)
	assert.True(t, r.Enabled())
	assert.False(t, r.IsFinished(now))

	m.Set(33.0)
	r.Update(now)
	assert.Equal(t, 0, *r.Demand())
	assert.True(t, r.IsFinished(now))
	assert.False(t, r.Enabled())
	assert.Equal(t, StateFinished, r.State(now))

	r.Update(now.Add(time.Minute))
	m.Set(40.0)
	r.Update(now.Add(2 * time.Minute))
	assert.False(t, r.Enabled())
	assert.True(t, r.IsFinished(now))
}

func TestSocRequestWakeOnObservation(t *testing.T) {
	r, _, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	require.False(t, r.Enabled())

	r.OnSocObserved(now, 20.7)
	assert.True(t, r.Enabled())
	assert.Equal(t, 20, r.InitialSoc())
	assert.Equal(t, 33000, *r.Demand())
}

func TestSocRequestWakeThenFinish(t *testing.T) {
	r, _, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	r.OnSocObserved(now, 95)
	assert.True(t, r.EnabledBefore())
	assert.False(t, r.Enabled())
	assert.True(t, r.IsFinished(now))
	assert.Negative(t, *r.Demand())
}

func TestSocRequestFinishedNotRearmedBySoc(t *testing.T) {
	r, m, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	r.OnSocObserved(now, 20)
	require.True(t, r.Enabled())

	m.Set(33.0)
	r.Update(now.Add(time.Minute))
	require.True(t, r.IsFinished(now))
	require.False(t, r.Enabled())

	r.OnSocObserved(now.Add(2*time.Minute), 10)
	assert.False(t, r.Enabled())
	assert.Equal(t, 10, r.InitialSoc())
	// 10% => 80% on 50 kWh with 10% loss, minus 33 kWh
	assert.Equal(t, 5500, *r.Demand())
	assert.True(t, r.EnabledBefore())
}

func TestSocRequestControlRecommendations(t *testing.T) {
	r, _, _ := newTestSocRequest(t, nil, nil)
	assert.True(t, r.AcceptsControlRecommendations())
	assert.False(t, r.UsesOptionalEnergy())

	no := false
	r2 := NewSocRequest(Base{ID: "wallbox", AcceptControlRecommendations: &no}, nil, nil, nil, nil)
	assert.False(t, r2.AcceptsControlRecommendations())
}

func TestSocRequestEqualityIgnoresInitialSoc(t *testing.T) {
	a, _, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	b, _, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	a.SetInitialSoc(20)
	b.SetInitialSoc(20)
	a.Update(now)
	b.Update(now)
	b.SetInitialSoc(55)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestSocRequestEqualityFields(t *testing.T) {
	base, _, _ := newTestSocRequest(t, intPtr(80), intPtr(1))

	defaultTarget, _, _ := newTestSocRequest(t, intPtr(100), intPtr(1))
	nilTarget, _, _ := newTestSocRequest(t, nil, intPtr(1))
	assert.True(t, defaultTarget.Equal(nilTarget), "nil target equals explicit default")

	otherVehicle, _, _ := newTestSocRequest(t, intPtr(80), intPtr(2))
	assert.False(t, base.Equal(otherVehicle))

	evaluated, _, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	evaluated.Update(now)
	assert.False(t, base.Equal(evaluated))

	no := false
	otherFlag := NewSocRequest(Base{ID: "wallbox", AcceptControlRecommendations: &no}, intPtr(80), intPtr(1), nil, nil)
	assert.False(t, base.Equal(otherFlag))

	otherWindow := NewSocRequest(Base{ID: "wallbox", Start: now}, intPtr(80), intPtr(1), nil, nil)
	assert.False(t, base.Equal(otherWindow))

	assert.False(t, base.Equal(NewEnergyRequest(Base{ID: "wallbox"}, nil, 1000, nil)))
}

func TestSocRequestString(t *testing.T) {
	r, _, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	assert.Equal(t, "wallbox/open/enabled=false/evId=1/soc=0%=>80%/energy=0Wh", r.String())

	r.OnSocObserved(now, 20)
	assert.Equal(t, "wallbox/open/enabled=true/evId=1/soc=20%=>80%/energy=33000Wh", r.String())

	n, _, _ := newTestSocRequest(t, nil, nil)
	assert.Contains(t, n.String(), "evId=nil/soc=0%=>100%")
}

func TestSocRequestConcurrentUpdateAndObservation(t *testing.T) {
	r, m, _ := newTestSocRequest(t, intPtr(80), intPtr(1))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Update(now)
		}()
		go func(soc int) {
			defer wg.Done()
			r.OnSocObserved(now, float64(soc))
		}(i)
	}
	wg.Wait()

	r.Update(now)
	want := energy.ComputeRemainingDemandWh(r.InitialSoc(), 80, m.EnergyKWh(), 50000, 10)
	assert.Equal(t, want, *r.Demand())
	assert.True(t, r.Enabled())
}
