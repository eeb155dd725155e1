package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/evdemand/core/meter"
)

func TestEnergyRequestNetOfMeter(t *testing.T) {
	m := meter.NewCumulative()
	r := NewEnergyRequest(Base{ID: "dishwasher", Meter: m}, intPtr(1000), 3000, nil)
	assert.True(t, r.UsesOptionalEnergy())
	assert.Equal(t, StatePending, StateOf(r, now))

	r.SetEnabled(true)
	r.Update(now)
	assert.Equal(t, 1000, *r.Min(now))
	assert.Equal(t, 3000, *r.Max(now))

	m.Set(1.5)
	r.Update(now)
	assert.Equal(t, 0, *r.Min(now))
	assert.Equal(t, 1500, *r.Max(now))
	assert.True(t, r.Enabled())

	m.Set(3.0)
	r.Update(now)
	assert.True(t, r.IsFinished(now))
	assert.False(t, r.Enabled())
}

func TestEnergyRequestFixedAmountNotOptional(t *testing.T) {
	r := NewEnergyRequest(Base{ID: "boiler"}, intPtr(2000), 2000, nil)
	assert.False(t, r.UsesOptionalEnergy())
	assert.True(t, r.AcceptsControlRecommendations())
}

func TestEnergyRequestEquality(t *testing.T) {
	a := NewEnergyRequest(Base{ID: "a"}, nil, 2000, nil)
	b := NewEnergyRequest(Base{ID: "b"}, nil, 2000, nil)
	c := NewEnergyRequest(Base{ID: "c"}, intPtr(1), 2000, nil)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
	assert.Equal(t, "a/open/enabled=false/minEnergy=nilWh/maxEnergy=2000Wh", a.String())
}

func TestRuntimeRequestAccumulatesWhileEnabled(t *testing.T) {
	r := NewRuntimeRequest(Base{ID: "pump"}, intPtr(600), 1800, nil)
	r.Update(now)
	assert.Equal(t, 1800, *r.Max(now))

	r.Update(now.Add(10 * time.Minute))
	assert.Zero(t, r.Elapsed(), "disabled time is not counted")

	r.SetEnabled(true)
	r.Update(now.Add(10 * time.Minute))
	r.Update(now.Add(20 * time.Minute))
	assert.Equal(t, 10*time.Minute, r.Elapsed())
	assert.Equal(t, 0, *r.Min(now))
	assert.Equal(t, 1200, *r.Max(now))

	r.Update(now.Add(40 * time.Minute))
	assert.True(t, r.IsFinished(now))
	assert.False(t, r.Enabled())
	assert.False(t, r.UsesOptionalEnergy())
}

func TestRuntimeRequestPauseResume(t *testing.T) {
	r := NewRuntimeRequest(Base{ID: "pump"}, nil, 3600, nil)
	r.SetEnabled(true)
	r.Update(now)
	r.Update(now.Add(5 * time.Minute))
	r.SetEnabled(false)
	r.Update(now.Add(30 * time.Minute))
	r.SetEnabled(true)
	r.Update(now.Add(40 * time.Minute))
	r.Update(now.Add(45 * time.Minute))
	assert.Equal(t, 10*time.Minute, r.Elapsed())
}

func TestBaseActiveWindow(t *testing.T) {
	b := Base{Start: now, End: now.Add(time.Hour)}
	assert.False(t, b.Active(now.Add(-time.Second)))
	assert.True(t, b.Active(now))
	assert.True(t, b.Active(now.Add(59*time.Minute)))
	assert.False(t, b.Active(now.Add(time.Hour)))
	assert.True(t, (&Base{}).Active(now))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "finished", StateFinished.String())
	assert.Equal(t, "state(9)", State(9).String())
}
