package request

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/evdemand/core/logger"
	"github.com/kilianp07/evdemand/core/meter"
)

// EnergyRequest asks for a fixed amount of energy between MinWh and MaxWh,
// net of what the meter has already recorded.
type EnergyRequest struct {
	Base

	mu    sync.Mutex
	minWh *int
	maxWh int
	min   *int
	max   *int
	log   logger.Logger
}

func NewEnergyRequest(base Base, minWh *int, maxWh int, log logger.Logger) *EnergyRequest {
	return &EnergyRequest{
		Base:  base,
		minWh: copyInt(minWh),
		maxWh: maxWh,
		log:   logger.OrNop(log).With(map[string]any{"appliance_id": base.ID, "kind": KindEnergy}),
	}
}

func (r *EnergyRequest) Kind() string { return KindEnergy }

func (r *EnergyRequest) Update(time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delivered := int(meter.Read(r.Meter) * 1000.0)
	mn := 0
	if r.minWh != nil {
		mn = *r.minWh - delivered
	}
	if mn < 0 {
		mn = 0
	}
	mx := r.maxWh - delivered
	if r.max == nil || *r.max != mx {
		r.log.Debugf("remaining energy min=%dWh max=%dWh", mn, mx)
	}
	r.min, r.max = &mn, &mx
	if mx <= 0 {
		r.setEnabled(false)
	}
}

func (r *EnergyRequest) Min(time.Time) *int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyInt(r.min)
}

func (r *EnergyRequest) Max(time.Time) *int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyInt(r.max)
}

func (r *EnergyRequest) IsFinished(time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.max != nil && *r.max <= 0
}

// UsesOptionalEnergy reports whether part of the requested energy may be
// skipped, i.e. the minimum is below the maximum.
func (r *EnergyRequest) UsesOptionalEnergy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	mn := 0
	if r.minWh != nil {
		mn = *r.minWh
	}
	return mn < r.maxWh
}

func (r *EnergyRequest) AcceptsControlRecommendations() bool {
	return r.acceptsControlRecommendations()
}

func (r *EnergyRequest) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *EnergyRequest) EnabledBefore() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabledBefore
}

func (r *EnergyRequest) SetEnabled(enabled bool) {
	r.mu.Lock()
	r.setEnabled(enabled)
	r.mu.Unlock()
}

func (r *EnergyRequest) Equal(other Request) bool {
	o, ok := other.(*EnergyRequest)
	if !ok || o == nil {
		return false
	}
	return r.Base.equal(&o.Base) && equalInt(r.minWh, o.minWh) && r.maxWh == o.maxWh
}

func (r *EnergyRequest) Hash() uint64 {
	return hashOf(append(r.hashParts(), KindEnergy, intOrNil(r.minWh), r.maxWh)...)
}

func (r *EnergyRequest) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("%s/minEnergy=%sWh/maxEnergy=%dWh", r.describe(), intOrNil(r.minWh), r.maxWh)
}
