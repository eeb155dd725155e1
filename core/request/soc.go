package request

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/evdemand/core/energy"
	"github.com/kilianp07/evdemand/core/logger"
	"github.com/kilianp07/evdemand/core/meter"
	"github.com/kilianp07/evdemand/core/vehicle"
)

// DefaultTargetSocPercent is used when a SocRequest has no target.
const DefaultTargetSocPercent = 100

// SocRequest asks for the energy needed to charge a vehicle battery up to a
// target state of charge. The demand is a single value: Min and Max agree.
//
// Update is driven by the scheduler loop while OnSocObserved is called from
// charger monitoring; both are serialized by the request's own mutex.
type SocRequest struct {
	Base

	mu         sync.Mutex
	targetSoc  *int
	vehicleID  *int
	initialSoc int
	demand     *int
	cache      *energy.Cache
	vehicles   vehicle.Registry
	log        logger.Logger
}

// NewSocRequest creates a request charging the vehicle identified by
// vehicleID to targetSoc percent. Both may be nil.
func NewSocRequest(base Base, targetSoc, vehicleID *int, vehicles vehicle.Registry, log logger.Logger) *SocRequest {
	log = logger.OrNop(log).With(map[string]any{"appliance_id": base.ID, "kind": KindSoc})
	return &SocRequest{
		Base:      base,
		targetSoc: copyInt(targetSoc),
		vehicleID: copyInt(vehicleID),
		cache:     energy.NewCache(log),
		vehicles:  vehicles,
		log:       log,
	}
}

func (r *SocRequest) Kind() string { return KindSoc }

// TargetSoc returns the target state of charge, defaulting to 100 percent.
func (r *SocRequest) TargetSoc() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targetSocOrDefault()
}

// SetTargetSoc changes the target. The cached demand is not invalidated:
// it is recomputed once the delivered energy or the initial SOC changes.
func (r *SocRequest) SetTargetSoc(soc *int) {
	r.mu.Lock()
	r.targetSoc = copyInt(soc)
	r.mu.Unlock()
}

func (r *SocRequest) targetSocOrDefault() int {
	if r.targetSoc == nil {
		return DefaultTargetSocPercent
	}
	return *r.targetSoc
}

func (r *SocRequest) VehicleID() *int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyInt(r.vehicleID)
}

func (r *SocRequest) InitialSoc() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialSoc
}

func (r *SocRequest) SetInitialSoc(soc int) {
	r.mu.Lock()
	r.initialSoc = soc
	r.mu.Unlock()
}

// Demand returns the last computed remaining demand in Wh.
func (r *SocRequest) Demand() *int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyInt(r.demand)
}

func (r *SocRequest) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *SocRequest) EnabledBefore() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabledBefore
}

func (r *SocRequest) SetEnabled(enabled bool) {
	r.mu.Lock()
	r.setEnabled(enabled)
	r.mu.Unlock()
}

func (r *SocRequest) UsesOptionalEnergy() bool { return false }

func (r *SocRequest) AcceptsControlRecommendations() bool {
	return r.acceptsControlRecommendations()
}

func (r *SocRequest) Min(time.Time) *int { return r.Demand() }

func (r *SocRequest) Max(time.Time) *int { return r.Demand() }

// IsFinished reports whether no more energy is needed. A request that has
// not been evaluated yet is not finished.
func (r *SocRequest) IsFinished(time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.demand != nil && *r.demand <= 0
}

// Update re-evaluates the remaining demand and disables the request once it
// drops to zero or below.
func (r *SocRequest) Update(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.update(now)
}

// OnSocObserved takes a state of charge reported by the charger as the new
// initial SOC. A request that was never enabled is enabled before the demand
// is evaluated; once disabled after running it stays disabled.
func (r *SocRequest) OnSocObserved(now time.Time, socPercent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.Debugf("using updated SOC=%v", socPercent)
	if !r.enabledBefore {
		r.setEnabled(true)
	}
	r.initialSoc = int(socPercent)
	r.update(now)
}

func (r *SocRequest) update(time.Time) {
	in := energy.Inputs{
		EnergyDeliveredKWh: meter.Read(r.Meter),
		InitialSocPercent:  r.initialSoc,
	}
	demand := r.cache.Evaluate(in, r.calculate)
	r.demand = &demand
	if demand <= 0 {
		r.setEnabled(false)
	}
}

func (r *SocRequest) calculate(in energy.Inputs) int {
	v, ok := vehicle.Resolve(r.vehicles, r.vehicleID)
	if !ok {
		if r.vehicleID == nil {
			r.log.Warnf("vehicle id not set - using defaults")
		} else {
			r.log.Warnf("vehicle %d unknown - using defaults", *r.vehicleID)
		}
	}
	target := r.targetSocOrDefault()
	r.log.Debugw("energy calculation", map[string]any{
		"vehicle_id":          intOrNil(r.vehicleID),
		"battery_capacity_wh": v.BatteryCapacityWh,
		"charge_loss_percent": v.ChargeLossPercent,
		"initial_soc":         in.InitialSocPercent,
		"target_soc":          target,
	})
	demand := energy.ComputeRemainingDemandWh(in.InitialSocPercent, target, in.EnergyDeliveredKWh,
		v.BatteryCapacityWh, v.ChargeLossPercent)
	r.log.Debugf("remaining demand calculated=%dWh", demand)
	return demand
}

// State returns the evaluation state of the request.
func (r *SocRequest) State(now time.Time) State { return StateOf(r, now) }

type socSnapshot struct {
	target    int
	vehicleID *int
	demand    *int
}

func (r *SocRequest) snapshot() socSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return socSnapshot{target: r.targetSocOrDefault(), vehicleID: copyInt(r.vehicleID), demand: copyInt(r.demand)}
}

// Equal compares the request window, the control recommendation flag, the
// target, the vehicle and the computed demand. The initial SOC is ignored.
func (r *SocRequest) Equal(other Request) bool {
	o, ok := other.(*SocRequest)
	if !ok || o == nil {
		return false
	}
	if o == r {
		return true
	}
	a, b := r.snapshot(), o.snapshot()
	return r.Base.equal(&o.Base) &&
		a.target == b.target &&
		equalInt(a.vehicleID, b.vehicleID) &&
		equalInt(a.demand, b.demand)
}

func (r *SocRequest) Hash() uint64 {
	s := r.snapshot()
	return hashOf(append(r.hashParts(), KindSoc, s.target, intOrNil(s.vehicleID), intOrNil(s.demand))...)
}

func (r *SocRequest) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	demand := 0
	if r.demand != nil {
		demand = *r.demand
	}
	return fmt.Sprintf("%s/evId=%s/soc=%d%%=>%d%%/energy=%dWh",
		r.describe(), intOrNil(r.vehicleID), r.initialSoc, r.targetSocOrDefault(), demand)
}
