package simulator

import (
	"sync"
	"time"
)

// Battery models a simple EV battery charged at a fixed rate.
type Battery struct {
	CapacityKWh  float64 // total capacity
	Soc          float64 // state of charge [0,1]
	ChargeRateKW float64 // grid power drawn while charging
	// LossPercent is the share of grid energy lost on top of the stored energy.
	LossPercent float64
	mu          sync.Mutex
}

// Charge draws power from the grid for dt and returns the grid energy used in
// kWh. Charging stops once the battery is full.
func (b *Battery) Charge(dt time.Duration) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	hours := dt.Hours()
	if hours <= 0 || b.CapacityKWh <= 0 {
		return 0
	}
	factor := (100 + b.LossPercent) / 100
	grid := b.ChargeRateKW * hours
	stored := grid / factor
	if avail := (1 - b.Soc) * b.CapacityKWh; stored > avail {
		stored = avail
		grid = stored * factor
	}
	b.Soc += stored / b.CapacityKWh
	if b.Soc > 1 {
		b.Soc = 1
	}
	return grid
}

// SocPercent returns the state of charge in percent.
func (b *Battery) SocPercent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Soc * 100
}
