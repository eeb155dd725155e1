package model

import (
	"fmt"
)

// Battery parameters applied when no vehicle profile can be resolved.
const (
	DefaultBatteryCapacityWh = 100000
	DefaultChargeLossPercent = 10
)

// Vehicle is the static battery profile of an electric vehicle.
type Vehicle struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	BatteryCapacityWh int    `json:"battery_capacity_wh"`
	// ChargeLossPercent is the overhead added on top of the energy stored in
	// the battery to account for charging inefficiency.
	ChargeLossPercent int `json:"charge_loss_percent"`
}

// DefaultVehicle returns the profile used when a vehicle is unknown.
func DefaultVehicle() Vehicle {
	return Vehicle{
		BatteryCapacityWh: DefaultBatteryCapacityWh,
		ChargeLossPercent: DefaultChargeLossPercent,
	}
}

// Validate checks that the vehicle configuration is sound.
// In particular BatteryCapacityWh must be positive.
func (v Vehicle) Validate() error {
	if v.BatteryCapacityWh <= 0 {
		return fmt.Errorf("vehicle %d: battery capacity must be positive", v.ID)
	}
	if v.ChargeLossPercent < 0 {
		return fmt.Errorf("vehicle %d: charge loss must not be negative", v.ID)
	}
	return nil
}

// GrossEnergyWh returns the energy drawn from the grid to raise the battery
// by the given number of SOC percentage points, charge loss included.
func (v Vehicle) GrossEnergyWh(socPoints int) float64 {
	return float64(socPoints) / 100.0 * float64(100+v.ChargeLossPercent) / 100.0 * float64(v.BatteryCapacityWh)
}
