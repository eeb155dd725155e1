package energy

import "github.com/kilianp07/evdemand/core/model"

// ComputeRemainingDemandWh returns the energy in Wh still needed to raise the
// battery from initialSocPercent to targetSocPercent, net of the energy
// already delivered in kWh.
//
// The gross target energy and the delivered energy are truncated toward
// zero independently before subtracting. Inputs are not validated: out of
// range values yield unusual, possibly negative, results.
func ComputeRemainingDemandWh(initialSocPercent, targetSocPercent int, energyDeliveredKWh float64,
	batteryCapacityWh, chargeLossPercent int) int {
	profile := model.Vehicle{BatteryCapacityWh: batteryCapacityWh, ChargeLossPercent: chargeLossPercent}
	targetEnergyWh := int(profile.GrossEnergyWh(targetSocPercent - initialSocPercent))
	deliveredWh := int(energyDeliveredKWh * 1000.0)
	return targetEnergyWh - deliveredWh
}
