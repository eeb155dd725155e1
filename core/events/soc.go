package events

import "time"

// SocChangedEvent is published when a charger reports a new state of charge
// for the vehicle connected to an appliance.
type SocChangedEvent struct {
	ApplianceID string
	Timestamp   time.Time
	SocPercent  float64
}
