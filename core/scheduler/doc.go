package scheduler

// Package scheduler drives the requests of all appliances. On every tick it
// activates requests whose window has opened, re-evaluates them and
// switches appliances whose enabled state changed. Charger SOC reports are
// routed to the request of the matching appliance between ticks.
