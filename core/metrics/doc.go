package metrics

// Package metrics defines the interfaces used to observe request
// evaluation. Sinks like PromSink record demand snapshots, charger SOC
// reports and appliance switch commands. Optional recorder interfaces are
// detected with type assertions so a sink only implements what it needs.
