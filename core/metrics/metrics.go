package metrics

import "time"

// DemandEvent is a snapshot of a request taken after it was updated.
type DemandEvent struct {
	ApplianceID string
	Kind        string
	State       string
	// DemandWh is nil while the request has not been evaluated.
	DemandWh *int
	Enabled  bool
	Finished bool
	Time     time.Time
}

// MetricsSink records request evaluations for observability purposes.
type MetricsSink interface {
	RecordDemand(ev DemandEvent) error
}

// SocEvent records a state of charge reported by a charger.
type SocEvent struct {
	ApplianceID string
	SocPercent  float64
	Time        time.Time
}

// SocRecorder records charger SOC reports.
type SocRecorder interface {
	RecordSocEvent(ev SocEvent) error
}

// SwitchEvent records an appliance switch command.
type SwitchEvent struct {
	ApplianceID string
	On          bool
	Err         error
	Time        time.Time
}

// SwitchRecorder records switch commands sent to appliances.
type SwitchRecorder interface {
	RecordSwitch(ev SwitchEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordDemand(DemandEvent) error { return nil }
func (NopSink) RecordSocEvent(SocEvent) error  { return nil }
func (NopSink) RecordSwitch(SwitchEvent) error { return nil }
