package metrics

import coremetrics "github.com/kilianp07/evdemand/core/metrics"

// MultiSink fanouts request events to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDemand forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordDemand(ev coremetrics.DemandEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDemand(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSocEvent forwards SOC reports to the sinks supporting them.
func (m *MultiSink) RecordSocEvent(ev coremetrics.SocEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.SocRecorder); ok {
			if err := rec.RecordSocEvent(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSwitch forwards switch commands to the sinks supporting them.
func (m *MultiSink) RecordSwitch(ev coremetrics.SwitchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.SwitchRecorder); ok {
			if err := rec.RecordSwitch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
