package metrics

import (
	"github.com/kilianp07/evdemand/core/logger"
	coremetrics "github.com/kilianp07/evdemand/core/metrics"
)

// LogSink writes request events to a logger.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: logger.OrNop(log)}
}

func (s *LogSink) RecordDemand(ev coremetrics.DemandEvent) error {
	fields := map[string]any{
		"appliance_id": ev.ApplianceID,
		"kind":         ev.Kind,
		"state":        ev.State,
		"enabled":      ev.Enabled,
		"finished":     ev.Finished,
	}
	if ev.DemandWh != nil {
		fields["demand_wh"] = *ev.DemandWh
	}
	s.log.Debugw("demand", fields)
	return nil
}

func (s *LogSink) RecordSocEvent(ev coremetrics.SocEvent) error {
	s.log.Debugw("soc", map[string]any{"appliance_id": ev.ApplianceID, "soc": ev.SocPercent})
	return nil
}

func (s *LogSink) RecordSwitch(ev coremetrics.SwitchEvent) error {
	if ev.Err != nil {
		s.log.Warnf("switch %s on=%t failed: %v", ev.ApplianceID, ev.On, ev.Err)
		return nil
	}
	s.log.Infof("switched %s on=%t", ev.ApplianceID, ev.On)
	return nil
}
