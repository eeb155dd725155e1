package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/evdemand/core/metrics"
)

// PromSink records request evaluations in Prometheus metrics.
type PromSink struct {
	demand   *prometheus.GaugeVec
	enabled  *prometheus.GaugeVec
	finished *prometheus.GaugeVec
	soc      *prometheus.GaugeVec
	socTotal *prometheus.CounterVec
	switches *prometheus.CounterVec
}

// NewPromSink registers request metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		demand: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "request_remaining_demand_wh",
			Help: "Remaining demand of the appliance request",
		}, []string{"appliance_id", "kind"}),
		enabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "request_enabled",
			Help: "1 when the appliance request is enabled",
		}, []string{"appliance_id", "kind"}),
		finished: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "request_finished",
			Help: "1 when the appliance request needs no more energy",
		}, []string{"appliance_id", "kind"}),
		soc: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "charger_soc_percent",
			Help: "Last state of charge reported by the charger",
		}, []string{"appliance_id"}),
		socTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charger_soc_events_total",
			Help: "Total number of SOC reports received from chargers",
		}, []string{"appliance_id"}),
		switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appliance_switch_total",
			Help: "Total number of appliance switch commands",
		}, []string{"appliance_id", "on", "success"}),
	}
	var err error
	if s.demand, err = register(reg, s.demand); err != nil {
		return nil, err
	}
	if s.enabled, err = register(reg, s.enabled); err != nil {
		return nil, err
	}
	if s.finished, err = register(reg, s.finished); err != nil {
		return nil, err
	}
	if s.soc, err = register(reg, s.soc); err != nil {
		return nil, err
	}
	if s.socTotal, err = register(reg, s.socTotal); err != nil {
		return nil, err
	}
	if s.switches, err = register(reg, s.switches); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// RecordDemand updates the per-appliance gauges. An unevaluated request
// leaves the demand gauge untouched.
func (s *PromSink) RecordDemand(ev coremetrics.DemandEvent) error {
	if ev.DemandWh != nil {
		s.demand.WithLabelValues(ev.ApplianceID, ev.Kind).Set(float64(*ev.DemandWh))
	}
	s.enabled.WithLabelValues(ev.ApplianceID, ev.Kind).Set(boolGauge(ev.Enabled))
	s.finished.WithLabelValues(ev.ApplianceID, ev.Kind).Set(boolGauge(ev.Finished))
	return nil
}

// RecordSocEvent stores the reported SOC and counts the report.
func (s *PromSink) RecordSocEvent(ev coremetrics.SocEvent) error {
	s.soc.WithLabelValues(ev.ApplianceID).Set(ev.SocPercent)
	s.socTotal.WithLabelValues(ev.ApplianceID).Inc()
	return nil
}

// RecordSwitch counts switch commands by outcome.
func (s *PromSink) RecordSwitch(ev coremetrics.SwitchEvent) error {
	s.switches.WithLabelValues(ev.ApplianceID, strconv.FormatBool(ev.On), strconv.FormatBool(ev.Err == nil)).Inc()
	return nil
}
