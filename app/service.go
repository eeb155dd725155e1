package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kilianp07/evdemand/api"
	"github.com/kilianp07/evdemand/config"
	"github.com/kilianp07/evdemand/core/events"
	"github.com/kilianp07/evdemand/core/meter"
	coremetrics "github.com/kilianp07/evdemand/core/metrics"
	"github.com/kilianp07/evdemand/core/request"
	"github.com/kilianp07/evdemand/core/scheduler"
	"github.com/kilianp07/evdemand/core/vehicle"
	"github.com/kilianp07/evdemand/infra/logger"
	"github.com/kilianp07/evdemand/infra/metrics"
	"github.com/kilianp07/evdemand/infra/mqtt"
	"github.com/kilianp07/evdemand/internal/eventbus"
)

// Service orchestrates the request scheduler and the MQTT connector.
type Service struct {
	Scheduler *scheduler.Scheduler
	Vehicles  *vehicle.MemoryRegistry
	Meters    *meter.Store

	bus         *eventbus.TypedBus[events.SocChangedEvent]
	socEvents   <-chan events.SocChangedEvent
	client      *mqtt.PahoClient
	sink        coremetrics.MetricsSink
	closers     []io.Closer
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration and connects to the broker.
func New(cfg *config.Config) (*Service, error) {
	logg, err := logger.NewZerologLoggerWithOptions("service", logger.Options{Level: cfg.Logging.Level})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	bus := eventbus.NewTyped[events.SocChangedEvent]()
	meters := meter.NewStore()
	client, err := mqtt.NewPahoClient(cfg.MQTT, bus, meters, logg.With(map[string]any{"module": "mqtt"}))
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("mqtt client: %w", err)
	}
	svc, err := newService(cfg, client, bus, meters, logg)
	if err != nil {
		client.Disconnect()
		bus.Close()
		return nil, err
	}
	svc.client = client
	return svc, nil
}

func newService(cfg *config.Config, control scheduler.Control, bus *eventbus.TypedBus[events.SocChangedEvent], meters *meter.Store, logg logger.Logger) (*Service, error) {
	sink, closers, err := newSink(cfg.Metrics, logg)
	if err != nil {
		return nil, err
	}
	registry := vehicle.NewMemoryRegistry(cfg.Vehicles...)
	sched := scheduler.New(cfg.Scheduler, control, sink, logg.With(map[string]any{"module": "scheduler"}))
	deps := request.Deps{Vehicles: registry, Meters: meters, Log: logg.With(map[string]any{"module": "request"})}
	for _, rc := range cfg.Requests {
		r, err := request.FromConfig(rc, deps)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", rc.ApplianceID, err)
		}
		sched.Add(r)
	}
	logg.Infof("loaded %d vehicles and %d requests", len(cfg.Vehicles), len(cfg.Requests))
	return &Service{
		Scheduler:   sched,
		Vehicles:    registry,
		Meters:      meters,
		bus:         bus,
		socEvents:   bus.Subscribe(),
		sink:        sink,
		closers:     closers,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

func newSink(cfg coremetrics.Config, logg logger.Logger) (coremetrics.MetricsSink, []io.Closer, error) {
	var sinks []coremetrics.MetricsSink
	var closers []io.Closer
	if cfg.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg, logg.With(map[string]any{"module": "influx"}))
		if c, ok := sink.(io.Closer); ok {
			closers = append(closers, c)
		}
		sinks = append(sinks, sink)
	}
	if cfg.KafkaEnabled {
		sink := metrics.NewKafkaSink(cfg, logg.With(map[string]any{"module": "kafka"}))
		closers = append(closers, sink)
		sinks = append(sinks, sink)
	}
	if cfg.LogEvents {
		sinks = append(sinks, metrics.NewLogSink(logg.With(map[string]any{"module": "metrics"})))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, closers, nil
	case 1:
		return sinks[0], closers, nil
	default:
		return metrics.NewMultiSink(sinks...), closers, nil
	}
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			router := api.NewRouter(api.Deps{
				Requests: s.Scheduler,
				Vehicles: s.Vehicles,
				Log:      s.log.With(map[string]any{"module": "http"}),
			})
			if err := metrics.Serve(ctx, s.promPort, router, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	err := s.Scheduler.Run(ctx, s.socEvents)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.client != nil {
		s.client.Disconnect()
	}
	s.bus.Close()
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
