package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/evdemand/core/metrics"
	"github.com/kilianp07/evdemand/infra/logger"
)

// InfluxSink writes request events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string, log logger.Logger) *InfluxSink {
	if log == nil {
		log = logger.New("influx-sink")
	}
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      log,
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config, log logger.Logger) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDemand writes the request snapshot. Requests not evaluated yet
// carry no demand field.
func (s *InfluxSink) RecordDemand(ev coremetrics.DemandEvent) error {
	p := write.NewPointWithMeasurement("request_demand").
		AddTag("appliance_id", ev.ApplianceID).
		AddTag("kind", ev.Kind).
		AddTag("state", ev.State).
		AddField("enabled", ev.Enabled).
		AddField("finished", ev.Finished).
		SetTime(ev.Time)
	if ev.DemandWh != nil {
		p.AddField("demand_wh", *ev.DemandWh)
	}
	return s.write(p)
}

// RecordSocEvent writes a charger SOC report.
func (s *InfluxSink) RecordSocEvent(ev coremetrics.SocEvent) error {
	p := write.NewPointWithMeasurement("charger_soc").
		AddTag("appliance_id", ev.ApplianceID).
		AddField("soc_percent", ev.SocPercent).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordSwitch writes an appliance switch command.
func (s *InfluxSink) RecordSwitch(ev coremetrics.SwitchEvent) error {
	p := write.NewPointWithMeasurement("appliance_switch").
		AddTag("appliance_id", ev.ApplianceID).
		AddTag("success", strconv.FormatBool(ev.Err == nil)).
		AddField("on", ev.On).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}
