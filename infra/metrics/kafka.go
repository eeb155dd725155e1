package metrics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	coremetrics "github.com/kilianp07/evdemand/core/metrics"
	"github.com/kilianp07/evdemand/infra/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes request events as JSON records keyed by appliance id.
type KafkaSink struct {
	w       messageWriter
	log     logger.Logger
	timeout time.Duration
}

type kafkaRecord struct {
	Type        string    `json:"type"`
	ApplianceID string    `json:"appliance_id"`
	Time        time.Time `json:"time"`
	Kind        string    `json:"kind,omitempty"`
	State       string    `json:"state,omitempty"`
	DemandWh    *int      `json:"demand_wh,omitempty"`
	Enabled     *bool     `json:"enabled,omitempty"`
	Finished    *bool     `json:"finished,omitempty"`
	SocPercent  *float64  `json:"soc_percent,omitempty"`
	On          *bool     `json:"on,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// NewKafkaSink creates a sink writing to cfg.KafkaTopic on cfg.KafkaBrokers.
func NewKafkaSink(cfg coremetrics.Config, log logger.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaSink(w, log)
}

func newKafkaSink(w messageWriter, log logger.Logger) *KafkaSink {
	if log == nil {
		log = logger.New("kafka-sink")
	}
	return &KafkaSink{w: w, log: log, timeout: 10 * time.Second}
}

func (s *KafkaSink) write(rec kafkaRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.w.WriteMessages(ctx, kafka.Message{Key: []byte(rec.ApplianceID), Value: b, Time: rec.Time})
}

func (s *KafkaSink) RecordDemand(ev coremetrics.DemandEvent) error {
	return s.write(kafkaRecord{
		Type:        "demand",
		ApplianceID: ev.ApplianceID,
		Time:        ev.Time,
		Kind:        ev.Kind,
		State:       ev.State,
		DemandWh:    ev.DemandWh,
		Enabled:     &ev.Enabled,
		Finished:    &ev.Finished,
	})
}

func (s *KafkaSink) RecordSocEvent(ev coremetrics.SocEvent) error {
	return s.write(kafkaRecord{Type: "soc", ApplianceID: ev.ApplianceID, Time: ev.Time, SocPercent: &ev.SocPercent})
}

func (s *KafkaSink) RecordSwitch(ev coremetrics.SwitchEvent) error {
	rec := kafkaRecord{Type: "switch", ApplianceID: ev.ApplianceID, Time: ev.Time, On: &ev.On}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}
	return s.write(rec)
}

// Close flushes pending messages and closes the writer.
func (s *KafkaSink) Close() error { return s.w.Close() }
