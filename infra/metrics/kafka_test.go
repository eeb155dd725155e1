package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/evdemand/core/metrics"
	"github.com/kilianp07/evdemand/infra/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func decodeRecord(t *testing.T, m kafka.Message) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(m.Value, &out))
	return out
}

func TestKafkaSinkRecords(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, logger.NopLogger{})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, sink.RecordDemand(coremetrics.DemandEvent{ApplianceID: "wallbox", Kind: "soc", State: "active", DemandWh: intPtr(33000), Enabled: true, Time: now}))
	require.NoError(t, sink.RecordSocEvent(coremetrics.SocEvent{ApplianceID: "wallbox", SocPercent: 42.5, Time: now}))
	require.NoError(t, sink.RecordSwitch(coremetrics.SwitchEvent{ApplianceID: "wallbox", On: true, Err: errors.New("offline"), Time: now}))
	require.Len(t, w.msgs, 3)

	assert.Equal(t, []byte("wallbox"), w.msgs[0].Key)
	assert.Equal(t, now, w.msgs[0].Time)
	demand := decodeRecord(t, w.msgs[0])
	assert.Equal(t, "demand", demand["type"])
	assert.Equal(t, 33000.0, demand["demand_wh"])
	assert.Equal(t, true, demand["enabled"])
	assert.Equal(t, false, demand["finished"])

	soc := decodeRecord(t, w.msgs[1])
	assert.Equal(t, "soc", soc["type"])
	assert.Equal(t, 42.5, soc["soc_percent"])
	assert.NotContains(t, soc, "enabled")

	sw := decodeRecord(t, w.msgs[2])
	assert.Equal(t, true, sw["on"])
	assert.Equal(t, "offline", sw["error"])

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSinkPropagatesWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	sink := newKafkaSink(&fakeWriter{err: boom}, logger.NopLogger{})
	assert.ErrorIs(t, sink.RecordDemand(coremetrics.DemandEvent{ApplianceID: "wallbox"}), boom)
}
