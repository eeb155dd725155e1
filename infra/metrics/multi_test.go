package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/evdemand/core/metrics"
	"github.com/kilianp07/evdemand/internal/logtest"
)

type countSink struct {
	count int
	err   error
}

func (r *countSink) RecordDemand(coremetrics.DemandEvent) error {
	r.count++
	return r.err
}

func (r *countSink) RecordSwitch(coremetrics.SwitchEvent) error {
	r.count++
	return r.err
}

func TestMultiSink(t *testing.T) {
	s1 := &countSink{}
	s2 := &countSink{}
	m := NewMultiSink(s1, s2, demandOnly{})
	require.NoError(t, m.RecordDemand(coremetrics.DemandEvent{}))
	require.NoError(t, m.RecordSwitch(coremetrics.SwitchEvent{}))
	require.NoError(t, m.RecordSocEvent(coremetrics.SocEvent{}))
	assert.Equal(t, 2, s1.count)
	assert.Equal(t, 2, s2.count)
}

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &countSink{err: boom}
	s2 := &countSink{}
	m := NewMultiSink(s1, s2)
	assert.ErrorIs(t, m.RecordDemand(coremetrics.DemandEvent{}), boom)
	assert.Equal(t, 0, s2.count)
}

func TestLogSink(t *testing.T) {
	rec := logtest.New()
	s := NewLogSink(rec)
	require.NoError(t, s.RecordDemand(coremetrics.DemandEvent{ApplianceID: "wallbox", DemandWh: intPtr(1200)}))
	require.NoError(t, s.RecordSocEvent(coremetrics.SocEvent{ApplianceID: "wallbox", SocPercent: 40}))
	require.NoError(t, s.RecordSwitch(coremetrics.SwitchEvent{ApplianceID: "wallbox", On: true}))
	require.NoError(t, s.RecordSwitch(coremetrics.SwitchEvent{ApplianceID: "wallbox", Err: errors.New("offline")}))
	assert.Equal(t, 2, rec.Count("debug"))
	assert.Equal(t, 1, rec.Count("info"))
	assert.Equal(t, 1, rec.Count("warn"))
}
