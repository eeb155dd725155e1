package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/evdemand/core/events"
	coremetrics "github.com/kilianp07/evdemand/core/metrics"
	"github.com/kilianp07/evdemand/internal/eventbus"
)

// StartEventCollector subscribes to the SOC event bus and records every report
// on sink. It stops when the context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.SocChangedEvent], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.SocRecorder)
	if !ok {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				ts := ev.Timestamp
				if ts.IsZero() {
					ts = time.Now()
				}
				_ = rec.RecordSocEvent(coremetrics.SocEvent{ApplianceID: ev.ApplianceID, SocPercent: ev.SocPercent, Time: ts})
			}
		}
	}()
}
