package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/evdemand/core/events"
	"github.com/kilianp07/evdemand/core/logger"
	"github.com/kilianp07/evdemand/core/metrics"
	"github.com/kilianp07/evdemand/core/request"
)

// Control switches an appliance on or off.
type Control interface {
	Switch(applianceID string, on bool) error
}

// NopControl ignores switch commands.
type NopControl struct{}

func (NopControl) Switch(string, bool) error { return nil }

// Scheduler owns the requests of all appliances. Requests of different
// appliances are independent; each request serializes its own state.
type Scheduler struct {
	cfg     Config
	control Control
	sink    metrics.MetricsSink
	log     logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	requests map[string]request.Request
	switched map[string]bool
}

// New creates a Scheduler. A nil control, sink or logger is replaced by a
// no-op implementation.
func New(cfg Config, control Control, sink metrics.MetricsSink, log logger.Logger) *Scheduler {
	cfg.SetDefaults()
	if control == nil {
		control = NopControl{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Scheduler{
		cfg:      cfg,
		control:  control,
		sink:     sink,
		log:      logger.OrNop(log),
		now:      time.Now,
		requests: map[string]request.Request{},
		switched: map[string]bool{},
	}
}

// Add registers r, replacing any request of the same appliance.
func (s *Scheduler) Add(r request.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ApplianceID()]; ok {
		s.log.Infof("replacing request of %s", r.ApplianceID())
	}
	s.requests[r.ApplianceID()] = r
	delete(s.switched, r.ApplianceID())
}

// Remove drops the request of applianceID and reports whether one existed.
func (s *Scheduler) Remove(applianceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.requests[applianceID]
	delete(s.requests, applianceID)
	delete(s.switched, applianceID)
	return ok
}

// Get returns the request of applianceID.
func (s *Scheduler) Get(applianceID string) (request.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[applianceID]
	return r, ok
}

// Requests returns the registered requests ordered by appliance.
func (s *Scheduler) Requests() []request.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]request.Request, 0, len(s.requests))
	for _, r := range s.requests {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ApplianceID() < res[j].ApplianceID() })
	return res
}

// Tick activates requests whose window contains now, updates all requests and
// propagates enabled changes to the appliance control.
func (s *Scheduler) Tick(now time.Time) {
	for _, r := range s.Requests() {
		if !r.EnabledBefore() && r.Active(now) {
			s.log.Infof("activating %s", r)
			r.SetEnabled(true)
		}
		r.Update(now)
		s.sync(r, now)
	}
}

// HandleSoc routes a charger SOC report to the request of its appliance.
func (s *Scheduler) HandleSoc(ev events.SocChangedEvent) {
	r, ok := s.Get(ev.ApplianceID)
	if !ok {
		s.log.Debugf("soc report for unknown appliance %s", ev.ApplianceID)
		return
	}
	obs, ok := r.(request.SocObserver)
	if !ok {
		s.log.Debugf("request of %s ignores soc reports", ev.ApplianceID)
		return
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	obs.OnSocObserved(ts, ev.SocPercent)
	s.sync(r, ts)
}

func (s *Scheduler) sync(r request.Request, now time.Time) {
	id := r.ApplianceID()
	enabled := r.Enabled()
	finished := r.IsFinished(now)

	s.mu.Lock()
	prev, known := s.switched[id]
	current, registered := s.requests[id]
	s.mu.Unlock()
	if !registered || current != r {
		return
	}

	if !known || prev != enabled {
		err := s.control.Switch(id, enabled)
		if err != nil {
			s.log.Errorf("switch %s on=%t: %v", id, enabled, err)
		} else {
			s.mu.Lock()
			s.switched[id] = enabled
			s.mu.Unlock()
		}
		if rec, ok := s.sink.(metrics.SwitchRecorder); ok {
			_ = rec.RecordSwitch(metrics.SwitchEvent{ApplianceID: id, On: enabled, Err: err, Time: now})
		}
	}

	if err := s.sink.RecordDemand(metrics.DemandEvent{
		ApplianceID: id,
		Kind:        r.Kind(),
		State:       request.StateOf(r, now).String(),
		DemandWh:    r.Max(now),
		Enabled:     enabled,
		Finished:    finished,
		Time:        now,
	}); err != nil {
		s.log.Errorf("record demand: %v", err)
	}

	if finished && !enabled && s.cfg.RemoveFinished {
		s.log.Infof("request of %s finished: %s", id, r)
		s.mu.Lock()
		if s.requests[id] == r {
			delete(s.requests, id)
			delete(s.switched, id)
		}
		s.mu.Unlock()
	}
}

// Run ticks every TickInterval and handles SOC reports from socEvents until
// ctx is cancelled or socEvents is closed.
func (s *Scheduler) Run(ctx context.Context, socEvents <-chan events.SocChangedEvent) error {
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()
	s.Tick(s.now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			s.Tick(t)
		case ev, ok := <-socEvents:
			if !ok {
				return nil
			}
			s.HandleSoc(ev)
		}
	}
}
