package request

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/evdemand/core/logger"
)

// RuntimeRequest asks for the appliance to run between MinSeconds and
// MaxSeconds. Run time accumulates between updates while enabled.
type RuntimeRequest struct {
	Base

	mu         sync.Mutex
	minSeconds *int
	maxSeconds int
	elapsed    time.Duration
	lastUpdate time.Time
	min        *int
	max        *int
	log        logger.Logger
}

func NewRuntimeRequest(base Base, minSeconds *int, maxSeconds int, log logger.Logger) *RuntimeRequest {
	return &RuntimeRequest{
		Base:       base,
		minSeconds: copyInt(minSeconds),
		maxSeconds: maxSeconds,
		log:        logger.OrNop(log).With(map[string]any{"appliance_id": base.ID, "kind": KindRuntime}),
	}
}

func (r *RuntimeRequest) Kind() string { return KindRuntime }

func (r *RuntimeRequest) Update(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enabled && !r.lastUpdate.IsZero() && now.After(r.lastUpdate) {
		r.elapsed += now.Sub(r.lastUpdate)
	}
	r.lastUpdate = now
	ran := int(r.elapsed / time.Second)
	mn := 0
	if r.minSeconds != nil {
		mn = *r.minSeconds - ran
	}
	if mn < 0 {
		mn = 0
	}
	mx := r.maxSeconds - ran
	r.min, r.max = &mn, &mx
	if mx <= 0 {
		if r.enabled {
			r.log.Debugf("runtime of %ds reached", r.maxSeconds)
		}
		r.setEnabled(false)
	}
}

// Elapsed returns the accumulated run time.
func (r *RuntimeRequest) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

func (r *RuntimeRequest) Min(time.Time) *int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyInt(r.min)
}

func (r *RuntimeRequest) Max(time.Time) *int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyInt(r.max)
}

func (r *RuntimeRequest) IsFinished(time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.max != nil && *r.max <= 0
}

func (r *RuntimeRequest) UsesOptionalEnergy() bool { return false }

func (r *RuntimeRequest) AcceptsControlRecommendations() bool {
	return r.acceptsControlRecommendations()
}

func (r *RuntimeRequest) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *RuntimeRequest) EnabledBefore() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabledBefore
}

// SetEnabled switches the request. Time spent disabled is not counted.
func (r *RuntimeRequest) SetEnabled(enabled bool) {
	r.mu.Lock()
	if enabled != r.enabled {
		r.lastUpdate = time.Time{}
	}
	r.setEnabled(enabled)
	r.mu.Unlock()
}

func (r *RuntimeRequest) Equal(other Request) bool {
	o, ok := other.(*RuntimeRequest)
	if !ok || o == nil {
		return false
	}
	return r.Base.equal(&o.Base) && equalInt(r.minSeconds, o.minSeconds) && r.maxSeconds == o.maxSeconds
}

func (r *RuntimeRequest) Hash() uint64 {
	return hashOf(append(r.hashParts(), KindRuntime, intOrNil(r.minSeconds), r.maxSeconds)...)
}

func (r *RuntimeRequest) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("%s/minRuntime=%ss/maxRuntime=%ds/ran=%s", r.describe(), intOrNil(r.minSeconds), r.maxSeconds, r.elapsed)
}
