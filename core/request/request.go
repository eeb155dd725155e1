package request

import (
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Request kinds.
const (
	KindSoc     = "soc"
	KindEnergy  = "energy"
	KindRuntime = "runtime"
)

// ErrUnknownKind is returned for a request configuration with an unsupported kind.
var ErrUnknownKind = errors.New("unknown request kind")

// Request is the contract the scheduler polls. Min and Max return nil until
// the request has been evaluated at least once.
type Request interface {
	ApplianceID() string
	Kind() string
	Active(now time.Time) bool
	Min(now time.Time) *int
	Max(now time.Time) *int
	IsFinished(now time.Time) bool
	Update(now time.Time)
	UsesOptionalEnergy() bool
	AcceptsControlRecommendations() bool
	Enabled() bool
	EnabledBefore() bool
	SetEnabled(enabled bool)
	Equal(other Request) bool
	Hash() uint64
	String() string
}

// SocObserver is implemented by requests reacting to state of charge reports
// from the charger.
type SocObserver interface {
	OnSocObserved(now time.Time, socPercent float64)
}

// State is the evaluation state of a request.
type State int

const (
	StatePending State = iota
	StateActive
	StateFinished
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateOf derives the state of r at now.
func StateOf(r Request, now time.Time) State {
	if r.Max(now) == nil {
		return StatePending
	}
	if r.IsFinished(now) {
		return StateFinished
	}
	return StateActive
}

func hashOf(parts ...any) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = fmt.Fprint(d, p)
		_, _ = d.WriteString("|")
	}
	return d.Sum64()
}

func intOrNil(p *int) string {
	if p == nil {
		return "nil"
	}
	return fmt.Sprint(*p)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
