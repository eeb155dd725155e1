package request

import (
	"fmt"
	"time"

	"github.com/kilianp07/evdemand/core/meter"
)

// Base holds the fields shared by all request kinds. Start and End bound the
// window in which the request may be activated; zero values leave it open.
// Mutable state is guarded by the embedding request.
type Base struct {
	ID                           string
	Start                        time.Time
	End                          time.Time
	AcceptControlRecommendations *bool
	Meter                        meter.Meter

	enabled       bool
	enabledBefore bool
}

func (b *Base) ApplianceID() string { return b.ID }

// Active reports whether now lies inside the request window.
func (b *Base) Active(now time.Time) bool {
	if !b.Start.IsZero() && now.Before(b.Start) {
		return false
	}
	if !b.End.IsZero() && !now.Before(b.End) {
		return false
	}
	return true
}

func (b *Base) setEnabled(enabled bool) {
	if enabled {
		b.enabledBefore = true
	}
	b.enabled = enabled
}

func (b *Base) acceptsControlRecommendations() bool {
	if b.AcceptControlRecommendations == nil {
		return true
	}
	return *b.AcceptControlRecommendations
}

func (b *Base) equal(o *Base) bool {
	return b.Start.Equal(o.Start) && b.End.Equal(o.End) &&
		b.acceptsControlRecommendations() == o.acceptsControlRecommendations()
}

func (b *Base) hashParts() []any {
	return []any{b.Start.UTC().Format(time.RFC3339Nano), b.End.UTC().Format(time.RFC3339Nano), b.acceptsControlRecommendations()}
}

func (b *Base) describe() string {
	window := "open"
	if !b.Start.IsZero() || !b.End.IsZero() {
		window = fmt.Sprintf("%s-%s", b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s/%s/enabled=%t", b.ID, window, b.enabled)
}
