// Package events defines the events emitted on the internal event bus.
//
// Available event types:
//   - SocChangedEvent: state of charge reported by a charger
package events
