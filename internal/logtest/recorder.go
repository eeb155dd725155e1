// Package logtest provides a Logger that records lines for assertions in tests.
package logtest

import (
	"fmt"
	"sync"

	"github.com/kilianp07/evdemand/core/logger"
)

// Entry is a single recorded log line.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]any
}

type sink struct {
	mu      sync.Mutex
	entries []Entry
}

// Recorder implements logger.Logger and keeps every line in memory.
// Children created with With share the parent's lines.
type Recorder struct {
	sink   *sink
	fields map[string]any
}

func New() *Recorder {
	return &Recorder{sink: &sink{}}
}

func merge(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (r *Recorder) add(level, msg string, fields map[string]any) {
	e := Entry{Level: level, Message: msg, Fields: merge(r.fields, fields)}
	r.sink.mu.Lock()
	r.sink.entries = append(r.sink.entries, e)
	r.sink.mu.Unlock()
}

func (r *Recorder) Debugf(format string, args ...any) {
	r.add("debug", fmt.Sprintf(format, args...), nil)
}

func (r *Recorder) Debugw(msg string, fields map[string]any) { r.add("debug", msg, fields) }

func (r *Recorder) Infof(format string, args ...any) {
	r.add("info", fmt.Sprintf(format, args...), nil)
}

func (r *Recorder) Warnf(format string, args ...any) {
	r.add("warn", fmt.Sprintf(format, args...), nil)
}

func (r *Recorder) Errorf(format string, args ...any) {
	r.add("error", fmt.Sprintf(format, args...), nil)
}

func (r *Recorder) With(fields map[string]any) logger.Logger {
	return &Recorder{sink: r.sink, fields: merge(r.fields, fields)}
}

// Entries returns a copy of the recorded lines.
func (r *Recorder) Entries() []Entry {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	return append([]Entry(nil), r.sink.entries...)
}

// Count returns the number of lines recorded at level.
func (r *Recorder) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Reset drops all recorded lines.
func (r *Recorder) Reset() {
	r.sink.mu.Lock()
	r.sink.entries = nil
	r.sink.mu.Unlock()
}
