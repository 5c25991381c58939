package observability

import "log"

// Event is one human-readable progress notice. The dashboard consumer
// lives outside this process.
type Event struct {
	Kind    string // CANDIDATE | REJECTED | ACQUIRED | POOL_CREATED | EXIT | ERROR
	Mint    string
	Message string
}

// Sink receives engine events.
type Sink interface {
	Emit(e Event)
}

// LogSink writes events to the process log.
type LogSink struct{}

// Compile-time interface check.
var _ Sink = LogSink{}

func (LogSink) Emit(e Event) {
	if e.Mint != "" {
		log.Printf("[%s] %s: %s", e.Kind, e.Mint, e.Message)
		return
	}
	log.Printf("[%s] %s", e.Kind, e.Message)
}

// NopSink discards events; used in tests.
type NopSink struct{}

var _ Sink = NopSink{}

func (NopSink) Emit(Event) {}
