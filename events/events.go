// Package events defines the append-only audit trail emitted by the registry
// and the round engine. Events exist for external visibility only, protocol
// correctness never depends on them.
package events

import (
	"sync"
	"time"
)

// Kind tags the protocol action an event records.
type Kind string

const (
	KindRegistration      Kind = "registration"
	KindFreeze            Kind = "freeze"
	KindUnfreeze          Kind = "unfreeze"
	KindRoundCreated      Kind = "round_created"
	KindPhaseAdvanced     Kind = "phase_advanced"
	KindCommit            Kind = "commit"
	KindSenderDetermined  Kind = "sender_determined"
	KindReceiverDisclosed Kind = "receiver_disclosed"
)

// Event is one audit record. Data carries kind specific attributes as
// strings, for example roots in decimal or addresses in hex.
type Event struct {
	Kind Kind              `json:"kind" cbor:"0,keyasint"`
	Time time.Time         `json:"time" cbor:"1,keyasint"`
	Data map[string]string `json:"data,omitempty" cbor:"2,keyasint,omitempty"`
}

// New returns an event of the given kind stamped with the current time.
func New(kind Kind, data map[string]string) Event {
	return Event{Kind: kind, Time: time.Now(), Data: data}
}

// Sink receives audit events. Emit must not block the caller; failures are
// the sink's own concern.
type Sink interface {
	Emit(e Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Tagged returns a sink that stamps fixed attributes onto every event
// before forwarding it, leaving the original event untouched.
func Tagged(sink Sink, tags map[string]string) Sink {
	return SinkFunc(func(e Event) {
		data := make(map[string]string, len(e.Data)+len(tags))
		for k, v := range e.Data {
			data[k] = v
		}
		for k, v := range tags {
			data[k] = v
		}
		e.Data = data
		sink.Emit(e)
	})
}

// Multi fans events out to several sinks in order.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// MemLog is an in-memory append-only sink, safe for concurrent use.
type MemLog struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemLog returns an empty in-memory event log.
func NewMemLog() *MemLog {
	return &MemLog{}
}

func (l *MemLog) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Len returns the number of recorded events.
func (l *MemLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Events returns a copy of the recorded events in emission order.
func (l *MemLog) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
