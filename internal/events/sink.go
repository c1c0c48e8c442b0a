package events

import "sync"

// Sink receives events in emission order. Implementations must not feed
// back into registry state.
type Sink interface {
	Append(events ...Event)
}

// Log is an in-memory append-only Sink.
//
// Thread-safety: Log is safe for concurrent use.
type Log struct {
	mu     sync.RWMutex
	events []Event
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append implements Sink.
func (l *Log) Append(events ...Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
}

// All returns a copy of every recorded event.
func (l *Log) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// OfKind returns the recorded events of kind k.
func (l *Log) OfKind(k Kind) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, e := range l.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Since returns the events with Seq greater than seq.
func (l *Log) Since(seq uint64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, e := range l.events {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Discard is a Sink that drops everything.
type Discard struct{}

// Append implements Sink.
func (Discard) Append(...Event) {}
