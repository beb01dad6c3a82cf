// Package events carries session notifications from the engine to any number
// of observers (CLI spinner, batch UI, tests).
//
// Publishing never blocks the session goroutine: a subscriber whose buffer
// is full misses the event and the bus counts the drop.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/talysviz/talysrun/internal/constants"
)

// Kind names an event type.
type Kind string

const (
	KindStateChange Kind = "state_change"
	KindProgress    Kind = "progress"
	KindWarning     Kind = "warning"
	KindFailed      Kind = "failed"
	KindCompleted   Kind = "completed"
	KindCancelled   Kind = "cancelled"
)

// Terminal reports whether k is the last event a session publishes.
func (k Kind) Terminal() bool {
	return k == KindFailed || k == KindCompleted || k == KindCancelled
}

// Event is implemented by every event the bus carries.
type Event interface {
	Kind() Kind
	Session() string
	Timestamp() time.Time
}

// Header holds the fields every event shares.
type Header struct {
	EventKind Kind
	SessionID string
	Time      time.Time
}

func (h Header) Kind() Kind           { return h.EventKind }
func (h Header) Session() string      { return h.SessionID }
func (h Header) Timestamp() time.Time { return h.Time }

// NewHeader stamps a header with the current time.
func NewHeader(kind Kind, sessionID string) Header {
	return Header{EventKind: kind, SessionID: sessionID, Time: time.Now()}
}

// StateChange is published on every session state transition.
type StateChange struct {
	Header
	From string
	To   string
}

// Progress carries a status line. Elapsed is set only for heartbeats
// published while the executable runs.
type Progress struct {
	Header
	State   string
	Message string
	Elapsed time.Duration
}

// Warning reports a problem that does not change the outcome, such as a
// failed workspace archive.
type Warning struct {
	Header
	Message string
	Err     error
}

// Failed is published once when a session ends in Failed.
type Failed struct {
	Header
	State string // state the failure was raised from
	Err   error
}

// Completed is published once when a session ends in Completed.
type Completed struct {
	Header
	Elapsed     time.Duration
	OutputFiles int
	Datasets    int
	Warnings    int
}

// Cancelled is published once when a session ends in Cancelled.
type Cancelled struct {
	Header
	State string
}

type subscriber struct {
	ch    chan Event
	kinds map[Kind]struct{} // nil receives every kind
}

func (s *subscriber) wants(k Kind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// Bus fans events out to subscribers.
type Bus struct {
	mu      sync.RWMutex
	subs    []*subscriber
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// NewBus creates a bus whose subscriber channels hold buffer events. Zero or
// negative means the default; values above the maximum are clamped.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = constants.EventBusDefaultBuffer
	}
	if buffer > constants.EventBusMaxBuffer {
		buffer = constants.EventBusMaxBuffer
	}
	return &Bus{buffer: buffer}
}

// Subscribe returns a channel receiving the given kinds, or every kind when
// none are given. On a closed bus the channel is already closed.
func (b *Bus) Subscribe(kinds ...Kind) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	sub := &subscriber{ch: make(chan Event, b.buffer)}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}
	b.subs = append(b.subs, sub)
	return sub.ch
}

// Unsubscribe stops delivery to ch and closes it. Unknown channels are
// ignored.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Publish delivers ev to every interested subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if !sub.wants(ev.Kind()) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close closes every subscriber channel. Later publishes are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}

// Dropped returns how many deliveries were skipped on full buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// StateChanged publishes a transition.
func (b *Bus) StateChanged(sessionID, from, to string) {
	b.Publish(&StateChange{Header: NewHeader(KindStateChange, sessionID), From: from, To: to})
}

// Progressed publishes a status line.
func (b *Bus) Progressed(sessionID, state, message string, elapsed time.Duration) {
	b.Publish(&Progress{Header: NewHeader(KindProgress, sessionID), State: state, Message: message, Elapsed: elapsed})
}

// Warn publishes a non-fatal problem.
func (b *Bus) Warn(sessionID, message string, err error) {
	b.Publish(&Warning{Header: NewHeader(KindWarning, sessionID), Message: message, Err: err})
}
