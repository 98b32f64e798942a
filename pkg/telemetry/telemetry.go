// Package telemetry fans flow lifecycle events out to in-process subscribers
// (UIs, the archive service's event stream). Delivery is best-effort: slow
// subscribers drop events rather than stalling the flow.
package telemetry

import (
	"sync"
	"time"
)

// EventType identifies the kind of telemetry event.
type EventType string

const (
	EventNavigationStarted EventType = "navigation.started"
	EventNavigationReady   EventType = "navigation.ready"
	EventNavigationEnded   EventType = "navigation.ended"
	EventTimespanStarted   EventType = "timespan.started"
	EventTimespanEnded     EventType = "timespan.ended"
	EventSnapshotCaptured  EventType = "snapshot.captured"
	EventStepAppended      EventType = "step.appended"
	EventFlowAudited       EventType = "flow.audited"
	EventReportGenerated   EventType = "report.generated"
	EventArchiveSaved      EventType = "archive.saved"
	EventArchiveDeleted    EventType = "archive.deleted"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 64

// Event describes one flow lifecycle occurrence.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flowId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Hub fan-outs events to any number of subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

// NewHub constructs an event hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan Event]struct{})}
}

// Publish notifies all subscribers of an event. Non-blocking; drops if a
// subscriber's buffer is full. Nil-safe so emitters can skip the nil check.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			// Drop if the subscriber can't keep up; never block a flow.
		}
	}
}

// Subscribe returns a channel that will receive future events and a cleanup
// func. Subscribing to a closed hub yields an already-closed channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		empty := make(chan Event)
		close(empty)
		return empty, func() {}
	}
	ch := make(chan Event, subscriberBuffer)
	h.subscribers[ch] = struct{}{}
	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Close unsubscribes all listeners and prevents future publications.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}
