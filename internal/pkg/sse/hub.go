package sse

import (
	"sync"
)

// Event is a progress event for one reconciliation run.
type Event struct {
	RunID string
	Event string
	Data  interface{}
}

// Hub manages SSE subscribers and event broadcasting, keyed by run id.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber for a run and returns the event channel
// and a cleanup function.
func (h *Hub) Subscribe(runID string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)

	if h.subscribers[runID] == nil {
		h.subscribers[runID] = make(map[chan Event]struct{})
	}
	h.subscribers[runID][ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers[runID], ch)
		close(ch)
		if len(h.subscribers[runID]) == 0 {
			delete(h.subscribers, runID)
		}
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers of a run. Slow subscribers are
// skipped rather than blocking the publisher.
func (h *Hub) Publish(runID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[runID]; ok {
		for ch := range subs {
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers for a run.
func (h *Hub) SubscriberCount(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[runID]; ok {
		return len(subs)
	}
	return 0
}
