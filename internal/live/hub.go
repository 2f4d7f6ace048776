// Package live implements push-based invalidation of read queries. Writers
// report the tables they changed to a Hub, and every Stream watching one of
// those tables re-runs its query and delivers the fresh result.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"vozhatapp/internal/metrics"
)

// Hub fans table change notifications out to the streams watching them.
type Hub struct {
	mu      sync.Mutex
	subs    map[uuid.UUID]*subscriber
	timeout time.Duration
	metrics *metrics.Metrics
}

type subscriber struct {
	tables map[string]struct{}
	signal chan struct{}
}

// NewHub creates a hub. Each query reload is bounded by timeout when it is
// positive.
func NewHub(timeout time.Duration, m *metrics.Metrics) *Hub {
	return &Hub{
		subs:    make(map[uuid.UUID]*subscriber),
		timeout: timeout,
		metrics: m,
	}
}

// Notify marks the given tables as changed.
func (h *Hub) Notify(tables ...string) {
	if h == nil || len(tables) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if !sub.watches(tables) {
			continue
		}
		// A pending signal already guarantees a reload.
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// subscribe registers interest in tables. The signal channel coalesces notifications.
func (h *Hub) subscribe(tables []string) (uuid.UUID, <-chan struct{}) {
	sub := &subscriber{
		tables: make(map[string]struct{}, len(tables)),
		signal: make(chan struct{}, 1),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}
	id := uuid.New()

	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()
	h.metrics.StreamOpened()
	return id, sub.signal
}

// unsubscribe drops a subscription; unknown ids are ignored
func (h *Hub) unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	_, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		h.metrics.StreamClosed()
	}
}

// loadContext bounds one reload by the hub timeout
func (h *Hub) loadContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, h.timeout)
}

func (s *subscriber) watches(tables []string) bool {
	for _, t := range tables {
		if _, ok := s.tables[t]; ok {
			return true
		}
	}
	return false
}
