package service

import (
	"sync"

	"sanchari/pkg/core/verification/model"
)

// Hub fans out account change snapshots to per-user subscriptions.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription is a handle on one user's account change. Updates delivers the
// latest snapshot; a nil snapshot means the change was discarded. Slow
// readers only ever see the newest value.
type Subscription struct {
	hub     *Hub
	userUID string

	mu      sync.Mutex
	current *model.PendingChange
	updates chan *model.PendingChange
	closed  bool
}

// Subscribe starts watching userUID. current seeds Current().
func (h *Hub) Subscribe(userUID string, current *model.PendingChange) *Subscription {
	s := &Subscription{
		hub:     h,
		userUID: userUID,
		current: current.Clone(),
		updates: make(chan *model.PendingChange, 1),
	}
	h.mu.Lock()
	if h.subs[userUID] == nil {
		h.subs[userUID] = make(map[*Subscription]struct{})
	}
	h.subs[userUID][s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Publish hands change to every subscriber of userUID without blocking.
func (h *Hub) Publish(userUID string, change *model.PendingChange) {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs[userUID]))
	for s := range h.subs[userUID] {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.deliver(change.Clone())
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[s.userUID], s)
	if len(h.subs[s.userUID]) == 0 {
		delete(h.subs, s.userUID)
	}
}

// Subscribers reports how many live subscriptions watch userUID.
func (h *Hub) Subscribers(userUID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userUID])
}

func (s *Subscription) deliver(change *model.PendingChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.current = change
	select {
	case s.updates <- change:
	default:
		// drop the stale snapshot, keep the newest
		select {
		case <-s.updates:
		default:
		}
		s.updates <- change
	}
}

// Current returns the last known snapshot, nil when there is no change.
func (s *Subscription) Current() *model.PendingChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *Subscription) Updates() <-chan *model.PendingChange {
	return s.updates
}

// Unsubscribe stops delivery and closes Updates. It is safe to call twice.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.updates)
	s.mu.Unlock()

	s.hub.remove(s)
}
