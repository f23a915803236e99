package sse

import (
	"sync"
)

type Notification map[string]interface{}

// Hub fans notifications out to the open event streams of each user.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[chan Notification]struct{} // key: email
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[chan Notification]struct{})}
}

// Register adds ch as a stream for email. The returned func removes it.
func (h *Hub) Register(email string, ch chan Notification) func() {
	h.mu.Lock()
	subs, ok := h.channels[email]
	if !ok {
		subs = make(map[chan Notification]struct{})
		h.channels[email] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.channels[email]
		if !ok {
			return
		}
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.channels, email)
		}
	}
}

// SendToUser delivers to every stream of email without blocking.
// It reports whether at least one stream accepted the notification.
func (h *Hub) SendToUser(email string, notification Notification) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := false
	for ch := range h.channels[email] {
		select {
		case ch <- notification:
			sent = true
		default:
		}
	}
	return sent
}
