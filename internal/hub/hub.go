// internal/hub/hub.go
package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kwhittle/quizbuzz/internal/room"
)

// Subscriber is one client's presence on a room's broadcast feed. Outgoing
// messages are queued on a buffered channel and written by the connection's
// write pump; a full channel drops the message rather than blocking the
// room, since snapshots are idempotent full-state and the next one
// supersedes anything lost.
type Subscriber struct {
	ID      uuid.UUID
	Role    string
	OutChan chan map[string]interface{}

	// Snapshot ordering gate. Versions only order snapshots within one
	// room epoch; an epoch change means the room was recreated and the
	// version count restarted, so the gate resets with it.
	gateMu      sync.Mutex
	lastEpoch   uint64
	lastVersion uint64
}

// NewSubscriber builds a subscriber with a buffered outgoing queue.
func NewSubscriber(id uuid.UUID, role string) *Subscriber {
	return &Subscriber{
		ID:      id,
		Role:    role,
		OutChan: make(chan map[string]interface{}, 16),
	}
}

// Write pushes msg onto the subscriber's queue non-blockingly.
func (s *Subscriber) Write(msg map[string]interface{}) {
	select {
	case s.OutChan <- msg:
	default:
		// Queue full or reader gone. The next snapshot carries the full
		// state anyway.
	}
}

// WriteError sends a private error object to this subscriber only.
func (s *Subscriber) WriteError(msg string) {
	s.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

// writeSnapshot delivers snap unless an equal-or-newer version from the same
// room epoch was already queued, preserving per-subscriber snapshot order
// under concurrent publishes. A snapshot from a newer epoch always passes:
// the previous room instance is gone and its version count means nothing for
// the new one.
func (s *Subscriber) writeSnapshot(snap room.Snapshot) {
	s.gateMu.Lock()
	if snap.Epoch < s.lastEpoch || (snap.Epoch == s.lastEpoch && snap.Version <= s.lastVersion) {
		s.gateMu.Unlock()
		return
	}
	s.lastEpoch = snap.Epoch
	s.lastVersion = snap.Version
	s.gateMu.Unlock()

	s.Write(map[string]interface{}{
		"type": "room_state",
		"room": snap,
	})
}

// Hub maintains the many-to-many client-to-room subscription and delivers
// snapshots whenever a room mutates. It never touches room state itself;
// a disconnect only removes the subscriber.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Subscriber]struct{}
	log   *logrus.Logger
}

// New returns an empty hub.
func New(log *logrus.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Subscriber]struct{}),
		log:   log,
	}
}

// Subscribe registers sub on code's feed and immediately delivers the
// current snapshot so a new observer never starts blind.
func (h *Hub) Subscribe(code string, sub *Subscriber, current room.Snapshot) {
	code = room.NormalizeCode(code)
	h.mu.Lock()
	subs, ok := h.rooms[code]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.rooms[code] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	sub.writeSnapshot(current)
	h.log.WithFields(logrus.Fields{
		"room": code,
		"sub":  sub.ID,
		"role": sub.Role,
	}).Debug("subscribed")
}

// Unsubscribe removes sub from code's feed. Room state is untouched;
// player removal is an explicit host command, never a connection side
// effect.
func (h *Hub) Unsubscribe(code string, sub *Subscriber) {
	code = room.NormalizeCode(code)
	h.mu.Lock()
	if subs, ok := h.rooms[code]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, code)
		}
	}
	h.mu.Unlock()
}

// Publish fans snap out to every current subscriber of code. Called by the
// router after the room lock is released.
func (h *Hub) Publish(code string, snap room.Snapshot) {
	code = room.NormalizeCode(code)
	h.mu.Lock()
	targets := make([]*Subscriber, 0, len(h.rooms[code]))
	for sub := range h.rooms[code] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.writeSnapshot(snap)
	}
}

// Subscribers reports the current feed size for code.
func (h *Hub) Subscribers(code string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room.NormalizeCode(code)])
}
