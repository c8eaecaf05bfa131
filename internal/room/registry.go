// internal/room/registry.go
package room

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Registry manages active rooms in memory, keyed by uppercased code.
// It is created at process start and injected wherever rooms are needed;
// there is no package-level instance. Rooms are created lazily on first
// reference and, unless an idle timeout is configured, live until the
// process ends.
type Registry struct {
	mu                sync.Mutex
	rooms             map[string]*Room
	defaultMaxPlayers int
	log               *logrus.Logger
}

// NewRegistry returns an empty registry. defaultMaxPlayers seeds the
// capacity bound of every room it creates.
func NewRegistry(defaultMaxPlayers int, log *logrus.Logger) *Registry {
	return &Registry{
		rooms:             make(map[string]*Room),
		defaultMaxPlayers: defaultMaxPlayers,
		log:               log,
	}
}

// NormalizeCode uppercases and trims a room code. Codes are
// case-insensitive at every boundary.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetOrCreate returns the room for code, creating it on first reference.
func (reg *Registry) GetOrCreate(code string) *Room {
	code = NormalizeCode(code)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[code]; ok {
		return r
	}
	r := New(code, reg.defaultMaxPlayers)
	reg.rooms[code] = r
	reg.log.WithField("room", code).Info("room created")
	return r
}

// Get returns the room for code if it exists.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[NormalizeCode(code)]
	return r, ok
}

// Len reports the number of active rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Expire removes rooms idle for longer than maxIdle and returns how many
// were dropped. Subscribers of an expired room keep their connections and go
// quiet until a command recreates the room; the fresh instance carries a new
// epoch, so its snapshots reach them despite the restarted version count.
func (reg *Registry) Expire(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	removed := 0
	for code, r := range reg.rooms {
		if r.LastActive().Before(cutoff) {
			delete(reg.rooms, code)
			removed++
			reg.log.WithField("room", code).Info("room expired")
		}
	}
	return removed
}

// Run sweeps idle rooms every interval until ctx is cancelled. A maxIdle
// of zero disables expiry entirely, matching the session-scoped deployment
// default where rooms are never collected.
func (reg *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.Expire(maxIdle)
		}
	}
}
