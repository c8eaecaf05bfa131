// internal/room/router.go
package room

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Broadcaster fans a snapshot out to every subscriber of a room. The router
// calls it only after a successful mutation, with the snapshot that was
// captured while the room lock was held, so delivery never runs under the
// lock and rejected commands are never broadcast.
type Broadcaster interface {
	Publish(code string, snap Snapshot)
}

// Router resolves the target room, authorizes the command against the
// room's host binding, applies it, and triggers the broadcast. Rejections
// are returned to the caller only.
type Router struct {
	registry    *Registry
	broadcaster Broadcaster
	log         *logrus.Logger
}

// NewRouter wires a router to its registry and broadcast layer.
func NewRouter(registry *Registry, broadcaster Broadcaster, log *logrus.Logger) *Router {
	return &Router{registry: registry, broadcaster: broadcaster, log: log}
}

// Dispatch applies cmd to the room named by code on behalf of caller.
// Host-only commands require caller to hold the room's host binding;
// an unclaimed room rejects them too, so a room cannot be driven before
// its host has claimed it.
func (rt *Router) Dispatch(code string, caller uuid.UUID, cmd Command) (Snapshot, error) {
	r := rt.registry.GetOrCreate(code)

	if HostOnly(cmd) && !r.IsHost(caller) {
		rt.log.WithFields(logrus.Fields{
			"room":   r.Code,
			"caller": caller,
			"cmd":    fmt.Sprintf("%T", cmd),
		}).Debug("host-only command rejected")
		return Snapshot{}, ErrNotHost
	}

	var snap Snapshot
	var err error
	switch c := cmd.(type) {
	case ClaimHost:
		snap, err = r.ClaimHost(caller)
	case Join:
		snap, err = r.Join(caller, c.Name)
	case Buzz:
		snap = r.Buzz(caller)
	case Lock:
		snap = r.Lock()
	case Unlock:
		snap = r.Unlock()
	case Reset:
		snap = r.Reset()
	case ClearForRetry:
		snap = r.ClearForRetry()
	case MarkCorrect:
		snap = r.MarkCorrect(c.PlayerID, c.Points)
	case MarkWrong:
		snap = r.MarkWrong(c.PlayerID, c.Points)
	case UpdatePlayer:
		snap = r.UpdatePlayer(c.PlayerID, c.Name, c.Score)
	case RemovePlayer:
		snap = r.RemovePlayer(c.PlayerID)
	case AddBot:
		snap, err = r.AddBot()
	case SetMaxPlayers:
		snap = r.SetMaxPlayers(c.Max)
	case SubmitWager:
		snap = r.SubmitWager(caller, c.Amount)
	case SubmitAnswer:
		snap = r.SubmitAnswer(caller, c.Text)
	case ClearWagers:
		snap = r.ClearWagers()
	case SetPhase:
		snap = r.SetPhase(c.Phase)
	default:
		return Snapshot{}, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
	if err != nil {
		return Snapshot{}, err
	}

	rt.broadcaster.Publish(r.Code, snap)
	return snap, nil
}
