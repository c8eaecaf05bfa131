// internal/room/snapshot.go
package room

import (
	"github.com/google/uuid"
)

// Snapshot is the full serializable room state pushed to subscribers.
// The host binding is deliberately absent: it determines authorization
// and must never reach a non-host observer. Snapshots are idempotent
// full-state messages; Version lets the transport layer drop stale
// deliveries so no subscriber observes the past after the future.
// Epoch identifies the room instance the snapshot came from: versions are
// only comparable within one epoch, since an expired room recreated under
// the same code restarts its version count.
type Snapshot struct {
	Code            string            `json:"code"`
	Epoch           uint64            `json:"epoch"`
	Version         uint64            `json:"version"`
	Phase           Phase             `json:"phase"`
	Locked          bool              `json:"locked"`
	BuzzedID        *uuid.UUID        `json:"buzzed"`
	BuzzedName      *string           `json:"buzzedName"`
	ControlPlayerID *uuid.UUID        `json:"controlPlayerId"`
	Players         []Player          `json:"players"`
	MaxPlayers      int               `json:"maxPlayers"`
	IncorrectBuzzes []uuid.UUID       `json:"incorrectBuzzes"`
	Wagers          map[string]int    `json:"wagers"`
	FinalAnswers    map[string]string `json:"finalAnswers"`
}

// snapshotLocked builds a deep copy of the observable state. Callers hold
// the room lock.
func (r *Room) snapshotLocked() Snapshot {
	snap := Snapshot{
		Code:            r.Code,
		Epoch:           r.epoch,
		Version:         r.version,
		Phase:           r.phase,
		Locked:          r.locked,
		MaxPlayers:      r.maxPlayers,
		Players:         make([]Player, 0, len(r.players)),
		IncorrectBuzzes: make([]uuid.UUID, 0, len(r.incorrectBuzzes)),
		Wagers:          make(map[string]int, len(r.wagers)),
		FinalAnswers:    make(map[string]string, len(r.finalAnswers)),
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, *p)
	}
	for id := range r.incorrectBuzzes {
		snap.IncorrectBuzzes = append(snap.IncorrectBuzzes, id)
	}
	for id, amount := range r.wagers {
		snap.Wagers[id.String()] = amount
	}
	for id, text := range r.finalAnswers {
		snap.FinalAnswers[id.String()] = text
	}
	if r.buzzedID != uuid.Nil {
		id := r.buzzedID
		name := r.buzzedName
		snap.BuzzedID = &id
		snap.BuzzedName = &name
	}
	if r.controlID != uuid.Nil {
		id := r.controlID
		snap.ControlPlayerID = &id
	}
	return snap
}
