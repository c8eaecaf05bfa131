// internal/room/room.go
package room

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// epochCounter issues a process-unique generation to every room instance.
// A room recreated under the same code after an idle expiry gets a fresh
// epoch, so downstream version gates can tell its snapshots apart from the
// previous incarnation's.
var epochCounter atomic.Uint64

// Player is one roster entry. Bots are ordinary players with a synthesized
// identity; they buzz never but score like anyone else.
type Player struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Score int       `json:"score"`
	Bot   bool      `json:"bot,omitempty"`
}

// Room is the authoritative per-code aggregate. Every exported method locks,
// applies its mutation atomically, and returns the full post-mutation
// snapshot, so observers never see a partial write. The host binding is
// set once (first claim wins) and is immutable afterwards.
type Room struct {
	Code string

	mu              sync.Mutex
	hostID          uuid.UUID // uuid.Nil until claimed
	maxPlayers      int
	players         []*Player
	locked          bool
	buzzedID        uuid.UUID
	buzzedName      string
	incorrectBuzzes map[uuid.UUID]struct{}
	controlID       uuid.UUID
	phase           Phase
	wagers          map[uuid.UUID]int
	finalAnswers    map[uuid.UUID]string

	epoch      uint64
	version    uint64
	lastActive time.Time
}

// New creates a room in its initial state: buzzer locked, empty roster,
// board phase. Codes are stored uppercased by the registry.
func New(code string, maxPlayers int) *Room {
	return &Room{
		Code:            code,
		epoch:           epochCounter.Add(1),
		maxPlayers:      maxPlayers,
		locked:          true,
		phase:           PhaseBoard,
		incorrectBuzzes: make(map[uuid.UUID]struct{}),
		wagers:          make(map[uuid.UUID]int),
		finalAnswers:    make(map[uuid.UUID]string),
		lastActive:      time.Now(),
	}
}

// touch records activity and bumps the snapshot version. Callers hold the lock.
func (r *Room) touch() {
	r.version++
	r.lastActive = time.Now()
}

// LastActive reports the time of the most recent accepted command, for the
// registry's idle sweep.
func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// IsHost reports whether id holds the room's host binding. An unclaimed
// room has no host, so this is false for every identity.
func (r *Room) IsHost(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID != uuid.Nil && r.hostID == id
}

// ClaimHost binds the room's host role to id. First claim wins; repeating
// the claim with the same identity is an idempotent reconnect. A different
// identity gets ErrHostAlreadyClaimed and the room is untouched.
func (r *Room) ClaimHost(id uuid.UUID) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.hostID {
	case uuid.Nil:
		r.hostID = id
		r.touch()
	case id:
		// reconnect, nothing to change
	default:
		return Snapshot{}, ErrHostAlreadyClaimed
	}
	return r.snapshotLocked(), nil
}

// Join adds a player or renames an existing one. Rejoining an existing
// identity always succeeds regardless of occupancy; a brand-new identity
// is rejected with ErrRoomFull once the roster is at capacity.
func (r *Room) Join(id uuid.UUID, name string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.findPlayerLocked(id); p != nil {
		p.Name = name
		r.touch()
		return r.snapshotLocked(), nil
	}
	if len(r.players) >= r.maxPlayers {
		return Snapshot{}, ErrRoomFull
	}
	r.players = append(r.players, &Player{ID: id, Name: r.dedupeNameLocked(name), Score: 0})
	r.touch()
	return r.snapshotLocked(), nil
}

// AddBot appends a synthetic player. Bots count against the capacity bound
// the same as human joins.
func (r *Room) AddBot() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) >= r.maxPlayers {
		return Snapshot{}, ErrRoomFull
	}
	bot := &Player{
		ID:    uuid.New(),
		Name:  fmt.Sprintf("Player %d", len(r.players)+1),
		Score: 0,
		Bot:   true,
	}
	r.players = append(r.players, bot)
	r.touch()
	return r.snapshotLocked(), nil
}

// Buzz records id as the buzz winner iff the buzzer is open, nobody has won
// yet, and id has not already been ruled wrong on the current clue. Losing
// the race is a silent no-op, not an error; late callers simply observe the
// existing winner in the returned snapshot.
func (r *Room) Buzz(id uuid.UUID) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked || r.buzzedID != uuid.Nil {
		return r.snapshotLocked()
	}
	if _, out := r.incorrectBuzzes[id]; out {
		return r.snapshotLocked()
	}
	r.buzzedID = id
	r.buzzedName = "Unknown"
	if p := r.findPlayerLocked(id); p != nil {
		r.buzzedName = p.Name
	}
	r.locked = true
	r.touch()
	return r.snapshotLocked()
}

// Lock closes the buzzer without touching the recorded winner.
func (r *Room) Lock() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
	r.touch()
	return r.snapshotLocked()
}

// Unlock opens the buzzer. It deliberately does not clear a recorded
// winner; that is Reset's job.
func (r *Room) Unlock() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = false
	r.touch()
	return r.snapshotLocked()
}

// Reset prepares the buzzer for a brand-new clue: winner cleared, the
// incorrect set emptied, buzzer locked until the host opens it.
func (r *Room) Reset() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
	r.touch()
	return r.snapshotLocked()
}

func (r *Room) resetLocked() {
	r.buzzedID = uuid.Nil
	r.buzzedName = ""
	r.incorrectBuzzes = make(map[uuid.UUID]struct{})
	r.locked = true
}

// ClearForRetry is the mid-clue variant of Reset: the current winner (if
// any) joins the incorrect set, the winner slot clears, and the buzzer
// re-opens immediately for the remaining eligible players.
func (r *Room) ClearForRetry() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearForRetryLocked()
	r.touch()
	return r.snapshotLocked()
}

func (r *Room) clearForRetryLocked() {
	if r.buzzedID != uuid.Nil {
		r.incorrectBuzzes[r.buzzedID] = struct{}{}
	}
	r.buzzedID = uuid.Nil
	r.buzzedName = ""
	r.locked = false
}

// MarkCorrect awards points to id, grants it board control, and resets the
// buzzer for the next clue. Unknown identities still reset the clue but
// score nothing.
func (r *Room) MarkCorrect(id uuid.UUID, points int) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.findPlayerLocked(id); p != nil {
		p.Score += points
		r.controlID = id
	}
	r.resetLocked()
	r.touch()
	return r.snapshotLocked()
}

// MarkWrong deducts points from id, rules it out for the current clue, and
// re-opens the buzzer for everyone still eligible.
func (r *Room) MarkWrong(id uuid.UUID, points int) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.findPlayerLocked(id); p != nil {
		p.Score -= points
		r.incorrectBuzzes[id] = struct{}{}
	}
	r.clearForRetryLocked()
	r.touch()
	return r.snapshotLocked()
}

// UpdatePlayer applies a partial name/score patch to an existing player.
// An absent target is a no-op, not an error.
func (r *Room) UpdatePlayer(id uuid.UUID, name *string, score *int) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.findPlayerLocked(id); p != nil {
		if name != nil {
			p.Name = *name
		}
		if score != nil {
			p.Score = *score
		}
		r.touch()
	}
	return r.snapshotLocked()
}

// RemovePlayer drops the matching roster entry if present.
func (r *Room) RemovePlayer(id uuid.UUID) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			r.touch()
			break
		}
	}
	return r.snapshotLocked()
}

// SetMaxPlayers replaces the capacity bound. Players already over a lowered
// cap are not evicted.
func (r *Room) SetMaxPlayers(n int) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxPlayers = n
	r.touch()
	return r.snapshotLocked()
}

// SubmitWager stores a wager for id, last write wins. Bounds checking
// (wager vs current score) is a client concern.
func (r *Room) SubmitWager(id uuid.UUID, amount int) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wagers[id] = amount
	r.touch()
	return r.snapshotLocked()
}

// SubmitAnswer stores a final-round answer for id, last write wins.
func (r *Room) SubmitAnswer(id uuid.UUID, text string) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalAnswers[id] = text
	r.touch()
	return r.snapshotLocked()
}

// ClearWagers empties the wager and answer maps. The host calls this at
// phase boundaries; the core never clears them automatically.
func (r *Room) ClearWagers() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wagers = make(map[uuid.UUID]int)
	r.finalAnswers = make(map[uuid.UUID]string)
	r.touch()
	return r.snapshotLocked()
}

// SetPhase moves the game-progress marker unconditionally.
func (r *Room) SetPhase(p Phase) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = p
	r.touch()
	return r.snapshotLocked()
}

// Snapshot returns the current full state without mutating anything.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) findPlayerLocked(id uuid.UUID) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// dedupeNameLocked suffixes a colliding display name with " (n)". Purely a
// presentation nicety; uniqueness is not an invariant.
func (r *Room) dedupeNameLocked(name string) string {
	taken := func(n string) bool {
		for _, p := range r.players {
			if strings.EqualFold(p.Name, n) {
				return true
			}
		}
		return false
	}
	candidate := name
	for suffix := 1; taken(candidate); suffix++ {
		candidate = fmt.Sprintf("%s (%d)", name, suffix)
	}
	return candidate
}
