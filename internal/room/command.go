// internal/room/command.go
package room

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Command is the tagged-variant inbound command type: one concrete struct
// per room operation, decoded and validated field-by-field so no payload is
// ever merged wholesale into room state. The router switches over the
// variants exhaustively.
type Command interface {
	isCommand()
}

type (
	// ClaimHost binds the caller as the room's host (first claim wins).
	ClaimHost struct{}

	// Join adds the caller to the roster, or renames it on rejoin.
	Join struct {
		Name string
	}

	// Buzz is the race-to-respond signal.
	Buzz struct{}

	// Lock closes the buzzer. Host only.
	Lock struct{}

	// Unlock opens the buzzer without clearing a recorded winner. Host only.
	Unlock struct{}

	// Reset clears the buzzer for a brand-new clue. Host only.
	Reset struct{}

	// ClearForRetry re-opens the buzzer mid-clue after a wrong answer. Host only.
	ClearForRetry struct{}

	// MarkCorrect awards points and board control to a player. Host only.
	MarkCorrect struct {
		PlayerID uuid.UUID
		Points   int
	}

	// MarkWrong deducts points and rules the player out for this clue. Host only.
	MarkWrong struct {
		PlayerID uuid.UUID
		Points   int
	}

	// UpdatePlayer applies a partial name/score patch. Host only.
	UpdatePlayer struct {
		PlayerID uuid.UUID
		Name     *string
		Score    *int
	}

	// RemovePlayer drops a roster entry. Host only.
	RemovePlayer struct {
		PlayerID uuid.UUID
	}

	// AddBot appends a synthetic player. Host only.
	AddBot struct{}

	// SetMaxPlayers replaces the capacity bound. Host only.
	SetMaxPlayers struct {
		Max int
	}

	// SubmitWager stores the caller's wager, last write wins.
	SubmitWager struct {
		Amount int
	}

	// SubmitAnswer stores the caller's final answer, last write wins.
	SubmitAnswer struct {
		Text string
	}

	// ClearWagers empties the wager and answer maps. Host only.
	ClearWagers struct{}

	// SetPhase moves the game-progress marker. Host only.
	SetPhase struct {
		Phase Phase
	}
)

func (ClaimHost) isCommand()     {}
func (Join) isCommand()          {}
func (Buzz) isCommand()          {}
func (Lock) isCommand()          {}
func (Unlock) isCommand()        {}
func (Reset) isCommand()         {}
func (ClearForRetry) isCommand() {}
func (MarkCorrect) isCommand()   {}
func (MarkWrong) isCommand()     {}
func (UpdatePlayer) isCommand()  {}
func (RemovePlayer) isCommand()  {}
func (AddBot) isCommand()        {}
func (SetMaxPlayers) isCommand() {}
func (SubmitWager) isCommand()   {}
func (SubmitAnswer) isCommand()  {}
func (ClearWagers) isCommand()   {}
func (SetPhase) isCommand()      {}

// HostOnly reports whether cmd requires the caller to hold the room's
// host binding.
func HostOnly(cmd Command) bool {
	switch cmd.(type) {
	case Lock, Unlock, Reset, ClearForRetry, MarkCorrect, MarkWrong,
		UpdatePlayer, RemovePlayer, AddBot, SetMaxPlayers, ClearWagers, SetPhase:
		return true
	}
	return false
}

type targetPayload struct {
	PlayerID string `json:"playerId"`
	Points   int    `json:"points"`
}

type patchPayload struct {
	PlayerID string  `json:"playerId"`
	Name     *string `json:"name"`
	Score    *int    `json:"score"`
}

// DecodeCommand turns a wire action plus raw payload into a typed Command.
// Unknown actions and malformed payloads fail with ErrUnknownCommand; there
// is no silent default fallthrough.
func DecodeCommand(action string, raw json.RawMessage) (Command, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch action {
	case "claim_host":
		return ClaimHost{}, nil
	case "join":
		var p struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: join: %v", ErrUnknownCommand, err)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("%w: join requires a name", ErrUnknownCommand)
		}
		return Join{Name: p.Name}, nil
	case "buzz":
		return Buzz{}, nil
	case "lock":
		return Lock{}, nil
	case "unlock":
		return Unlock{}, nil
	case "reset":
		return Reset{}, nil
	case "clear_for_retry":
		return ClearForRetry{}, nil
	case "mark_correct", "mark_wrong":
		var p targetPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownCommand, action, err)
		}
		id, err := uuid.Parse(p.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: invalid playerId", ErrUnknownCommand, action)
		}
		if action == "mark_correct" {
			return MarkCorrect{PlayerID: id, Points: p.Points}, nil
		}
		return MarkWrong{PlayerID: id, Points: p.Points}, nil
	case "update_player":
		var p patchPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: update_player: %v", ErrUnknownCommand, err)
		}
		id, err := uuid.Parse(p.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("%w: update_player: invalid playerId", ErrUnknownCommand)
		}
		return UpdatePlayer{PlayerID: id, Name: p.Name, Score: p.Score}, nil
	case "remove_player":
		var p targetPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: remove_player: %v", ErrUnknownCommand, err)
		}
		id, err := uuid.Parse(p.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("%w: remove_player: invalid playerId", ErrUnknownCommand)
		}
		return RemovePlayer{PlayerID: id}, nil
	case "add_bot":
		return AddBot{}, nil
	case "set_max_players":
		var p struct {
			Max int `json:"max"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: set_max_players: %v", ErrUnknownCommand, err)
		}
		if p.Max < 1 {
			return nil, fmt.Errorf("%w: set_max_players: max must be >= 1", ErrUnknownCommand)
		}
		return SetMaxPlayers{Max: p.Max}, nil
	case "submit_wager":
		var p struct {
			Amount int `json:"amount"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: submit_wager: %v", ErrUnknownCommand, err)
		}
		return SubmitWager{Amount: p.Amount}, nil
	case "submit_answer":
		var p struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: submit_answer: %v", ErrUnknownCommand, err)
		}
		return SubmitAnswer{Text: p.Text}, nil
	case "clear_wagers":
		return ClearWagers{}, nil
	case "set_phase":
		var p struct {
			Phase Phase `json:"phase"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: set_phase: %v", ErrUnknownCommand, err)
		}
		if !p.Phase.Valid() {
			return nil, fmt.Errorf("%w: set_phase: invalid phase %q", ErrUnknownCommand, p.Phase)
		}
		return SetPhase{Phase: p.Phase}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, action)
	}
}
