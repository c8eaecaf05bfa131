// internal/room/phase.go
package room

// Phase is the host-driven game-progress state. The core does not enforce
// a transition graph; the host client is expected to request legal moves
// (BOARD -> CLUE -> ANSWER -> BOARD, with the wager and final-round detours).
type Phase string

const (
	PhaseBoard            Phase = "BOARD"
	PhaseClue             Phase = "CLUE"
	PhaseAnswer           Phase = "ANSWER"
	PhaseDailyDoubleWager Phase = "DAILY_DOUBLE_WAGER"
	PhaseFinalCategory    Phase = "FINAL_CATEGORY"
	PhaseFinalWager       Phase = "FINAL_WAGER"
	PhaseFinalClue        Phase = "FINAL_CLUE"
	PhaseFinalScoring     Phase = "FINAL_SCORING"
	PhaseGameOver         Phase = "GAME_OVER"
)

var validPhases = map[Phase]bool{
	PhaseBoard:            true,
	PhaseClue:             true,
	PhaseAnswer:           true,
	PhaseDailyDoubleWager: true,
	PhaseFinalCategory:    true,
	PhaseFinalWager:       true,
	PhaseFinalClue:        true,
	PhaseFinalScoring:     true,
	PhaseGameOver:         true,
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	return validPhases[p]
}
