// internal/room/room_test.go
package room

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimHostFirstClaimWins(t *testing.T) {
	r := New("ABCD", 3)
	host := uuid.New()
	rival := uuid.New()

	_, err := r.ClaimHost(host)
	require.NoError(t, err)
	assert.True(t, r.IsHost(host))

	_, err = r.ClaimHost(rival)
	assert.ErrorIs(t, err, ErrHostAlreadyClaimed)
	assert.True(t, r.IsHost(host), "host binding must not be overwritten")
	assert.False(t, r.IsHost(rival))

	// Same identity claiming again is an idempotent reconnect.
	_, err = r.ClaimHost(host)
	assert.NoError(t, err)
	assert.True(t, r.IsHost(host))
}

func TestJoinCapacityAndRejoin(t *testing.T) {
	r := New("ABCD", 2)
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	snap, err := r.Join(alice, "alice")
	require.NoError(t, err)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, 0, snap.Players[0].Score)

	snap, err = r.Join(bob, "bob")
	require.NoError(t, err)
	require.Len(t, snap.Players, 2)

	_, err = r.Join(carol, "carol")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Len(t, r.Snapshot().Players, 2, "rejected join must not change the roster")

	// Rejoining an existing identity succeeds regardless of occupancy and
	// applies the new name verbatim.
	snap, err = r.Join(alice, "alice2")
	require.NoError(t, err)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, "alice2", snap.Players[0].Name)
}

func TestJoinDedupesDisplayNames(t *testing.T) {
	r := New("ABCD", 4)
	_, err := r.Join(uuid.New(), "sam")
	require.NoError(t, err)
	snap, err := r.Join(uuid.New(), "sam")
	require.NoError(t, err)
	assert.Equal(t, "sam (1)", snap.Players[1].Name)
}

func TestBuzzWhileLockedIsIgnored(t *testing.T) {
	r := New("ABCD", 3)
	p := uuid.New()
	_, err := r.Join(p, "p")
	require.NoError(t, err)

	// Rooms start locked.
	snap := r.Buzz(p)
	assert.Nil(t, snap.BuzzedID)
	assert.Nil(t, snap.BuzzedName)
}

func TestBuzzWinsOnceAndLocks(t *testing.T) {
	r := New("ABCD", 3)
	alice := uuid.New()
	bob := uuid.New()
	_, err := r.Join(alice, "alice")
	require.NoError(t, err)
	_, err = r.Join(bob, "bob")
	require.NoError(t, err)
	r.Unlock()

	snap := r.Buzz(alice)
	require.NotNil(t, snap.BuzzedID)
	assert.Equal(t, alice, *snap.BuzzedID)
	assert.Equal(t, "alice", *snap.BuzzedName)
	assert.True(t, snap.Locked, "a buzz always locks the buzzer")

	// Late buzz is a silent no-op, never a winner change.
	snap = r.Buzz(bob)
	assert.Equal(t, alice, *snap.BuzzedID)
}

func TestConcurrentBuzzHasExactlyOneWinner(t *testing.T) {
	r := New("ABCD", 64)
	ids := make([]uuid.UUID, 32)
	for i := range ids {
		ids[i] = uuid.New()
		_, err := r.Join(ids[i], "p")
		require.NoError(t, err)
	}
	r.Unlock()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			snap := r.Buzz(id)
			if snap.BuzzedID != nil && *snap.BuzzedID == id {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one concurrent buzz may win")
	final := r.Snapshot()
	require.NotNil(t, final.BuzzedID)
	assert.True(t, final.Locked)
}

func TestIncorrectBuzzerCannotRebuzz(t *testing.T) {
	r := New("ABCD", 3)
	p := uuid.New()
	_, err := r.Join(p, "p")
	require.NoError(t, err)
	r.Unlock()
	r.Buzz(p)

	snap := r.MarkWrong(p, 200)
	assert.Equal(t, -200, snap.Players[0].Score)
	assert.Nil(t, snap.BuzzedID)
	assert.False(t, snap.Locked, "wrong answer re-opens the buzzer for the rest")

	// Same clue, no reset: P stays ruled out.
	snap = r.Buzz(p)
	assert.Nil(t, snap.BuzzedID)

	// A new clue clears the exclusion.
	r.Reset()
	r.Unlock()
	snap = r.Buzz(p)
	require.NotNil(t, snap.BuzzedID)
	assert.Equal(t, p, *snap.BuzzedID)
}

func TestResetClearsEverything(t *testing.T) {
	r := New("ABCD", 3)
	p := uuid.New()
	_, err := r.Join(p, "p")
	require.NoError(t, err)
	r.Unlock()
	r.Buzz(p)
	r.ClearForRetry() // p now in the incorrect set, buzzer open

	snap := r.Reset()
	assert.Nil(t, snap.BuzzedID)
	assert.Nil(t, snap.BuzzedName)
	assert.Empty(t, snap.IncorrectBuzzes)
	assert.True(t, snap.Locked)
}

func TestUnlockKeepsRecordedWinner(t *testing.T) {
	r := New("ABCD", 3)
	p := uuid.New()
	_, err := r.Join(p, "p")
	require.NoError(t, err)
	r.Unlock()
	r.Buzz(p)

	snap := r.Unlock()
	assert.False(t, snap.Locked)
	require.NotNil(t, snap.BuzzedID, "unlock must not clear the winner; that is reset's job")
	assert.Equal(t, p, *snap.BuzzedID)
}

func TestMarkCorrectScoresAndGrantsControl(t *testing.T) {
	r := New("ABCD", 3)
	p := uuid.New()
	_, err := r.Join(p, "p")
	require.NoError(t, err)
	r.Unlock()
	r.Buzz(p)

	snap := r.MarkCorrect(p, 200)
	assert.Equal(t, 200, snap.Players[0].Score)
	require.NotNil(t, snap.ControlPlayerID)
	assert.Equal(t, p, *snap.ControlPlayerID)
	assert.Nil(t, snap.BuzzedID)
	assert.Empty(t, snap.IncorrectBuzzes)
	assert.True(t, snap.Locked)
}

func TestMarkCorrectUnknownTargetStillResets(t *testing.T) {
	r := New("ABCD", 3)
	p := uuid.New()
	_, err := r.Join(p, "p")
	require.NoError(t, err)
	r.Unlock()
	r.Buzz(p)

	snap := r.MarkCorrect(uuid.New(), 500)
	assert.Equal(t, 0, snap.Players[0].Score)
	assert.Nil(t, snap.ControlPlayerID)
	assert.Nil(t, snap.BuzzedID)
	assert.True(t, snap.Locked)
}

func TestUpdatePlayerPartialPatch(t *testing.T) {
	r := New("ABCD", 3)
	p := uuid.New()
	_, err := r.Join(p, "p")
	require.NoError(t, err)

	name := "renamed"
	snap := r.UpdatePlayer(p, &name, nil)
	assert.Equal(t, "renamed", snap.Players[0].Name)
	assert.Equal(t, 0, snap.Players[0].Score)

	score := -100
	snap = r.UpdatePlayer(p, nil, &score)
	assert.Equal(t, "renamed", snap.Players[0].Name)
	assert.Equal(t, -100, snap.Players[0].Score, "scores may go negative")

	// Absent target is a no-op, not an error.
	snap = r.UpdatePlayer(uuid.New(), &name, &score)
	assert.Len(t, snap.Players, 1)
}

func TestRemovePlayer(t *testing.T) {
	r := New("ABCD", 3)
	a, b := uuid.New(), uuid.New()
	_, err := r.Join(a, "a")
	require.NoError(t, err)
	_, err = r.Join(b, "b")
	require.NoError(t, err)

	snap := r.RemovePlayer(a)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, b, snap.Players[0].ID)

	snap = r.RemovePlayer(uuid.New())
	assert.Len(t, snap.Players, 1)
}

func TestAddBotCountsAgainstCapacity(t *testing.T) {
	r := New("ABCD", 2)
	_, err := r.Join(uuid.New(), "human")
	require.NoError(t, err)

	snap, err := r.AddBot()
	require.NoError(t, err)
	require.Len(t, snap.Players, 2)
	assert.True(t, snap.Players[1].Bot)
	assert.Equal(t, "Player 2", snap.Players[1].Name)

	_, err = r.AddBot()
	assert.ErrorIs(t, err, ErrRoomFull)

	// Raising the cap lets more in; lowering it never evicts.
	r.SetMaxPlayers(3)
	_, err = r.AddBot()
	require.NoError(t, err)
	snap = r.SetMaxPlayers(1)
	assert.Len(t, snap.Players, 3)
}

func TestWagersAndAnswersLastWriteWins(t *testing.T) {
	r := New("ABCD", 3)
	p := uuid.New()

	snap := r.SubmitWager(p, 100)
	assert.Equal(t, 100, snap.Wagers[p.String()])
	snap = r.SubmitWager(p, 500)
	assert.Equal(t, 500, snap.Wagers[p.String()])

	snap = r.SubmitAnswer(p, "what is go")
	assert.Equal(t, "what is go", snap.FinalAnswers[p.String()])

	snap = r.ClearWagers()
	assert.Empty(t, snap.Wagers)
	assert.Empty(t, snap.FinalAnswers)
}

func TestSetPhaseIsUnconditional(t *testing.T) {
	r := New("ABCD", 3)
	snap := r.SetPhase(PhaseGameOver)
	assert.Equal(t, PhaseGameOver, snap.Phase)
	snap = r.SetPhase(PhaseBoard)
	assert.Equal(t, PhaseBoard, snap.Phase)
}

// Full scenario from the product notes: two players race, host scores the
// winner, winner takes board control.
func TestGameScenario(t *testing.T) {
	r := New("ABCD", 2)
	host := uuid.New()
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	_, err := r.ClaimHost(host)
	require.NoError(t, err)

	_, err = r.Join(alice, "alice")
	require.NoError(t, err)
	_, err = r.Join(bob, "bob")
	require.NoError(t, err)
	_, err = r.Join(carol, "carol")
	require.ErrorIs(t, err, ErrRoomFull)

	r.Unlock()

	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{alice, bob} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			r.Buzz(id)
		}(id)
	}
	wg.Wait()

	snap := r.Snapshot()
	require.NotNil(t, snap.BuzzedID)
	winner := *snap.BuzzedID
	assert.Contains(t, []uuid.UUID{alice, bob}, winner)
	assert.True(t, snap.Locked)

	snap = r.MarkCorrect(winner, 200)
	var winnerScore int
	for _, p := range snap.Players {
		if p.ID == winner {
			winnerScore = p.Score
		}
	}
	assert.Equal(t, 200, winnerScore)
	assert.Nil(t, snap.BuzzedID)
	assert.True(t, snap.Locked)
	require.NotNil(t, snap.ControlPlayerID)
	assert.Equal(t, winner, *snap.ControlPlayerID)
}
