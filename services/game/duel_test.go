package game

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// duelRoom starts a duel of the given game with "binh" challenging "an"
func duelRoom(t *testing.T, e *Engine, c *testClock, game redis_models.MinigameType) *redis_models.GameRoom {
	t.Helper()
	room := roomWith(t, e, c, "binh")
	room.State = redis_models.StateDecidingPenalty
	room.CurrentLoserID = "binh"
	room.NextControllerID = "binh"

	patch, err := e.DecidePenalty(room, "binh", game_constants.DecisionDuel)
	room = apply(t, room, patch, err)
	patch, err = e.ChooseOpponent(room, "binh", "an")
	room = apply(t, room, patch, err)
	patch, err = e.ChooseMinigame(room, "binh", game)
	room = apply(t, room, patch, err)
	require.Equal(t, redis_models.StateMinigameDuel, room.State)
	return room
}

func taps(n int) *int { return &n }

func TestDuelPhaseKeepsMinigameState(t *testing.T) {
	c := newTestClock()
	e := newTestEngine(c)
	room := duelRoom(t, e, c, redis_models.MinigameCardFlip)

	phase, err := PhaseOf(room)
	require.NoError(t, err)
	assert.Equal(t, redis_models.StateMinigameDuel, phase.Kind())
	duel, ok := phase.(DuelPhase)
	require.True(t, ok)
	assert.Same(t, room.MinigameState, duel.State)
	assert.Equal(t, "an", duel.Opponent("binh"))
}

func TestRockPaperScissors(t *testing.T) {
	c := newTestClock()
	e := newTestEngine(c, 1) // stake 0.2
	room := duelRoom(t, e, c, redis_models.MinigameRPS)
	assert.Equal(t, 0.2, room.MinigameState.BasePenalty)
	assert.Empty(t, room.Decision)

	_, err := e.SubmitMove(room, "binh", Move{Choice: "lizard"})
	assert.ErrorIs(t, err, ErrValidation)

	patch, err := e.SubmitMove(room, "binh", Move{Choice: game_constants.MoveRock})
	room = apply(t, room, patch, err)
	_, err = e.SubmitMove(room, "binh", Move{Choice: game_constants.MovePaper})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	// tie, replay with the same stake
	patch, err = e.SubmitMove(room, "an", Move{Choice: game_constants.MoveRock})
	room = apply(t, room, patch, err)
	assert.True(t, room.MinigameState.Tie)
	assert.Empty(t, room.MinigameState.Loser)

	st := room.MinigameState
	_, err = e.ClearTie(room, st.StartedAt, st.Round+1)
	assert.ErrorIs(t, err, ErrStale)
	patch, err = e.ClearTie(room, st.StartedAt, st.Round)
	room = apply(t, room, patch, err)
	assert.False(t, room.MinigameState.Tie)
	assert.Equal(t, 1, room.MinigameState.Round)
	assert.Nil(t, room.Players["binh"].MinigameMove)
	assert.Equal(t, 0.2, room.MinigameState.BasePenalty)

	patch, err = e.SubmitMove(room, "binh", Move{Choice: game_constants.MoveScissors})
	room = apply(t, room, patch, err)
	patch, err = e.SubmitMove(room, "an", Move{Choice: game_constants.MoveRock})
	room = apply(t, room, patch, err)
	assert.Equal(t, "binh", room.MinigameState.Loser)

	// decided, no more input
	_, err = e.SubmitMove(room, "an", Move{Choice: game_constants.MovePaper})
	assert.ErrorIs(t, err, ErrWrongPhase)

	patch, err = e.FinalizeDuel(room, room.MinigameState.StartedAt)
	room = apply(t, room, patch, err)
	assert.Equal(t, redis_models.StateResult, room.State)
	assert.Equal(t, "binh", room.WinnerID)
	assert.Equal(t, 0.4, *room.WinnerBeerAmount)
	assert.Nil(t, room.MinigameState)
	assert.Nil(t, room.Players["an"].MinigameMove)
	assert.Nil(t, room.Players["binh"].MinigameMove)
}

func TestReactionGate(t *testing.T) {
	c := newTestClock()
	e := newTestEngine(c, 4) // stake 0.5
	room := duelRoom(t, e, c, redis_models.MinigameReaction)
	st := room.MinigameState

	_, err := e.SubmitMove(room, "an", Move{})
	assert.ErrorIs(t, err, ErrGateClosed)

	c.advance(e.Settings().PrepWindow)
	patch, err := e.OpenGate(room, st.StartedAt, st.Round)
	room = apply(t, room, patch, err)
	assert.True(t, room.MinigameState.CanAttack)
	assert.Equal(t, c.t.UnixMilli(), room.MinigameState.GateOpenedAt)

	// a second timer for the same gate does nothing
	_, err = e.OpenGate(room, st.StartedAt, st.Round)
	assert.ErrorIs(t, err, ErrStale)

	patch, err = e.SubmitMove(room, "an", Move{})
	room = apply(t, room, patch, err)
	assert.Equal(t, "binh", room.MinigameState.Loser)
	assert.False(t, room.MinigameState.CanAttack)

	_, err = e.SubmitMove(room, "binh", Move{})
	assert.ErrorIs(t, err, ErrWrongPhase)

	patch, err = e.FinalizeDuel(room, st.StartedAt)
	room = apply(t, room, patch, err)
	assert.Equal(t, 1.0, *room.WinnerBeerAmount)
}

func TestCardFlip(t *testing.T) {
	c := newTestClock()
	// stake index, then a shuffle that leaves the deck in order
	e := newTestEngine(c, 0, 5, 4, 3, 2, 1)
	room := duelRoom(t, e, c, redis_models.MinigameCardFlip)
	st := room.MinigameState

	require.Len(t, st.Cards, 6)
	bombs := 0
	for _, card := range st.Cards {
		if card == redis_models.CardBomb {
			bombs++
		}
	}
	assert.Equal(t, 1, bombs)
	assert.Equal(t, "binh", st.CurrentTurn)
	bomb := 5
	require.Equal(t, redis_models.CardBomb, st.Cards[bomb])

	_, err := e.FlipCard(room, "an", 0)
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = e.SubmitMove(room, "binh", Move{})
	assert.ErrorIs(t, err, ErrValidation)

	patch, err := e.FlipCard(room, "binh", 0)
	room = apply(t, room, patch, err)
	assert.Equal(t, "an", room.MinigameState.CurrentTurn)
	assert.Equal(t, []int{0}, room.MinigameState.Flipped)

	_, err = e.FlipCard(room, "an", 0)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	_, err = e.FlipCard(room, "an", 6)
	assert.ErrorIs(t, err, ErrValidation)

	patch, err = e.FlipCard(room, "an", bomb)
	room = apply(t, room, patch, err)
	assert.Equal(t, "an", room.MinigameState.Loser)

	patch, err = e.FinalizeDuel(room, st.StartedAt)
	room = apply(t, room, patch, err)
	assert.Equal(t, "an", room.WinnerID)
	assert.Equal(t, 0.1, *room.WinnerBeerAmount)
}

func TestTapContest(t *testing.T) {
	c := newTestClock()
	e := newTestEngine(c, 2) // stake 0.3
	room := duelRoom(t, e, c, redis_models.MinigameTap)
	st := room.MinigameState

	_, err := e.SubmitMove(room, "an", Move{Taps: taps(10)})
	assert.ErrorIs(t, err, ErrGateClosed)

	c.advance(e.Settings().PrepWindow)
	patch, err := e.OpenGate(room, st.StartedAt, 0)
	room = apply(t, room, patch, err)
	assert.Equal(t, c.t.Add(e.Settings().TapWindow).UnixMilli(), room.MinigameState.WindowEndsAt)

	c.advance(e.Settings().TapWindow)
	patch, err = e.CloseTapWindow(room, st.StartedAt, 0)
	room = apply(t, room, patch, err)
	assert.False(t, room.MinigameState.CanAttack)

	_, err = e.SubmitMove(room, "an", Move{Taps: taps(251)})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.SubmitMove(room, "an", Move{})
	assert.ErrorIs(t, err, ErrValidation)

	// tie resets the gate
	patch, err = e.SubmitMove(room, "an", Move{Taps: taps(40)})
	room = apply(t, room, patch, err)
	patch, err = e.SubmitMove(room, "binh", Move{Taps: taps(40)})
	room = apply(t, room, patch, err)
	require.True(t, room.MinigameState.Tie)

	patch, err = e.ClearTie(room, st.StartedAt, 0)
	room = apply(t, room, patch, err)
	assert.Zero(t, room.MinigameState.GateOpenedAt)
	assert.Zero(t, room.MinigameState.WindowEndsAt)
	assert.Equal(t, 1, room.MinigameState.Round)

	_, err = e.SubmitMove(room, "an", Move{Taps: taps(10)})
	assert.ErrorIs(t, err, ErrGateClosed)

	c.advance(time.Second)
	patch, err = e.OpenGate(room, st.StartedAt, 1)
	room = apply(t, room, patch, err)
	patch, err = e.SubmitMove(room, "an", Move{Taps: taps(55)})
	room = apply(t, room, patch, err)
	patch, err = e.SubmitMove(room, "binh", Move{Taps: taps(60)})
	room = apply(t, room, patch, err)
	assert.Equal(t, "an", room.MinigameState.Loser)

	patch, err = e.FinalizeDuel(room, st.StartedAt)
	room = apply(t, room, patch, err)
	assert.Equal(t, "an", room.WinnerID)
	assert.Equal(t, 0.3, *room.WinnerBeerAmount)
}

func TestTapCeilingShortWindow(t *testing.T) {
	assert.Equal(t, 250, tapCeiling(10*time.Second))
	assert.Equal(t, 12, tapCeiling(500*time.Millisecond))

	c := newTestClock()
	settings := DefaultSettings()
	settings.TapWindow = 500 * time.Millisecond
	e := NewEngine(settings, &seqRand{}, c.now)
	room := duelRoom(t, e, c, redis_models.MinigameTap)
	st := room.MinigameState

	c.advance(settings.PrepWindow)
	patch, err := e.OpenGate(room, st.StartedAt, 0)
	room = apply(t, room, patch, err)

	patch, err = e.SubmitMove(room, "an", Move{Taps: taps(8)})
	room = apply(t, room, patch, err)
	_, err = e.SubmitMove(room, "binh", Move{Taps: taps(13)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDuelRejectsOutsiders(t *testing.T) {
	c := newTestClock()
	e := newTestEngine(c)
	room := duelRoom(t, e, c, redis_models.MinigameRPS)
	patch, err := e.AddPlayer(room, "chi", "Chi")
	room = apply(t, room, patch, err)

	_, err = e.SubmitMove(room, "chi", Move{Choice: game_constants.MoveRock})
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = e.FinalizeDuel(room, room.MinigameState.StartedAt)
	assert.ErrorIs(t, err, ErrStale)
}

// Room ABCD hosted by An, Binh joins; An spins, Binh loses, duels An at
// rock-paper-scissors and the defender ends up drinking.
func TestConcreteScenario(t *testing.T) {
	c := newTestClock()
	// spin index 1, rotations 5, stake 0.3
	e := newTestEngine(c, 1, 0, 2)

	room, err := e.NewRoom("an", "An", "ABCD")
	require.NoError(t, err)
	c.advance(time.Second)
	patch, err := e.AddPlayer(room, "binh", "Binh")
	room = apply(t, room, patch, err)

	patch, err = e.StartRound(room, "an", redis_models.ModeRandom)
	room = apply(t, room, patch, err)
	assert.Equal(t, redis_models.StatePickingLoser, room.State)

	patch, err = e.TriggerSpin(room, ControllerID(room))
	room = apply(t, room, patch, err)
	spin := *room.SpinData
	assert.Contains(t, []int{0, 1}, spin.WinnerIndex)
	loser := room.OrderedPlayers()[spin.WinnerIndex].ID

	c.advance(time.Duration(spin.DurationMs) * time.Millisecond)
	patch, err = e.FinishSpin(room, spin.StartTime)
	room = apply(t, room, patch, err)
	assert.Equal(t, redis_models.StateDecidingPenalty, room.State)
	assert.Equal(t, loser, room.CurrentLoserID)
	defender := "an"
	if loser == "an" {
		defender = "binh"
	}

	patch, err = e.DecidePenalty(room, loser, game_constants.DecisionDuel)
	room = apply(t, room, patch, err)
	patch, err = e.ChooseOpponent(room, loser, defender)
	room = apply(t, room, patch, err)
	patch, err = e.ChooseMinigame(room, loser, redis_models.MinigameRPS)
	room = apply(t, room, patch, err)
	startedAt := room.MinigameState.StartedAt
	stake := room.MinigameState.BasePenalty

	patch, err = e.SubmitMove(room, loser, Move{Choice: game_constants.MoveRock})
	room = apply(t, room, patch, err)
	patch, err = e.SubmitMove(room, defender, Move{Choice: game_constants.MoveScissors})
	room = apply(t, room, patch, err)

	patch, err = e.FinalizeDuel(room, startedAt)
	room = apply(t, room, patch, err)
	assert.Equal(t, redis_models.StateResult, room.State)
	assert.Equal(t, defender, room.WinnerID)
	assert.Equal(t, stake, *room.WinnerBeerAmount)

	patch, err = e.ReturnToLobby(room, "an")
	room = apply(t, room, patch, err)
	assert.Equal(t, redis_models.StateLobby, room.State)
	assert.Equal(t, defender, room.NextControllerID)
	assert.Empty(t, room.CurrentLoserID)
	assert.Empty(t, room.TargetOpponentID)
	assert.Empty(t, room.WinnerID)
	assert.Nil(t, room.WinnerBeerAmount)
	assert.Nil(t, room.MinigameState)
	assert.Empty(t, room.MinigameType)
	for _, p := range room.Players {
		assert.Nil(t, p.MinigameMove)
		assert.Nil(t, p.SelectedNumber)
		assert.Zero(t, p.VoteCount)
	}
}
