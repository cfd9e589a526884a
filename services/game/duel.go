package game

import (
	redis_models "Nhauzo/models/redis"
	"fmt"
	"math"
)

// referee implements the rules of one minigame
type referee interface {
	// setup deals the initial duel state
	setup(e *Engine, duel DuelPhase)
	// submit validates a move and returns its patch, which sets
	// minigameState.loser once the duel is decided
	submit(e *Engine, room *redis_models.GameRoom, duel DuelPhase, playerID string, move Move) (redis_models.Patch, error)
}

// Move is a duel input as received from a client
type Move struct {
	Choice string
	Taps   *int
}

var referees = map[redis_models.MinigameType]referee{
	redis_models.MinigameRPS:      rps{},
	redis_models.MinigameReaction: reaction{},
	redis_models.MinigameCardFlip: cardFlip{},
	redis_models.MinigameTap:      tapContest{},
}

// Gated reports whether a minigame waits for the preparation window
// before accepting input
func Gated(game redis_models.MinigameType) bool {
	return game == redis_models.MinigameReaction || game == redis_models.MinigameTap
}

// Charge is what the duel's loser drinks: twice the stake rounded to one
// decimal for a losing challenger, the stake for a losing defender
func Charge(stake float64, challengerLost bool) float64 {
	if challengerLost {
		return math.Round(stake*2*10) / 10
	}
	return stake
}

func (e *Engine) drawStake() float64 {
	return e.settings.Stakes[e.rnd.IntN(len(e.settings.Stakes))]
}

// duelFor returns the active duel if playerID takes part in it and it has
// not been decided yet
func duelFor(room *redis_models.GameRoom, playerID string) (DuelPhase, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return DuelPhase{}, err
	}
	duel, ok := phase.(DuelPhase)
	if !ok || duel.State.Loser != "" {
		return DuelPhase{}, ErrWrongPhase
	}
	if !room.HasPlayer(playerID) {
		return DuelPhase{}, ErrUnknownPlayer
	}
	if duel.Opponent(playerID) == "" {
		return DuelPhase{}, ErrNotAllowed
	}
	return duel, nil
}

// SubmitMove handles RPS, reaction and tap contest input
func (e *Engine) SubmitMove(room *redis_models.GameRoom, playerID string, move Move) (redis_models.Patch, error) {
	duel, err := duelFor(room, playerID)
	if err != nil {
		return nil, err
	}
	return referees[duel.Game].submit(e, room, duel, playerID, move)
}

// OpenGate ends the preparation window of a reaction or tap duel. startedAt
// and round identify the duel instance the timer was armed for.
func (e *Engine) OpenGate(room *redis_models.GameRoom, startedAt int64, round int) (redis_models.Patch, error) {
	duel, err := matchDuel(room, startedAt, round)
	if err != nil {
		return nil, err
	}
	st := duel.State
	if !Gated(duel.Game) || st.CanAttack || st.GateOpenedAt != 0 || st.Tie {
		return nil, ErrStale
	}

	now := e.nowMs()
	patch := redis_models.Patch{
		"minigameState.canAttack":    true,
		"minigameState.gateOpenedAt": now,
	}
	if duel.Game == redis_models.MinigameTap {
		patch["minigameState.windowEndsAt"] = now + e.settings.TapWindow.Milliseconds()
	}
	return patch, nil
}

// ClearTie replays a tied RPS or tap duel with the same stake
func (e *Engine) ClearTie(room *redis_models.GameRoom, startedAt int64, round int) (redis_models.Patch, error) {
	duel, err := matchDuel(room, startedAt, round)
	if err != nil {
		return nil, err
	}
	if !duel.State.Tie {
		return nil, ErrStale
	}

	patch := redis_models.Patch{
		"minigameState.tie":   nil,
		"minigameState.round": duel.State.Round + 1,
		redis_models.PlayerField(duel.ChallengerID, "minigameMove"): nil,
		redis_models.PlayerField(duel.DefenderID, "minigameMove"):   nil,
	}
	if Gated(duel.Game) {
		patch["minigameState.canAttack"] = false
		patch["minigameState.gateOpenedAt"] = nil
		patch["minigameState.windowEndsAt"] = nil
	}
	return patch, nil
}

// FinalizeDuel writes RESULT for a decided duel and wipes its state
func (e *Engine) FinalizeDuel(room *redis_models.GameRoom, startedAt int64) (redis_models.Patch, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}
	duel, ok := phase.(DuelPhase)
	if !ok || duel.State.StartedAt != startedAt || duel.State.Loser == "" {
		return nil, ErrStale
	}

	loser := duel.State.Loser
	amount := Charge(duel.State.BasePenalty, loser == duel.ChallengerID)
	return redis_models.Patch{
		"state":            redis_models.StateResult,
		"winnerId":         loser,
		"winnerBeerAmount": amount,
		"winnerPenalty":    nil,
		"minigameState":    nil,
		redis_models.PlayerField(duel.ChallengerID, "minigameMove"): nil,
		redis_models.PlayerField(duel.DefenderID, "minigameMove"):   nil,
	}, nil
}

// matchDuel returns the running duel if it is the instance identified by
// startedAt and round
func matchDuel(room *redis_models.GameRoom, startedAt int64, round int) (DuelPhase, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return DuelPhase{}, err
	}
	duel, ok := phase.(DuelPhase)
	if !ok || duel.State.StartedAt != startedAt || duel.State.Round != round || duel.State.Loser != "" {
		return DuelPhase{}, ErrStale
	}
	return duel, nil
}

// decide marks the loser of the duel
func decide(patch redis_models.Patch, loserID string) redis_models.Patch {
	patch["minigameState.loser"] = loserID
	patch["minigameState.canAttack"] = false
	return patch
}

func movePatch(playerID string, move *redis_models.Move) redis_models.Patch {
	return redis_models.Patch{redis_models.PlayerField(playerID, "minigameMove"): move}
}

func errDuelInput(game redis_models.MinigameType, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, game, detail)
}
