package game

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
	"fmt"
	"time"
)

// tapContest counts taps during a fixed window after the gate opens. Each
// client submits its own count when the window closes.
type tapContest struct{}

// tapCeiling is the most taps a player can honestly make in window
func tapCeiling(window time.Duration) int {
	return int(window.Milliseconds() * game_constants.MaxTapsPerSecond / 1000)
}

func (tapContest) setup(e *Engine, duel DuelPhase) {}

func (tapContest) submit(e *Engine, room *redis_models.GameRoom, duel DuelPhase, playerID string, move Move) (redis_models.Patch, error) {
	if duel.State.GateOpenedAt == 0 {
		return nil, ErrGateClosed
	}
	if duel.State.Tie {
		return nil, ErrWrongPhase
	}
	ceiling := tapCeiling(e.settings.TapWindow)
	if move.Taps == nil || *move.Taps < 0 || *move.Taps > ceiling {
		return nil, errDuelInput(duel.Game, fmt.Sprintf("tap count must be between 0 and %d", ceiling))
	}
	if room.Player(playerID).MinigameMove != nil {
		return nil, ErrAlreadySubmitted
	}

	taps := *move.Taps
	patch := movePatch(playerID, &redis_models.Move{Taps: &taps, At: e.nowMs()})
	other := room.Player(duel.Opponent(playerID))
	if other == nil || other.MinigameMove == nil || other.MinigameMove.Taps == nil {
		return patch, nil
	}

	theirs := *other.MinigameMove.Taps
	switch {
	case theirs == taps:
		patch["minigameState.tie"] = true
		patch["minigameState.canAttack"] = false
	case taps > theirs:
		decide(patch, other.ID)
	default:
		decide(patch, playerID)
	}
	return patch, nil
}

// CloseTapWindow shuts the gate when the tap window is over
func (e *Engine) CloseTapWindow(room *redis_models.GameRoom, startedAt int64, round int) (redis_models.Patch, error) {
	duel, err := matchDuel(room, startedAt, round)
	if err != nil {
		return nil, err
	}
	if duel.Game != redis_models.MinigameTap || !duel.State.CanAttack {
		return nil, ErrStale
	}
	return redis_models.Patch{"minigameState.canAttack": false}, nil
}
