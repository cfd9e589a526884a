package game

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
)

// rps is rock-paper-scissors: one move each, resolved when both are in
type rps struct{}

var beats = map[string]string{
	game_constants.MoveRock:     game_constants.MoveScissors,
	game_constants.MoveScissors: game_constants.MovePaper,
	game_constants.MovePaper:    game_constants.MoveRock,
}

func (rps) setup(e *Engine, duel DuelPhase) {}

func (rps) submit(e *Engine, room *redis_models.GameRoom, duel DuelPhase, playerID string, move Move) (redis_models.Patch, error) {
	if _, ok := beats[move.Choice]; !ok {
		return nil, errDuelInput(duel.Game, "choose rock, paper or scissors")
	}
	if duel.State.Tie {
		return nil, ErrWrongPhase
	}
	if room.Player(playerID).MinigameMove != nil {
		return nil, ErrAlreadySubmitted
	}

	patch := movePatch(playerID, &redis_models.Move{Choice: move.Choice, At: e.nowMs()})
	other := room.Player(duel.Opponent(playerID))
	if other == nil || other.MinigameMove == nil {
		return patch, nil
	}

	theirs := other.MinigameMove.Choice
	switch {
	case theirs == move.Choice:
		patch["minigameState.tie"] = true
	case beats[move.Choice] == theirs:
		decide(patch, other.ID)
	default:
		decide(patch, playerID)
	}
	return patch, nil
}
