package game

import redis_models "Nhauzo/models/redis"

// reaction is the countdown-gated reflex test: the first move after the
// gate opens wins
type reaction struct{}

func (reaction) setup(e *Engine, duel DuelPhase) {}

func (reaction) submit(e *Engine, room *redis_models.GameRoom, duel DuelPhase, playerID string, move Move) (redis_models.Patch, error) {
	if !duel.State.CanAttack {
		return nil, ErrGateClosed
	}
	patch := movePatch(playerID, &redis_models.Move{At: e.nowMs()})
	return decide(patch, duel.Opponent(playerID)), nil
}
