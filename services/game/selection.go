package game

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
	"fmt"
)

// SubmitGuess records a death-number guess. The last missing guess
// resolves the round.
func (e *Engine) SubmitGuess(room *redis_models.GameRoom, playerID string, number int) (redis_models.Patch, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}
	picking, ok := phase.(PickingLoserPhase)
	if !ok {
		return nil, ErrWrongPhase
	}
	sel, ok := picking.Selection.(DeathNumberSelection)
	if !ok {
		return nil, ErrWrongPhase
	}
	if !room.HasPlayer(playerID) {
		return nil, ErrUnknownPlayer
	}
	if number < game_constants.DeathNumberMin || number > game_constants.DeathNumberMax {
		return nil, fmt.Errorf("%w: guess must be between %d and %d", ErrValidation,
			game_constants.DeathNumberMin, game_constants.DeathNumberMax)
	}
	if _, guessed := sel.Guesses[playerID]; guessed {
		return nil, ErrAlreadySubmitted
	}

	patch := redis_models.Patch{redis_models.PlayerField(playerID, "selectedNumber"): number}
	sel.Guesses[playerID] = number
	if len(sel.Guesses) == len(room.Players) {
		patch.Merge(enterDecidingPenalty(e.deathNumberLoser(room, sel)))
	}
	return patch, nil
}

// CastVote records one ballot. Self votes count. The ballot that brings
// the total to the player count resolves the round.
func (e *Engine) CastVote(room *redis_models.GameRoom, voterID, targetID string) (redis_models.Patch, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}
	picking, ok := phase.(PickingLoserPhase)
	if !ok {
		return nil, ErrWrongPhase
	}
	sel, ok := picking.Selection.(VotingSelection)
	if !ok {
		return nil, ErrWrongPhase
	}
	if !room.HasPlayer(voterID) || !room.HasPlayer(targetID) {
		return nil, ErrUnknownPlayer
	}
	if _, voted := sel.Ballots[voterID]; voted {
		return nil, ErrAlreadySubmitted
	}

	count := sel.Tally[targetID] + 1
	patch := redis_models.Patch{
		redis_models.PlayerField(targetID, "voteCount"): count,
		redis_models.PlayerField(voterID, "votedFor"):   targetID,
	}
	sel.Tally[targetID] = count
	sel.Cast++
	if sel.Cast >= len(room.Players) {
		patch.Merge(enterDecidingPenalty(votingLoser(room, sel)))
	}
	return patch, nil
}

// resolveSelection completes a guess or vote round whose inputs are all
// in, e.g. after a player left. It returns an empty patch otherwise.
func (e *Engine) resolveSelection(room *redis_models.GameRoom) (redis_models.Patch, error) {
	phase, err := PhaseOf(room)
	if err != nil {
		return nil, err
	}
	picking, ok := phase.(PickingLoserPhase)
	if !ok {
		return redis_models.Patch{}, nil
	}
	switch sel := picking.Selection.(type) {
	case DeathNumberSelection:
		if len(sel.Guesses) == len(room.Players) {
			return enterDecidingPenalty(e.deathNumberLoser(room, sel)), nil
		}
	case VotingSelection:
		if sel.Cast >= len(room.Players) {
			return enterDecidingPenalty(votingLoser(room, sel)), nil
		}
	}
	return redis_models.Patch{}, nil
}

// deathNumberLoser draws uniformly among the players who hit the secret,
// or among everybody when nobody did
func (e *Engine) deathNumberLoser(room *redis_models.GameRoom, sel DeathNumberSelection) string {
	players := room.OrderedPlayers()
	var hits []*redis_models.Player
	for _, p := range players {
		if n, ok := sel.Guesses[p.ID]; ok && n == sel.Secret {
			hits = append(hits, p)
		}
	}
	if len(hits) == 0 {
		hits = players
	}
	return hits[e.rnd.IntN(len(hits))].ID
}

// votingLoser returns the first player in stable order with the most votes
func votingLoser(room *redis_models.GameRoom, sel VotingSelection) string {
	loser, best := "", -1
	for _, p := range room.OrderedPlayers() {
		if n := sel.Tally[p.ID]; n > best {
			loser, best = p.ID, n
		}
	}
	return loser
}
