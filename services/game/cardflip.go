package game

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
	"fmt"
)

// cardFlip is the risk game: players take turns revealing cards of a
// shuffled deck and whoever finds the bomb loses
type cardFlip struct{}

func (cardFlip) setup(e *Engine, duel DuelPhase) {
	deck := make([]string, 0, game_constants.SafeCards+game_constants.BombCards)
	for i := 0; i < game_constants.SafeCards; i++ {
		deck = append(deck, redis_models.CardSafe)
	}
	for i := 0; i < game_constants.BombCards; i++ {
		deck = append(deck, redis_models.CardBomb)
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := e.rnd.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	duel.State.Cards = deck
	duel.State.Flipped = []int{}
	duel.State.CurrentTurn = duel.ChallengerID
}

func (cardFlip) submit(e *Engine, room *redis_models.GameRoom, duel DuelPhase, playerID string, move Move) (redis_models.Patch, error) {
	return nil, errDuelInput(duel.Game, "flip a card instead")
}

// FlipCard reveals a card for the player whose turn it is
func (e *Engine) FlipCard(room *redis_models.GameRoom, playerID string, index int) (redis_models.Patch, error) {
	duel, err := duelFor(room, playerID)
	if err != nil {
		return nil, err
	}
	if duel.Game != redis_models.MinigameCardFlip {
		return nil, ErrWrongPhase
	}
	st := duel.State
	if st.CurrentTurn != playerID {
		return nil, fmt.Errorf("%w: not your turn", ErrNotAllowed)
	}
	if index < 0 || index >= len(st.Cards) {
		return nil, errDuelInput(duel.Game, "no such card")
	}
	if st.IsFlipped(index) {
		return nil, ErrAlreadySubmitted
	}

	flipped := append(append([]int{}, st.Flipped...), index)
	patch := redis_models.Patch{"minigameState.flipped": flipped}
	if st.Cards[index] == redis_models.CardBomb {
		return decide(patch, playerID), nil
	}
	patch["minigameState.currentTurn"] = duel.Opponent(playerID)
	return patch, nil
}
