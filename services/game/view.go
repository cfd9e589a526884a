package game

import redis_models "Nhauzo/models/redis"

// PublicView is the room as clients may see it: the death number stays
// secret until the loser is known and face-down cards are masked until
// the duel is decided. The stored document is never modified.
func PublicView(room *redis_models.GameRoom) *redis_models.GameRoom {
	if room == nil {
		return nil
	}
	hideNumber := room.DeathNumber != nil && room.State == redis_models.StatePickingLoser
	st := room.MinigameState
	hideCards := st != nil && st.Loser == "" && len(st.Flipped) < len(st.Cards)
	if !hideNumber && !hideCards {
		return room
	}

	view := room.Clone()
	if hideNumber {
		view.DeathNumber = nil
	}
	if hideCards {
		for i := range view.MinigameState.Cards {
			if !view.MinigameState.IsFlipped(i) {
				view.MinigameState.Cards[i] = redis_models.CardHidden
			}
		}
	}
	return view
}
