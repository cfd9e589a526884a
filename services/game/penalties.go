package game

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// DefaultPenalties is the wheel a new room starts with
func DefaultPenalties() []redis_models.Penalty {
	return []redis_models.Penalty{
		{Text: "Uống 1 ly", Amount: 1},
		{Text: "Uống 2 ly", Amount: 2},
		{Text: "Hôn người bên cạnh", Amount: 1},
		{Text: "Thoát nạn", Amount: 0},
		{Text: "Chỉ định 1 người uống", Amount: 1},
		{Text: "Uống cạn ly", Amount: 3},
	}
}

func normalizePenalty(text string, amount float64) (redis_models.Penalty, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return redis_models.Penalty{}, fmt.Errorf("%w: penalty text is required", ErrValidation)
	}
	if utf8.RuneCountInString(text) > game_constants.PenaltyTextMaxLength {
		return redis_models.Penalty{}, fmt.Errorf("%w: penalty text longer than %d characters", ErrValidation, game_constants.PenaltyTextMaxLength)
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return redis_models.Penalty{}, fmt.Errorf("%w: penalty amount must be a non-negative number", ErrValidation)
	}
	return redis_models.Penalty{Text: text, Amount: amount}, nil
}

func penaltyEditor(room *redis_models.GameRoom, requesterID string) error {
	if requesterID != room.HostID {
		return ErrNotAllowed
	}
	if room.State != redis_models.StateLobby {
		return ErrWrongPhase
	}
	return nil
}

// AddPenalty appends an entry to the wheel
func (e *Engine) AddPenalty(room *redis_models.GameRoom, requesterID, text string, amount float64) (redis_models.Patch, error) {
	if err := penaltyEditor(room, requesterID); err != nil {
		return nil, err
	}
	p, err := normalizePenalty(text, amount)
	if err != nil {
		return nil, err
	}
	penalties := append(append([]redis_models.Penalty{}, room.Penalties...), p)
	return redis_models.Patch{"penalties": penalties}, nil
}

// UpdatePenalty replaces the entry at index
func (e *Engine) UpdatePenalty(room *redis_models.GameRoom, requesterID string, index int, text string, amount float64) (redis_models.Patch, error) {
	if err := penaltyEditor(room, requesterID); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(room.Penalties) {
		return nil, fmt.Errorf("%w: no penalty at index %d", ErrValidation, index)
	}
	p, err := normalizePenalty(text, amount)
	if err != nil {
		return nil, err
	}
	penalties := append([]redis_models.Penalty{}, room.Penalties...)
	penalties[index] = p
	return redis_models.Patch{"penalties": penalties}, nil
}

// RemovePenalty deletes the entry at index. The wheel may end up empty;
// accepting a penalty then fails until the host adds one.
func (e *Engine) RemovePenalty(room *redis_models.GameRoom, requesterID string, index int) (redis_models.Patch, error) {
	if err := penaltyEditor(room, requesterID); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(room.Penalties) {
		return nil, fmt.Errorf("%w: no penalty at index %d", ErrValidation, index)
	}
	penalties := make([]redis_models.Penalty, 0, len(room.Penalties)-1)
	penalties = append(penalties, room.Penalties[:index]...)
	penalties = append(penalties, room.Penalties[index+1:]...)
	return redis_models.Patch{"penalties": penalties}, nil
}
