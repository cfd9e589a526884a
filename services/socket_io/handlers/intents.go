package handlers

import (
	redis_models "Nhauzo/models/redis"
	"Nhauzo/services/game"
	"Nhauzo/services/room"
	"context"
	"encoding/json"
	"fmt"
)

// Player is the authenticated member behind a socket
type Player struct {
	RoomID   string
	PlayerID string
}

// Intent applies one client event to the room. Resulting documents reach
// the clients through the room subscription, not through the return value.
type Intent func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error

type modePayload struct {
	Mode redis_models.GameMode `json:"mode"`
}

type guessPayload struct {
	Number *int `json:"number"`
}

type targetPayload struct {
	TargetID string `json:"target_id"`
}

type choicePayload struct {
	Choice string `json:"choice"`
}

type minigamePayload struct {
	Type redis_models.MinigameType `json:"type"`
}

type movePayload struct {
	Choice string `json:"choice"`
	Taps   *int   `json:"taps"`
}

type indexPayload struct {
	Index *int `json:"index"`
}

type penaltyPayload struct {
	Index  *int    `json:"index"`
	Text   string  `json:"text"`
	Amount float64 `json:"amount"`
}

// Intents maps client events to hub operations
var Intents = map[string]Intent{
	"start_round": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req modePayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		_, err := hub.StartRound(ctx, p.RoomID, p.PlayerID, req.Mode)
		return err
	},
	"submit_guess": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req guessPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		if req.Number == nil {
			return fmt.Errorf("%w: number is required", game.ErrValidation)
		}
		_, err := hub.SubmitGuess(ctx, p.RoomID, p.PlayerID, *req.Number)
		return err
	},
	"cast_vote": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req targetPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		_, err := hub.CastVote(ctx, p.RoomID, p.PlayerID, req.TargetID)
		return err
	},
	"trigger_spin": func(ctx context.Context, hub *room.Hub, p Player, _ json.RawMessage) error {
		_, err := hub.TriggerSpin(ctx, p.RoomID, p.PlayerID)
		return err
	},
	"decide_penalty": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req choicePayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		_, err := hub.DecidePenalty(ctx, p.RoomID, p.PlayerID, req.Choice)
		return err
	},
	"choose_opponent": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req targetPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		_, err := hub.ChooseOpponent(ctx, p.RoomID, p.PlayerID, req.TargetID)
		return err
	},
	"choose_minigame": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req minigamePayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		_, err := hub.ChooseMinigame(ctx, p.RoomID, p.PlayerID, req.Type)
		return err
	},
	"submit_move": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req movePayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		_, err := hub.SubmitMove(ctx, p.RoomID, p.PlayerID, game.Move{Choice: req.Choice, Taps: req.Taps})
		return err
	},
	"flip_card": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req indexPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		if req.Index == nil {
			return fmt.Errorf("%w: index is required", game.ErrValidation)
		}
		_, err := hub.FlipCard(ctx, p.RoomID, p.PlayerID, *req.Index)
		return err
	},
	"return_to_lobby": func(ctx context.Context, hub *room.Hub, p Player, _ json.RawMessage) error {
		_, err := hub.ReturnToLobby(ctx, p.RoomID, p.PlayerID)
		return err
	},
	"add_penalty": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req penaltyPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		_, err := hub.AddPenalty(ctx, p.RoomID, p.PlayerID, req.Text, req.Amount)
		return err
	},
	"update_penalty": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req penaltyPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		if req.Index == nil {
			return fmt.Errorf("%w: index is required", game.ErrValidation)
		}
		_, err := hub.UpdatePenalty(ctx, p.RoomID, p.PlayerID, *req.Index, req.Text, req.Amount)
		return err
	},
	"remove_penalty": func(ctx context.Context, hub *room.Hub, p Player, payload json.RawMessage) error {
		var req indexPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		if req.Index == nil {
			return fmt.Errorf("%w: index is required", game.ErrValidation)
		}
		_, err := hub.RemovePenalty(ctx, p.RoomID, p.PlayerID, *req.Index)
		return err
	},
}

// PayloadOf turns the first event argument into raw JSON. Events without
// arguments get an empty object.
func PayloadOf(args []any) (json.RawMessage, error) {
	if len(args) == 0 || args[0] == nil {
		return json.RawMessage("{}"), nil
	}
	if s, ok := args[0].(string); ok {
		return json.RawMessage(s), nil
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrValidation, err)
	}
	return raw, nil
}

func decode(payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %v", game.ErrValidation, err)
	}
	return nil
}
