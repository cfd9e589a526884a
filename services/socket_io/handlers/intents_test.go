package handlers

import (
	redis_models "Nhauzo/models/redis"
	"Nhauzo/services/game"
	"Nhauzo/services/room"
	"Nhauzo/services/store"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *room.Hub {
	t.Helper()
	settings := game.DefaultSettings()
	settings.RevealDelay = 10 * time.Millisecond
	hub := room.NewHub(store.NewMemoryStore(), game.NewEngine(settings, nil, nil), room.RealClock(), nil)
	hub.NewCode = func() string { return "ABCD" }
	t.Cleanup(hub.Close)
	return hub
}

func send(t *testing.T, hub *room.Hub, p Player, event string, payload any) error {
	t.Helper()
	intent, ok := Intents[event]
	require.True(t, ok, "unknown event %s", event)
	raw, err := PayloadOf([]any{payload})
	require.NoError(t, err)
	return intent(context.Background(), hub, p, raw)
}

func state(t *testing.T, hub *room.Hub) *redis_models.GameRoom {
	t.Helper()
	r, err := hub.GetRoom(context.Background(), "ABCD")
	require.NoError(t, err)
	return r
}

func TestEveryClientEventIsHandled(t *testing.T) {
	for _, event := range []string{
		"start_round", "submit_guess", "cast_vote", "trigger_spin", "decide_penalty",
		"choose_opponent", "choose_minigame", "submit_move", "flip_card", "return_to_lobby",
		"add_penalty", "update_penalty", "remove_penalty",
	} {
		assert.Contains(t, Intents, event)
	}
}

func TestIntentsDriveADuelRound(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()
	_, hostID, err := hub.CreateRoom(ctx, "An")
	require.NoError(t, err)
	_, guestID, err := hub.JoinRoom(ctx, "ABCD", "Binh")
	require.NoError(t, err)
	host := Player{RoomID: "ABCD", PlayerID: hostID}
	guest := Player{RoomID: "ABCD", PlayerID: guestID}

	assert.ErrorIs(t, send(t, hub, guest, "start_round", map[string]any{"mode": "VOTING"}), game.ErrNotAllowed)
	require.NoError(t, send(t, hub, host, "start_round", map[string]any{"mode": "VOTING"}))
	assert.Equal(t, redis_models.StatePickingLoser, state(t, hub).State)

	require.NoError(t, send(t, hub, host, "cast_vote", map[string]any{"target_id": guestID}))
	assert.ErrorIs(t, send(t, hub, host, "cast_vote", map[string]any{"target_id": guestID}), game.ErrAlreadySubmitted)
	require.NoError(t, send(t, hub, guest, "cast_vote", map[string]any{"target_id": guestID}))

	r := state(t, hub)
	require.Equal(t, redis_models.StateDecidingPenalty, r.State)
	require.Equal(t, guestID, r.CurrentLoserID)

	require.NoError(t, send(t, hub, guest, "decide_penalty", map[string]any{"choice": "DUEL"}))
	require.NoError(t, send(t, hub, guest, "choose_opponent", map[string]any{"target_id": hostID}))
	require.NoError(t, send(t, hub, guest, "choose_minigame", map[string]any{"type": "RPS"}))
	assert.Equal(t, redis_models.StateMinigameDuel, state(t, hub).State)

	require.NoError(t, send(t, hub, guest, "submit_move", map[string]any{"choice": "rock"}))
	require.NoError(t, send(t, hub, host, "submit_move", map[string]any{"choice": "paper"}))

	require.Eventually(t, func() bool {
		return state(t, hub).State == redis_models.StateResult
	}, 2*time.Second, 10*time.Millisecond)
	r = state(t, hub)
	assert.Equal(t, guestID, r.WinnerID)

	require.NoError(t, send(t, hub, host, "return_to_lobby", nil))
	assert.Equal(t, redis_models.StateLobby, state(t, hub).State)
}

func TestPenaltyIntents(t *testing.T) {
	hub := newTestHub(t)
	_, hostID, err := hub.CreateRoom(context.Background(), "An")
	require.NoError(t, err)
	host := Player{RoomID: "ABCD", PlayerID: hostID}
	before := len(state(t, hub).Penalties)

	require.NoError(t, send(t, hub, host, "add_penalty", map[string]any{"text": "Hát một bài", "amount": 0.5}))
	penalties := state(t, hub).Penalties
	require.Len(t, penalties, before+1)
	assert.Equal(t, "Hát một bài", penalties[before].Text)

	require.NoError(t, send(t, hub, host, "update_penalty", map[string]any{"index": before, "text": "Hát hai bài", "amount": 1}))
	assert.Equal(t, "Hát hai bài", state(t, hub).Penalties[before].Text)

	require.NoError(t, send(t, hub, host, "remove_penalty", map[string]any{"index": before}))
	assert.Len(t, state(t, hub).Penalties, before)
}

func TestIntentPayloadValidation(t *testing.T) {
	hub := newTestHub(t)
	_, hostID, err := hub.CreateRoom(context.Background(), "An")
	require.NoError(t, err)
	host := Player{RoomID: "ABCD", PlayerID: hostID}

	cases := map[string]any{
		"submit_guess":   map[string]any{},
		"flip_card":      map[string]any{},
		"remove_penalty": map[string]any{},
		"update_penalty": map[string]any{"text": "x"},
		"start_round":    map[string]any{"mode": 3},
	}
	for event, payload := range cases {
		t.Run(event, func(t *testing.T) {
			assert.ErrorIs(t, send(t, hub, host, event, payload), game.ErrValidation)
		})
	}

	t.Run("Not JSON", func(t *testing.T) {
		raw, err := PayloadOf([]any{"{nope"})
		require.NoError(t, err)
		assert.ErrorIs(t, Intents["cast_vote"](context.Background(), hub, host, raw), game.ErrValidation)
	})
}

func TestPayloadOf(t *testing.T) {
	raw, err := PayloadOf(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	raw, err = PayloadOf([]any{map[string]any{"index": 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":2}`, string(raw))

	raw, err = PayloadOf([]any{`{"choice":"rock"}`})
	require.NoError(t, err)
	var move movePayload
	require.NoError(t, json.Unmarshal(raw, &move))
	assert.Equal(t, "rock", move.Choice)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Phòng đã đóng", message(nil))
	assert.Equal(t, "Bạn thao tác quá nhanh", message(ErrRateLimited))
	assert.Equal(t, "Phòng không tồn tại", message(store.ErrRoomNotFound))
}
