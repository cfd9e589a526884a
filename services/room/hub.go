// Package room runs the authority of every room: one actor goroutine per
// room that applies player intents and timer events through the game
// engine and writes the results to the room store.
package room

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
	"Nhauzo/services/game"
	"Nhauzo/services/store"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoRoomCode is returned when no free room code was found
	ErrNoRoomCode = errors.New("could not allocate a room code")
	// ErrHubClosed is returned once the server is shutting down
	ErrHubClosed = errors.New("room hub is shutting down")
)

// Hub is the registry of room actors
type Hub struct {
	store    store.RoomStore
	engine   *game.Engine
	clock    Clock
	recorder Recorder

	// NewCode and NewPlayerID are replaceable in tests
	NewCode     func() string
	NewPlayerID func() string

	mu      sync.Mutex
	actors  map[string]*Actor
	closing bool
}

// NewHub creates a hub. A nil recorder discards round results.
func NewHub(st store.RoomStore, engine *game.Engine, clock Clock, rec Recorder) *Hub {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Hub{
		store:       st,
		engine:      engine,
		clock:       clock,
		recorder:    rec,
		NewCode:     GenerateRoomCode,
		NewPlayerID: uuid.NewString,
		actors:      make(map[string]*Actor),
	}
}

// CreateRoom opens a room hosted by a new player named hostName and
// returns the document and the host's player id
func (h *Hub) CreateRoom(ctx context.Context, hostName string) (*redis_models.GameRoom, string, error) {
	if h.isClosing() {
		return nil, "", ErrHubClosed
	}
	hostID := h.NewPlayerID()
	for attempt := 0; attempt < game_constants.RoomCodeAttempts; attempt++ {
		room, err := h.engine.NewRoom(hostID, hostName, h.NewCode())
		if err != nil {
			return nil, "", err
		}
		err = h.store.CreateRoom(ctx, room)
		if errors.Is(err, store.ErrRoomExists) {
			log.WithField("room", room.ID).Debug("[CREATE] Room code taken, drawing another")
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("error creating room: %w", err)
		}

		h.mu.Lock()
		if !h.closing {
			h.startLocked(room)
		}
		h.mu.Unlock()
		log.WithFields(log.Fields{"room": room.ID, "player": hostID}).Info("[CREATE] Room created")
		return room, hostID, nil
	}
	return nil, "", ErrNoRoomCode
}

// JoinRoom adds a new player named name to the room behind code
func (h *Hub) JoinRoom(ctx context.Context, code, name string) (*redis_models.GameRoom, string, error) {
	roomID, err := game.NormalizeRoomCode(code)
	if err != nil {
		return nil, "", err
	}
	if _, err := game.NormalizeName(name); err != nil {
		return nil, "", err
	}
	playerID := h.NewPlayerID()
	room, err := h.patch(ctx, roomID, "JOIN", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.AddPlayer(r, playerID, name)
	})
	if err != nil {
		return nil, "", err
	}
	log.WithFields(log.Fields{"room": roomID, "player": playerID}).Info("[JOIN] Player joined")
	return room, playerID, nil
}

// Leave removes a player. The room is destroyed when the host leaves.
func (h *Hub) Leave(ctx context.Context, roomID, playerID string) error {
	a, err := h.actor(ctx, roomID)
	if err != nil {
		return err
	}
	_, err = a.Do(ctx, "LEAVE", func(r *redis_models.GameRoom) (outcome, error) {
		patch, closeRoom, err := h.engine.RemovePlayer(r, playerID)
		return outcome{patch: patch, closeRoom: closeRoom}, err
	})
	return err
}

// Disconnect is called when the last connection of a player drops. A host
// that disconnects takes the room down with them; other players keep
// their seat and may reconnect. Sockets dropped while the hub shuts down
// leave the room alone.
func (h *Hub) Disconnect(ctx context.Context, roomID, playerID string) error {
	if h.isClosing() {
		return nil
	}
	a, err := h.actor(ctx, roomID)
	if err != nil {
		return err
	}
	_, err = a.Do(ctx, "DISCONNECT", func(r *redis_models.GameRoom) (outcome, error) {
		return outcome{closeRoom: r.HostID == playerID}, nil
	})
	return err
}

// GetRoom returns the current document
func (h *Hub) GetRoom(ctx context.Context, roomID string) (*redis_models.GameRoom, error) {
	return h.store.GetRoom(ctx, roomID)
}

// Subscribe streams every version of the room, see store.RoomStore
func (h *Hub) Subscribe(ctx context.Context, roomID string) (<-chan *redis_models.GameRoom, func(), error) {
	return h.store.Subscribe(ctx, roomID)
}

func (h *Hub) StartRound(ctx context.Context, roomID, playerID string, mode redis_models.GameMode) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "START-ROUND", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.StartRound(r, playerID, mode)
	})
}

func (h *Hub) SubmitGuess(ctx context.Context, roomID, playerID string, number int) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "GUESS", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.SubmitGuess(r, playerID, number)
	})
}

func (h *Hub) CastVote(ctx context.Context, roomID, playerID, targetID string) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "VOTE", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.CastVote(r, playerID, targetID)
	})
}

func (h *Hub) TriggerSpin(ctx context.Context, roomID, playerID string) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "SPIN", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.TriggerSpin(r, playerID)
	})
}

func (h *Hub) DecidePenalty(ctx context.Context, roomID, playerID, choice string) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "DECIDE", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.DecidePenalty(r, playerID, choice)
	})
}

func (h *Hub) ChooseOpponent(ctx context.Context, roomID, playerID, targetID string) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "OPPONENT", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.ChooseOpponent(r, playerID, targetID)
	})
}

func (h *Hub) ChooseMinigame(ctx context.Context, roomID, playerID string, minigame redis_models.MinigameType) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "MINIGAME", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.ChooseMinigame(r, playerID, minigame)
	})
}

func (h *Hub) SubmitMove(ctx context.Context, roomID, playerID string, move game.Move) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "MOVE", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.SubmitMove(r, playerID, move)
	})
}

func (h *Hub) FlipCard(ctx context.Context, roomID, playerID string, index int) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "FLIP", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.FlipCard(r, playerID, index)
	})
}

func (h *Hub) ReturnToLobby(ctx context.Context, roomID, playerID string) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "LOBBY", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.ReturnToLobby(r, playerID)
	})
}

func (h *Hub) AddPenalty(ctx context.Context, roomID, playerID, text string, amount float64) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "PENALTY-ADD", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.AddPenalty(r, playerID, text, amount)
	})
}

func (h *Hub) UpdatePenalty(ctx context.Context, roomID, playerID string, index int, text string, amount float64) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "PENALTY-UPDATE", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.UpdatePenalty(r, playerID, index, text, amount)
	})
}

func (h *Hub) RemovePenalty(ctx context.Context, roomID, playerID string, index int) (*redis_models.GameRoom, error) {
	return h.patch(ctx, roomID, "PENALTY-REMOVE", func(r *redis_models.GameRoom) (redis_models.Patch, error) {
		return h.engine.RemovePenalty(r, playerID, index)
	})
}

// Close stops every actor and refuses further work. Room documents stay
// in the store.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closing = true
	actors := make([]*Actor, 0, len(h.actors))
	for _, a := range h.actors {
		actors = append(actors, a)
	}
	h.mu.Unlock()

	for _, a := range actors {
		a.Do(context.Background(), "SHUTDOWN", func(*redis_models.GameRoom) (outcome, error) {
			return outcome{halt: true}, nil
		})
	}
}

func (h *Hub) patch(ctx context.Context, roomID, name string, f func(*redis_models.GameRoom) (redis_models.Patch, error)) (*redis_models.GameRoom, error) {
	a, err := h.actor(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return a.Do(ctx, name, patchOp(f))
}

// actor returns the running actor of a room, starting one from the stored
// document when this process has none yet
func (h *Hub) actor(ctx context.Context, roomID string) (*Actor, error) {
	h.mu.Lock()
	a, ok := h.actors[roomID]
	closing := h.closing
	h.mu.Unlock()
	if closing {
		return nil, ErrHubClosed
	}
	if ok {
		return a, nil
	}

	room, err := h.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return nil, ErrHubClosed
	}
	if a, ok := h.actors[roomID]; ok {
		return a, nil
	}
	log.WithField("room", roomID).Info("[HUB] Resuming room from store")
	return h.startLocked(room), nil
}

func (h *Hub) isClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

func (h *Hub) startLocked(room *redis_models.GameRoom) *Actor {
	var a *Actor
	a = newActor(room, h.store, h.engine, h.clock, h.recorder, func(id string) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.actors[id] == a {
			delete(h.actors, id)
		}
	})
	h.actors[room.ID] = a
	go a.run()
	return a
}
