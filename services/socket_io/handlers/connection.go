package handlers

import (
	redis_models "Nhauzo/models/redis"
	"Nhauzo/services/game"
	"Nhauzo/services/room"
	socketio_types "Nhauzo/services/socket_io/types"
	"Nhauzo/services/store"
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zishang520/socket.io/v2/socket"
	"golang.org/x/time/rate"
)

// Per-socket intent budget
const (
	IntentRate  = rate.Limit(10)
	IntentBurst = 20
)

const intentTimeout = 5 * time.Second

// ErrRateLimited is emitted when a socket sends intents too fast
var ErrRateLimited = errors.New("too many actions, slow down")

// Session is one authenticated socket of a player
type Session struct {
	Player
	hub     *room.Hub
	client  *socket.Socket
	sio     *socketio_types.SocketServer
	limiter *rate.Limiter
	cancel  func()
}

// HandleConnection wires an authenticated client: it joins the socket.io
// room, streams the room document and accepts intents
func HandleConnection(hub *room.Hub, client *socket.Socket, sio *socketio_types.SocketServer, p Player) {
	ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
	defer cancel()

	gameRoom, err := hub.GetRoom(ctx, p.RoomID)
	if err == nil && !gameRoom.HasPlayer(p.PlayerID) {
		err = game.ErrUnknownPlayer
	}
	if err != nil {
		log.WithFields(log.Fields{"room": p.RoomID, "player": p.PlayerID}).Infof("[CONNECT-ERROR] %v", err)
		emitClosed(client, p.RoomID, err)
		client.Disconnect(true)
		return
	}

	updates, unsubscribe, err := hub.Subscribe(context.Background(), p.RoomID)
	if err != nil {
		emitClosed(client, p.RoomID, err)
		client.Disconnect(true)
		return
	}

	s := &Session{
		Player:  p,
		hub:     hub,
		client:  client,
		sio:     sio,
		limiter: rate.NewLimiter(IntentRate, IntentBurst),
		cancel:  unsubscribe,
	}
	client.Join(socket.Room(p.RoomID))
	sio.AddConnection(socketio_types.PlayerKey(p.RoomID, p.PlayerID), client.Id(), client)
	go s.forward(updates)

	for event, intent := range Intents {
		client.On(event, s.handle(event, intent))
	}
	client.On("get_room", s.handleGetRoom)
	client.On("leave_room", s.handleLeave)
	client.On("disconnecting", s.handleDisconnecting)

	log.WithFields(log.Fields{"room": p.RoomID, "player": p.PlayerID}).Infof("[CONNECT] Socket %s connected", client.Id())
}

// forward pushes every room version to the client until the room is gone
// or the socket leaves
func (s *Session) forward(updates <-chan *redis_models.GameRoom) {
	for gameRoom := range updates {
		if gameRoom == nil {
			emitClosed(s.client, s.RoomID, nil)
			s.client.Leave(socket.Room(s.RoomID))
			return
		}
		s.client.Emit("room_update", game.PublicView(gameRoom))
	}
}

func (s *Session) handle(event string, intent Intent) func(args ...any) {
	return func(args ...any) {
		entry := log.WithFields(log.Fields{"room": s.RoomID, "player": s.PlayerID, "event": event})
		if !s.limiter.Allow() {
			entry.Warn("[INTENT] Rate limited")
			s.emitError(event, ErrRateLimited)
			return
		}

		payload, err := PayloadOf(args)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
			err = intent(ctx, s.hub, s.Player, payload)
			cancel()
		}
		if err != nil {
			entry.Infof("[INTENT-ERROR] %v", err)
			s.emitError(event, err)
			return
		}
		entry.Debug("[INTENT] Applied")
	}
}

func (s *Session) handleGetRoom(args ...any) {
	ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
	defer cancel()
	gameRoom, err := s.hub.GetRoom(ctx, s.RoomID)
	if err != nil {
		s.emitError("get_room", err)
		return
	}
	s.client.Emit("room_update", game.PublicView(gameRoom))
}

func (s *Session) handleLeave(args ...any) {
	ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
	defer cancel()
	if err := s.hub.Leave(ctx, s.RoomID, s.PlayerID); err != nil {
		s.emitError("leave_room", err)
		return
	}
	log.WithFields(log.Fields{"room": s.RoomID, "player": s.PlayerID}).Info("[LEAVE] Player left")
	s.client.Leave(socket.Room(s.RoomID))
	s.client.Disconnect(true)
}

// handleDisconnecting drops the connection. Only when the player has no
// socket left does the hub hear about it, which closes the room if they
// were the host.
func (s *Session) handleDisconnecting(args ...any) {
	s.cancel()
	remaining := s.sio.RemoveConnection(socketio_types.PlayerKey(s.RoomID, s.PlayerID), s.client.Id())
	entry := log.WithFields(log.Fields{"room": s.RoomID, "player": s.PlayerID})
	if remaining > 0 {
		entry.Debugf("[DISCONNECT] Socket closed, %d left", remaining)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
	defer cancel()
	if err := s.hub.Disconnect(ctx, s.RoomID, s.PlayerID); err != nil && !errors.Is(err, store.ErrRoomNotFound) {
		entry.Debugf("[DISCONNECT] %v", err)
	}
	entry.Info("[DISCONNECT] Player disconnected")
}

func (s *Session) emitError(event string, err error) {
	s.client.Emit("error", gin.H{
		"event":   event,
		"error":   err.Error(),
		"message": message(err),
	})
}

func emitClosed(client *socket.Socket, roomID string, err error) {
	client.Emit("room_closed", gin.H{
		"room_id": roomID,
		"message": message(err),
	})
}

func message(err error) string {
	if err == nil {
		return "Phòng đã đóng"
	}
	if errors.Is(err, ErrRateLimited) {
		return "Bạn thao tác quá nhanh"
	}
	return game.UserMessage(err)
}
