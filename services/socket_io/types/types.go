package socketio_types

import (
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer is a struct that contains the socket.io server and the
// live connections of every player. A player may be connected from more
// than one tab.
type SocketServer struct {
	Sio_server *socket.Server
	// Map to track player key -> socket connections
	PlayerConnections map[string]map[socket.SocketId]*socket.Socket
	mutex             sync.RWMutex
}

// PlayerKey identifies a player across rooms
func PlayerKey(roomID, playerID string) string {
	return roomID + "/" + playerID
}

// Add methods to manage connections
func (s *SocketServer) AddConnection(key string, id socket.SocketId, client *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.PlayerConnections == nil {
		s.PlayerConnections = make(map[string]map[socket.SocketId]*socket.Socket)
	}
	conns, ok := s.PlayerConnections[key]
	if !ok {
		conns = make(map[socket.SocketId]*socket.Socket)
		s.PlayerConnections[key] = conns
	}
	conns[id] = client
}

// RemoveConnection forgets one socket and returns how many the player
// still has
func (s *SocketServer) RemoveConnection(key string, id socket.SocketId) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	conns := s.PlayerConnections[key]
	delete(conns, id)
	if len(conns) == 0 {
		delete(s.PlayerConnections, key)
		return 0
	}
	return len(conns)
}
