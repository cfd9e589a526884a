// Package store defines the shared room store contract: one document per
// room, atomic partial updates and push subscriptions delivering the full
// document on every change.
package store

import (
	redis_models "Nhauzo/models/redis"
	"context"
	"errors"
)

var (
	// ErrRoomNotFound is returned when a room code does not resolve to a document
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists is returned when creating a room under a code already in use
	ErrRoomExists = errors.New("room already exists")
)

// SubscriptionBuffer is the channel capacity of a subscription
const SubscriptionBuffer = 32

// RoomStore is implemented by the Redis client and by MemoryStore.
//
// UpdateRoom merges the patch atomically, stamps lastUpdate and returns the
// resulting document. Subscribe delivers the current document first and
// then every new version; a nil value means the room was deleted, after
// which the channel is closed.
type RoomStore interface {
	CreateRoom(ctx context.Context, room *redis_models.GameRoom) error
	GetRoom(ctx context.Context, roomID string) (*redis_models.GameRoom, error)
	UpdateRoom(ctx context.Context, roomID string, patch redis_models.Patch) (*redis_models.GameRoom, error)
	RemoveRoom(ctx context.Context, roomID string) error
	Exists(ctx context.Context, roomID string) (bool, error)
	Subscribe(ctx context.Context, roomID string) (<-chan *redis_models.GameRoom, func(), error)
}
