package redis

import (
	game_constants "Nhauzo/constants/game"
	redis_models "Nhauzo/models/redis"
	redis_utils "Nhauzo/services/redis/utils"
	"Nhauzo/services/store"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// maxUpdateRetries bounds the optimistic-lock loop of UpdateRoom
const maxUpdateRetries = 16

// deletedPayload is published on a room channel when the room is removed
const deletedPayload = "null"

var _ store.RoomStore = (*RedisClient)(nil)

// RedisClient handles Redis operations
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
	now    func() time.Time
}

// NewRedisClient creates a new Redis client instance. Addr is either
// "localhost:6379" or a redis:// URL.
func NewRedisClient(Addr string, DB int) (*RedisClient, error) {
	var client *redis.Client
	if Addr != "localhost:6379" {
		log.Info("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			return nil, fmt.Errorf("error parsing Redis URL: %v", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
		now:    time.Now,
	}, nil
}

// CreateRoom stores a new room document
// Key format: "room:{id}"
// TTL: 24 hours
func (rc *RedisClient) CreateRoom(ctx context.Context, room *redis_models.GameRoom) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("error marshaling room data: %v", err)
	}
	ok, err := rc.client.SetNX(ctx, redis_utils.FormatRoomKey(room.ID), data, game_constants.RoomTTL).Result()
	if err != nil {
		return fmt.Errorf("error saving room data: %v", err)
	}
	if !ok {
		return store.ErrRoomExists
	}
	return nil
}

// GetRoom retrieves a room document
// Key format: "room:{id}"
func (rc *RedisClient) GetRoom(ctx context.Context, roomID string) (*redis_models.GameRoom, error) {
	data, err := rc.client.Get(ctx, redis_utils.FormatRoomKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, store.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting room data: %v", err)
	}
	return redis_models.DecodeGameRoom(data)
}

// UpdateRoom merges patch into the stored document under WATCH, so
// concurrent writers never lose each other's fields, and publishes the
// result on "room:{id}:updates"
func (rc *RedisClient) UpdateRoom(ctx context.Context, roomID string, patch redis_models.Patch) (*redis_models.GameRoom, error) {
	key := redis_utils.FormatRoomKey(roomID)
	channel := redis_utils.FormatRoomChannel(roomID)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var room *redis_models.GameRoom
		err := rc.client.Watch(ctx, func(tx *redis.Tx) error {
			doc, err := tx.Get(ctx, key).Bytes()
			if err == redis.Nil {
				return store.ErrRoomNotFound
			}
			if err != nil {
				return fmt.Errorf("error getting room data: %v", err)
			}

			stamped := redis_models.Patch{}.Merge(patch)
			stamped["lastUpdate"] = rc.now().UnixMilli()
			merged, err := redis_models.ApplyPatch(doc, stamped)
			if err != nil {
				return err
			}
			if room, err = redis_models.DecodeGameRoom(merged); err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, merged, game_constants.RoomTTL)
				pipe.Publish(ctx, channel, merged)
				return nil
			})
			return err
		}, key)

		if err == nil {
			return room, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			log.WithField("room", roomID).Debug("[STORE] Concurrent write, retrying update")
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("error updating room %s: too much contention", roomID)
}

// RemoveRoom deletes the room and tells its subscribers
func (rc *RedisClient) RemoveRoom(ctx context.Context, roomID string) error {
	_, err := rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redis_utils.FormatRoomKey(roomID))
		pipe.Publish(ctx, redis_utils.FormatRoomChannel(roomID), deletedPayload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting room data: %v", err)
	}
	return nil
}

func (rc *RedisClient) Exists(ctx context.Context, roomID string) (bool, error) {
	n, err := rc.client.Exists(ctx, redis_utils.FormatRoomKey(roomID)).Result()
	if err != nil {
		return false, fmt.Errorf("error checking room: %v", err)
	}
	return n > 0, nil
}

// Subscribe listens on the room channel. The subscription is confirmed
// before the current document is read, so no version published in between
// is missed.
func (rc *RedisClient) Subscribe(ctx context.Context, roomID string) (<-chan *redis_models.GameRoom, func(), error) {
	pubsub := rc.client.Subscribe(ctx, redis_utils.FormatRoomChannel(roomID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("error subscribing to room: %v", err)
	}

	current, err := rc.GetRoom(ctx, roomID)
	if err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan *redis_models.GameRoom, store.SubscriptionBuffer)
	out <- current
	stop := make(chan struct{})
	go forward(roomID, pubsub.Channel(), out, stop, current.LastUpdate)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			pubsub.Close()
		})
	}
	return out, cancel, nil
}

// forward decodes channel messages into out until the room is deleted or
// the subscription is cancelled. Versions older than the last delivered one
// are skipped.
func forward(roomID string, msgs <-chan *redis.Message, out chan *redis_models.GameRoom, stop <-chan struct{}, seen int64) {
	defer close(out)
	for {
		select {
		case <-stop:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if msg.Payload == deletedPayload {
				store.Deliver(out, nil)
				return
			}
			room, err := redis_models.DecodeGameRoom([]byte(msg.Payload))
			if err != nil {
				log.WithField("room", roomID).Errorf("[STORE] Bad room update: %v", err)
				continue
			}
			if room.LastUpdate < seen {
				continue
			}
			seen = room.LastUpdate
			store.Deliver(out, room)
		}
	}
}
