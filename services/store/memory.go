package store

import (
	redis_models "Nhauzo/models/redis"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type memoryRoom struct {
	doc         []byte
	subscribers map[chan *redis_models.GameRoom]struct{}
}

// MemoryStore keeps room documents in process. Used when Redis is not
// configured and in tests.
type MemoryStore struct {
	rooms map[string]*memoryRoom
	mu    sync.Mutex
	now   func() time.Time
}

// NewMemoryStore creates an empty store stamping lastUpdate with time.Now
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty store using now for lastUpdate
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*memoryRoom),
		now:   now,
	}
}

func (s *MemoryStore) CreateRoom(ctx context.Context, room *redis_models.GameRoom) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("error marshaling room data: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.ID]; exists {
		return ErrRoomExists
	}
	s.rooms[room.ID] = &memoryRoom{
		doc:         doc,
		subscribers: make(map[chan *redis_models.GameRoom]struct{}),
	}
	return nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, roomID string) (*redis_models.GameRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[roomID]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return redis_models.DecodeGameRoom(r.doc)
}

func (s *MemoryStore) UpdateRoom(ctx context.Context, roomID string, patch redis_models.Patch) (*redis_models.GameRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[roomID]
	if !exists {
		return nil, ErrRoomNotFound
	}

	stamped := redis_models.Patch{}.Merge(patch)
	stamped["lastUpdate"] = s.now().UnixMilli()
	doc, err := redis_models.ApplyPatch(r.doc, stamped)
	if err != nil {
		return nil, err
	}
	room, err := redis_models.DecodeGameRoom(doc)
	if err != nil {
		return nil, err
	}
	r.doc = doc

	for ch := range r.subscribers {
		Deliver(ch, room.Clone())
	}
	return room, nil
}

func (s *MemoryStore) RemoveRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[roomID]
	if !exists {
		return nil
	}
	delete(s.rooms, roomID)
	for ch := range r.subscribers {
		Deliver(ch, nil)
		close(ch)
	}
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.rooms[roomID]
	return exists, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, roomID string) (<-chan *redis_models.GameRoom, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[roomID]
	if !exists {
		return nil, nil, ErrRoomNotFound
	}
	current, err := redis_models.DecodeGameRoom(r.doc)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan *redis_models.GameRoom, SubscriptionBuffer)
	ch <- current
	r.subscribers[ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			// the room may be gone already, in which case ch is closed
			if r, ok := s.rooms[roomID]; ok {
				if _, ok := r.subscribers[ch]; ok {
					delete(r.subscribers, ch)
					close(ch)
				}
			}
		})
	}
	return ch, cancel, nil
}

// Deliver never blocks the writer. A subscriber a full buffer behind loses
// its oldest pending version.
func Deliver(ch chan *redis_models.GameRoom, room *redis_models.GameRoom) {
	for {
		select {
		case ch <- room:
			return
		default:
		}
		select {
		case <-ch:
			log.Warn("[STORE] Subscriber lagging, dropped an outdated room version")
		default:
		}
	}
}
