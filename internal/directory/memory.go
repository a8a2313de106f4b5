package directory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dkeye/Easel/internal/domain"
)

// MemStore is the in-process Store for single-instance deployments.
// One mutex over both maps gives the same per-call atomicity the Redis
// scripts give: membership and reverse pointer move together.
type MemStore struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]map[domain.UserID]struct{}
	users map[domain.UserID]domain.RoomID
}

func NewMemStore() *MemStore {
	return &MemStore{
		rooms: make(map[domain.RoomID]map[domain.UserID]struct{}),
		users: make(map[domain.UserID]domain.RoomID),
	}
}

func (s *MemStore) CreateRoom(ctx context.Context, user domain.UserID) (domain.RoomID, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.ErrStoreUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room := domain.RoomID(uuid.NewString())
	s.rooms[room] = map[domain.UserID]struct{}{user: {}}
	s.users[user] = room
	return room, nil
}

func (s *MemStore) JoinRoom(ctx context.Context, room domain.RoomID, user domain.UserID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, domain.ErrStoreUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.rooms[room]
	if !ok {
		return false, nil
	}
	members[user] = struct{}{}
	s.users[user] = room
	return true, nil
}

func (s *MemStore) LeaveRoom(ctx context.Context, user domain.UserID) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrStoreUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.users[user]
	if !ok {
		return nil
	}
	delete(s.users, user)
	if members, ok := s.rooms[room]; ok {
		delete(members, user)
		if len(members) == 0 {
			delete(s.rooms, room)
		}
	}
	return nil
}

func (s *MemStore) RoomUsers(ctx context.Context, room domain.RoomID) ([]domain.UserID, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.rooms[room]
	out := make([]domain.UserID, 0, len(members))
	for u := range members {
		out = append(out, u)
	}
	return out, nil
}
