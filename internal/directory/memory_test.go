package directory

import (
	"context"
	"testing"

	"github.com/dkeye/Easel/internal/domain"
)

func TestCreateRoomSingleMember(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	room, err := s.CreateRoom(ctx, "u1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room == "" {
		t.Fatal("empty room id")
	}

	users, err := s.RoomUsers(ctx, room)
	if err != nil {
		t.Fatalf("RoomUsers: %v", err)
	}
	if len(users) != 1 || users[0] != "u1" {
		t.Fatalf("want [u1], got %v", users)
	}
}

func TestJoinMissingRoom(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	joined, err := s.JoinRoom(ctx, "never-created", "u1")
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if joined {
		t.Fatal("joined a room that does not exist")
	}
}

func TestLeaveDeletesEmptyRoom(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	room, _ := s.CreateRoom(ctx, "u1")
	if joined, _ := s.JoinRoom(ctx, room, "u2"); !joined {
		t.Fatal("u2 could not join")
	}

	if err := s.LeaveRoom(ctx, "u2"); err != nil {
		t.Fatalf("LeaveRoom u2: %v", err)
	}
	users, _ := s.RoomUsers(ctx, room)
	if len(users) != 1 || users[0] != "u1" {
		t.Fatalf("want [u1] after u2 left, got %v", users)
	}

	if err := s.LeaveRoom(ctx, "u1"); err != nil {
		t.Fatalf("LeaveRoom u1: %v", err)
	}

	// Drained room is gone: join fails, member listing is empty, not an error.
	if joined, _ := s.JoinRoom(ctx, room, "u3"); joined {
		t.Fatal("joined a drained room")
	}
	users, err := s.RoomUsers(ctx, room)
	if err != nil {
		t.Fatalf("RoomUsers after drain: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("want empty set, got %v", users)
	}
}

func TestLeaveWithoutRoomIsNoop(t *testing.T) {
	s := NewMemStore()
	if err := s.LeaveRoom(context.Background(), "nobody"); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
}

func TestCanceledContextSurfacesStoreUnavailable(t *testing.T) {
	s := NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.CreateRoom(ctx, "u1"); err != domain.ErrStoreUnavailable {
		t.Fatalf("want ErrStoreUnavailable, got %v", err)
	}
	if _, err := s.JoinRoom(ctx, "r", "u1"); err != domain.ErrStoreUnavailable {
		t.Fatalf("want ErrStoreUnavailable, got %v", err)
	}
}

func TestReversePointerFollowsLatestRoom(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	r1, _ := s.CreateRoom(ctx, "u1")
	r2, _ := s.CreateRoom(ctx, "u2")

	// u1 moves: leave r1, join r2. r1 drains and dies.
	if err := s.LeaveRoom(ctx, "u1"); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	if joined, _ := s.JoinRoom(ctx, r2, "u1"); !joined {
		t.Fatal("u1 could not join r2")
	}

	if joined, _ := s.JoinRoom(ctx, r1, "u3"); joined {
		t.Fatal("r1 should be gone")
	}

	// Leaving now must affect r2, the current room.
	if err := s.LeaveRoom(ctx, "u1"); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	users, _ := s.RoomUsers(ctx, r2)
	if len(users) != 1 || users[0] != "u2" {
		t.Fatalf("want [u2], got %v", users)
	}
}
