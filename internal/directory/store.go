// Package directory is the session directory: the shared record of room
// membership every relay instance consults. Two implementations satisfy
// the same contract, a Redis-backed one for multi-instance deployments
// and an in-process one for single-instance runs and tests.
package directory

import (
	"context"

	"github.com/dkeye/Easel/internal/domain"
)

// Store holds room membership plus the reverse pointer user → room.
// Every call is atomic per affected room/user pair: the member set and
// the reverse pointer are never observable in an inconsistent state,
// even across concurrent callers from different processes.
type Store interface {
	// CreateRoom mints a new room with user as its only member and sets
	// the reverse pointer in the same step.
	CreateRoom(ctx context.Context, user domain.UserID) (domain.RoomID, error)

	// JoinRoom adds user to room only if the room exists at the moment of
	// the write. Returns false, not an error, when the room is absent —
	// including when a concurrent leave deleted it after the caller last
	// saw it alive.
	JoinRoom(ctx context.Context, room domain.RoomID, user domain.UserID) (bool, error)

	// LeaveRoom removes user from its current room, if any, and deletes
	// the room in the same step when the member set drains to zero.
	LeaveRoom(ctx context.Context, user domain.UserID) error

	// RoomUsers lists current members. A room that never existed and a
	// room that drained to empty both yield an empty slice.
	RoomUsers(ctx context.Context, room domain.RoomID) ([]domain.UserID, error)
}
