package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Easel/internal/directory"
	"github.com/dkeye/Easel/internal/domain"
)

// Relay coordinates membership transitions across the directory, the
// fabric and the registry. It keeps the one-room-per-user invariant by
// always draining the current room before entering another.
type Relay struct {
	Registry *Registry
	Fabric   *Fabric
	Store    directory.Store
	Policy   Policy
}

// Leave drains the user's current room: directory removal first, then
// fabric unsubscribe and the local pointer. Returns the former room so
// the caller can fan out the departure. Idempotent; a roomless user is
// a no-op. The directory write must come first: when it fails, the
// local pointer stays put so the next leave/create/join retries the
// removal instead of abandoning the user inside the room's member set.
func (r *Relay) Leave(ctx context.Context, uid domain.UserID) (domain.RoomID, bool, error) {
	room, ok := r.Registry.RoomOf(uid)
	if !ok {
		return "", false, nil
	}
	if err := r.Store.LeaveRoom(ctx, uid); err != nil {
		return room, true, err
	}
	r.Fabric.Unsubscribe(uid, room)
	r.Registry.ClearRoom(uid)
	log.Info().Str("module", "app.relay").Str("user", string(uid)).Str("room", string(room)).Msg("left room")
	return room, true, nil
}

// Create mints a fresh room with the user as its only member. The
// caller must have drained the current room first.
func (r *Relay) Create(ctx context.Context, uid domain.UserID) (domain.RoomID, error) {
	room, err := r.Store.CreateRoom(ctx, uid)
	if err != nil {
		return "", err
	}
	if conn, ok := r.Registry.Conn(uid); ok {
		r.Fabric.Subscribe(uid, room, conn)
	}
	r.Registry.SetRoom(uid, room)
	log.Info().Str("module", "app.relay").Str("user", string(uid)).Str("room", string(room)).Msg("created room")
	return room, nil
}

// Join enters an existing room. ErrRoomNotFound when the room is absent
// at the moment of the directory write — including a room torn down
// between the caller's check and now. The user stays roomless then; a
// failed join never restores the room just left.
func (r *Relay) Join(ctx context.Context, uid domain.UserID, room domain.RoomID) error {
	joined, err := r.Store.JoinRoom(ctx, room, uid)
	if err != nil {
		return err
	}
	if !joined {
		return domain.ErrRoomNotFound
	}
	if conn, ok := r.Registry.Conn(uid); ok {
		r.Fabric.Subscribe(uid, room, conn)
	}
	r.Registry.SetRoom(uid, room)
	log.Info().Str("module", "app.relay").Str("user", string(uid)).Str("room", string(room)).Msg("joined room")
	return nil
}

// Disconnect applies leave semantics for a connection whose transport
// is gone, then unbinds it. Safe to call more than once.
func (r *Relay) Disconnect(ctx context.Context, uid domain.UserID) (domain.RoomID, bool) {
	room, was, err := r.Leave(ctx, uid)
	if err != nil {
		// Transport is gone, nobody to report to. The directory entry
		// outlives the connection until the store is reachable again; a
		// fresh connection gets a fresh identity, so it cannot collide.
		log.Error().Err(err).Str("module", "app.relay").Str("user", string(uid)).Msg("disconnect leave")
	}
	r.Registry.Cancel(uid)
	r.Registry.Unbind(uid)
	return room, was
}

// RoomUsers passes through to the directory; no membership requirement
// on the caller.
func (r *Relay) RoomUsers(ctx context.Context, room domain.RoomID) ([]domain.UserID, error) {
	return r.Store.RoomUsers(ctx, room)
}

// OnDropped applies the backpressure policy to subscribers that missed
// a publish.
func (r *Relay) OnDropped(room domain.RoomID, res PublishResult) {
	if r.Policy == nil || len(res.Dropped) == 0 {
		return
	}
	for _, slow := range res.Dropped {
		switch r.Policy.OnBackPressure(string(room), slow) {
		case KickSubscriber:
			r.Registry.Cancel(domain.UserID(slow))
		case DropFrame, NoAction:
			log.Warn().Str("module", "app.relay").Str("room", string(room)).Str("user", slow).Msg("dropped frame for slow subscriber")
		}
	}
}
