package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Easel/internal/domain"
)

// leaveCurrent is the implicit-leave step shared by create and join:
// drain the current room, if any, and tell it the user is gone. The
// reply to the triggering request is the caller's business.
func (ctl *Controller) leaveCurrent(ctx context.Context, uid domain.UserID) error {
	room, was, err := ctl.Relay.Leave(ctx, uid)
	if err != nil {
		return err
	}
	if was {
		ctl.publishJSON(room, uid, struct {
			Type   string `json:"type"`
			UserID string `json:"userId"`
		}{"user_left", string(uid)})
	}
	return nil
}

func (ctl *Controller) handleCreate(ctx context.Context, uid domain.UserID) {
	if !ctl.Limiter.Allow(uid) {
		ctl.sendErr(uid, "Too many room changes")
		return
	}
	if err := ctl.leaveCurrent(ctx, uid); err != nil {
		ctl.storeErr(uid, err)
		return
	}
	room, err := ctl.Relay.Create(ctx, uid)
	if err != nil {
		ctl.storeErr(uid, err)
		return
	}
	ctl.sendJSON(uid, struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
	}{"room_created", string(room), string(uid)})
}

func (ctl *Controller) handleJoin(ctx context.Context, uid domain.UserID, data []byte) {
	type joinPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Warn().Str("module", "signal").Str("user", string(uid)).Msg("bad join payload")
		ctl.sendErr(uid, "Malformed message")
		return
	}
	if !ctl.Limiter.Allow(uid) {
		ctl.sendErr(uid, "Too many room changes")
		return
	}

	// The implicit leave is not rolled back when the join below fails;
	// the connection stays roomless then.
	if err := ctl.leaveCurrent(ctx, uid); err != nil {
		ctl.storeErr(uid, err)
		return
	}

	// Ids longer than the generator ever mints cannot name a room; same
	// outcome as a missing room, without a store round trip.
	if len(p.RoomID) > domain.MaxIDLen {
		ctl.sendErr(uid, "Room not found")
		return
	}

	room := domain.RoomID(p.RoomID)
	if err := ctl.Relay.Join(ctx, uid, room); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			ctl.sendErr(uid, "Room not found")
			return
		}
		ctl.storeErr(uid, err)
		return
	}

	ctl.sendJSON(uid, struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
	}{"room_joined", string(room), string(uid)})

	ctl.publishJSON(room, uid, struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}{"user_joined", string(uid)})
}

// handleLeave replies only when the user actually was in a room; a
// roomless leave_room stays silent.
func (ctl *Controller) handleLeave(ctx context.Context, uid domain.UserID) {
	room, was, err := ctl.Relay.Leave(ctx, uid)
	if err != nil {
		ctl.storeErr(uid, err)
		return
	}
	if !was {
		return
	}
	ctl.sendJSON(uid, struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}{"room_left", string(uid)})

	ctl.publishJSON(room, uid, struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}{"user_left", string(uid)})
}

// handleRoomUsers answers for any room id; membership of the caller is
// not checked.
func (ctl *Controller) handleRoomUsers(ctx context.Context, uid domain.UserID, data []byte) {
	type usersPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	var p usersPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendErr(uid, "Malformed message")
		return
	}

	users, err := ctl.Relay.RoomUsers(ctx, domain.RoomID(p.RoomID))
	if err != nil {
		ctl.storeErr(uid, err)
		return
	}
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, string(u))
	}
	ctl.sendJSON(uid, struct {
		Type   string   `json:"type"`
		RoomID string   `json:"roomId"`
		Users  []string `json:"users"`
	}{"room_users", p.RoomID, out})
}

func (ctl *Controller) storeErr(uid domain.UserID, err error) {
	log.Error().Err(err).Str("module", "signal").Str("user", string(uid)).Msg("directory error")
	ctl.sendErr(uid, "Store unavailable")
}
