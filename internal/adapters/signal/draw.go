package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Easel/internal/app"
	"github.com/dkeye/Easel/internal/domain"
)

// handleDraw relays a stroke to every other subscriber of the sender's
// room. The inbound frame is forwarded as-is so the payload survives
// byte for byte; it is only parsed here to reject garbage early.
func (ctl *Controller) handleDraw(ctx context.Context, uid domain.UserID, data []byte) {
	room, ok := ctl.Relay.Registry.RoomOf(uid)
	if !ok {
		ctl.sendErr(uid, "Not in a room")
		return
	}

	type drawPayload struct {
		Type string `json:"type"`
		domain.Stroke
	}
	var p drawPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Str("module", "signal").Str("user", string(uid)).Msg("bad draw payload")
		ctl.sendErr(uid, "Malformed message")
		return
	}

	res := ctl.Relay.Fabric.Publish(room, app.Frame(data), uid)
	ctl.Relay.OnDropped(room, res)
}

// handleBroadcast fans an opaque payload out to the whole room, the
// sender included.
func (ctl *Controller) handleBroadcast(ctx context.Context, uid domain.UserID, data []byte) {
	room, ok := ctl.Relay.Registry.RoomOf(uid)
	if !ok {
		ctl.sendErr(uid, "Not in a room")
		return
	}

	type broadcastPayload struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	var p broadcastPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Str("module", "signal").Str("user", string(uid)).Msg("bad broadcast payload")
		ctl.sendErr(uid, "Malformed message")
		return
	}

	ctl.publishJSON(room, "", struct {
		Type    string          `json:"type"`
		UserID  string          `json:"userId"`
		RoomID  string          `json:"roomId"`
		Payload json.RawMessage `json:"payload"`
	}{"broadcast", string(uid), string(room), p.Payload})
}
