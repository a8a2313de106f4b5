package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Easel/internal/app"
	"github.com/dkeye/Easel/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump processes one connection's envelopes strictly in order. Its
// exit, whatever the cause, applies leave semantics for the connection
// with no reply, then notifies the former room.
func (ctl *Controller) readPump(ctx context.Context, uid domain.UserID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(uid)).Msg("readPump closing")
		room, was := ctl.Relay.Disconnect(context.Background(), uid)
		if was {
			ctl.publishJSON(room, uid, struct {
				Type   string `json:"type"`
				UserID string `json:"userId"`
			}{"user_left", string(uid)})
		}
		ctl.Limiter.Forget(uid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("user", string(uid)).Msg("readPump ctx done")
			return
		default:
			// Binary frames carry UTF-8 text as well; both decode the same.
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("user", string(uid)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(ctx, uid, data)
		}
	}
}

func (ctl *Controller) handleFrame(ctx context.Context, uid domain.UserID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(uid)).Msg("bad json")
		ctl.sendErr(uid, "Malformed message")
		return
	}

	switch env.Type {
	case "create_room":
		ctl.handleCreate(ctx, uid)
	case "join_room":
		ctl.handleJoin(ctx, uid, data)
	case "leave_room":
		ctl.handleLeave(ctx, uid)
	case "draw":
		ctl.handleDraw(ctx, uid, data)
	case "broadcast":
		ctl.handleBroadcast(ctx, uid, data)
	case "get_room_users":
		ctl.handleRoomUsers(ctx, uid, data)
	case "":
		ctl.sendErr(uid, "Malformed message")
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown envelope")
		ctl.sendErr(uid, "Unknown message type")
	}
}

func (ctl *Controller) sendJSON(uid domain.UserID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	ctl.Relay.Registry.Send(uid, b)
}

func (ctl *Controller) sendErr(uid domain.UserID, msg string) {
	ctl.sendJSON(uid, map[string]any{
		"type":    "error",
		"message": msg,
	})
}

// publishJSON fans v out to the room, excluding exclude when non-empty,
// and runs the backpressure policy over whatever was dropped.
func (ctl *Controller) publishJSON(room domain.RoomID, exclude domain.UserID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("publishJSON marshal")
		return
	}
	res := ctl.Relay.Fabric.Publish(room, app.Frame(b), exclude)
	ctl.Relay.OnDropped(room, res)
}
