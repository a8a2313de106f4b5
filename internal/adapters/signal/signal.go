package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Easel/internal/app"
	"github.com/dkeye/Easel/internal/config"
	"github.com/dkeye/Easel/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller is the per-connection protocol handler: it owns the
// websocket endpoint, parses inbound envelopes and drives the relay.
type Controller struct {
	Relay   *app.Relay
	Limiter *RoomRateLimiter
	Cfg     *config.Config
}

func NewController(relay *app.Relay, cfg *config.Config) *Controller {
	return &Controller{
		Relay:   relay,
		Limiter: NewRoomRateLimiter(cfg.RoomRate, cfg.RoomRateInterval),
		Cfg:     cfg,
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan app.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f app.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the connection, assigns its identity and starts the
// pumps. The identity is minted fresh per connection and never changes
// for its lifetime.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	uid := domain.UserID(uuid.NewString())
	log.Info().Str("module", "signal").Str("user", string(uid)).Msg("new WS connection")

	conn := &wsConn{
		conn: ws,
		send: make(chan app.Frame, ctl.Cfg.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Relay.Registry.Bind(uid, conn, cancel)

	ctl.sendJSON(uid, struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}{"connected", string(uid)})

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, uid, conn)
}
