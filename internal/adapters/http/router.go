package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Easel/internal/adapters/signal"
	"github.com/dkeye/Easel/internal/app"
	"github.com/dkeye/Easel/internal/config"
	"github.com/dkeye/Easel/internal/domain"
)

func SetupRouter(ctx context.Context, cfg *config.Config, relay *app.Relay) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	ctrl := signal.NewController(relay, cfg)

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		ctrl.HandleWS(ctx, c)
	})

	// Room membership is readable by anyone holding the room id, same as
	// the get_room_users envelope.
	api.GET("/rooms/:id/users", func(c *gin.Context) {
		room := domain.RoomID(c.Param("id"))
		users, err := relay.RoomUsers(c.Request.Context(), room)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		out := make([]string, 0, len(users))
		for _, u := range users {
			out = append(out, string(u))
		}
		c.JSON(http.StatusOK, gin.H{"roomId": string(room), "users": out})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}
