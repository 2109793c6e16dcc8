package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/adapters/signal"
	"github.com/youneskazemi/chatcord/internal/auth"
	"github.com/youneskazemi/chatcord/internal/config"
	"github.com/youneskazemi/chatcord/internal/store"
	"github.com/youneskazemi/chatcord/internal/turnserver"
)

const userKey = "user"

// AuthMiddleware resolves the bearer token into the authenticated user and
// aborts with 401 otherwise.
func AuthMiddleware(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		user, err := authSvc.UserFromToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, authSvc *auth.Service, st *store.Store, turn *turnserver.Server, ctrl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{auth: authSvc, store: st, turn: turn}

	api := r.Group("/api")
	api.POST("/register", h.register)
	api.POST("/login", h.login)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authSvc))
	authed.GET("/ice-config", h.iceConfig)
	authed.GET("/users", h.listUsers)
	authed.GET("/channels", h.listChannels)
	authed.GET("/channels/:name/messages", h.channelMessages)
	authed.GET("/conversations", h.listConversations)
	authed.GET("/conversations/:id/messages", h.conversationMessages)
	authed.GET("/conversations/:id/calls", h.callHistory)

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
