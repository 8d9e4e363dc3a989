package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avolkov/quickchat/internal/auth"
	"github.com/avolkov/quickchat/internal/config"
	"github.com/avolkov/quickchat/internal/relay"
	"github.com/avolkov/quickchat/internal/store"
)

// NewServer builds the HTTP server: REST API plus the websocket relay bridge.
func NewServer(hub *relay.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	authHandlers := NewAuthHandlers(authService, st, hub, logger)
	msgHandlers := NewMessageHandlers(st, hub, logger)

	router.GET("/ping", pingHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	api := router.Group("/api")
	api.POST("/auth/register", authHandlers.Register)
	api.POST("/auth/login", authHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/auth/logout/:id", authHandlers.Logout)
	authed.POST("/auth/setavatar/:id", authHandlers.SetAvatar)
	authed.GET("/auth/allusers/:id", authHandlers.AllUsers)
	authed.POST("/messages/addmsg", msgHandlers.AddMessage)
	authed.POST("/messages/getmsg", msgHandlers.GetMessages)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func pingHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"msg": "Ping Successful"})
}
