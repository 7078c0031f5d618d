package websocket

import (
	"github.com/gin-gonic/gin"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
)

// Gateway bundles the hub and its HTTP handler
type Gateway struct {
	Hub     *Hub
	Handler *Handler
}

// NewGateway creates a gateway whose SNAPSHOT frames come from snapshot.
func NewGateway(snapshot SnapshotFunc, log *logger.Logger) *Gateway {
	hub := NewHub(snapshot, log)
	return &Gateway{
		Hub:     hub,
		Handler: NewHandler(hub, log),
	}
}

// SetupRoutes adds the WebSocket route to the Gin engine
func (g *Gateway) SetupRoutes(router *gin.Engine) {
	router.GET("/ws", g.Handler.HandleConnection)
}
