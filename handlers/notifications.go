package handlers

import (
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"github.com/ideuxs/toumai-admin/models"
	ws "github.com/ideuxs/toumai-admin/websocket"
)

// Broadcast sends a global push notification to every registered device.
func (h *Handlers) Broadcast(c *gin.Context) {
	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "title and body are required"})
		return
	}

	count, err := h.notifier.Broadcast(c.Request.Context(), req.Title, req.Subtitle, req.Body)
	if err != nil {
		log.WithError(err).Error("global notification dispatch failed")
		c.JSON(http.StatusBadGateway, models.BroadcastResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.BroadcastResponse{Success: true, Count: count})
}

// WebSocket upgrader
var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The endpoint sits behind the auth middleware; origins are not
		// restricted further.
		return true
	},
}

// ListenModeration upgrades the connection and streams moderation events to
// the console.
func (h *Handlers) ListenModeration(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Error("failed to upgrade connection to WebSocket")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
