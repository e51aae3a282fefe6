package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ideuxs/toumai-admin/database"
	"github.com/ideuxs/toumai-admin/images"
	"github.com/ideuxs/toumai-admin/moderation"
	"github.com/ideuxs/toumai-admin/notify"
	"github.com/ideuxs/toumai-admin/rabbitmq"
	"github.com/ideuxs/toumai-admin/utils/email"
	ws "github.com/ideuxs/toumai-admin/websocket"
)

// Handlers handles HTTP requests for the admin service.
type Handlers struct {
	auth      *database.AuthService
	db        *database.Database
	ctrl      *moderation.Controller
	resolver  *images.Resolver
	notifier  *notify.Client
	mailer    *email.Sender
	hub       *ws.Hub
	publisher *rabbitmq.Publisher

	resetBaseURL string
}

// NewHandlers creates a new handlers instance. mailer may be nil when no
// SendGrid key is configured (password reset then answers 503), and publisher
// may be nil when no AMQP broker is configured.
func NewHandlers(auth *database.AuthService, db *database.Database, ctrl *moderation.Controller,
	resolver *images.Resolver, notifier *notify.Client, mailer *email.Sender, hub *ws.Hub,
	publisher *rabbitmq.Publisher, resetBaseURL string) *Handlers {
	return &Handlers{
		auth:         auth,
		db:           db,
		ctrl:         ctrl,
		resolver:     resolver,
		notifier:     notifier,
		mailer:       mailer,
		hub:          hub,
		publisher:    publisher,
		resetBaseURL: resetBaseURL,
	}
}

// RootHealthCheck returns the root health status.
func (h *Handlers) RootHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "toumai-admin",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheck returns the API health status with hub statistics and, when a
// broker is configured, the state of the event publisher connection.
func (h *Handlers) HealthCheck(c *gin.Context) {
	connectedClients, eventsBroadcast := h.hub.GetStats()
	status := gin.H{
		"status":            "healthy",
		"service":           "toumai-admin",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"connected_clients": connectedClients,
		"events_broadcast":  eventsBroadcast,
	}
	if h.publisher != nil {
		status["publisher_connected"] = h.publisher.IsConnected()
	}
	c.JSON(http.StatusOK, status)
}
