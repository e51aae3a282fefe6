package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/ideuxs/toumai-admin/config"
	"github.com/ideuxs/toumai-admin/database"
	"github.com/ideuxs/toumai-admin/handlers"
	"github.com/ideuxs/toumai-admin/images"
	"github.com/ideuxs/toumai-admin/middleware"
	"github.com/ideuxs/toumai-admin/moderation"
	"github.com/ideuxs/toumai-admin/notify"
	"github.com/ideuxs/toumai-admin/rabbitmq"
	"github.com/ideuxs/toumai-admin/storage"
	"github.com/ideuxs/toumai-admin/utils/email"
	ws "github.com/ideuxs/toumai-admin/websocket"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
		log.SetLevel(log.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database connection and schema
	db, err := database.NewDatabase(cfg)
	if err != nil {
		stdlog.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.InitializeSchema(db.DB()); err != nil {
		stdlog.Fatal("Failed to initialize database schema:", err)
	}

	// External collaborators
	bucket := storage.NewClient(cfg.StorageBaseURL, cfg.StorageBucket, cfg.StorageKey)
	pusher := notify.NewClient(cfg.NotifyURL, cfg.NotifyKey)

	// Moderation event sinks: audit table always, websocket feed always,
	// RabbitMQ only when configured.
	hub := ws.NewHub()
	go hub.Run()

	sinks := []moderation.EventSink{db, hub}
	var publisher *rabbitmq.Publisher
	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.RoutingKey)
		if err != nil {
			log.WithError(err).Warn("moderation event publisher unavailable, continuing without it")
		} else {
			defer p.Close()
			sinks = append(sinks, p)
			publisher = p
		}
	}

	ctrl := moderation.NewController(db, db, bucket, pusher, sinks...)
	resolver := images.NewResolver(db, bucket)
	auth := database.NewAuthService(db.DB(), cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.ResetTTL)

	var mailer *email.Sender
	if cfg.SendGridKey != "" {
		mailer = email.NewSender(cfg.SendGridKey, cfg.EmailName, cfg.EmailFrom)
	}

	h := handlers.NewHandlers(auth, db, ctrl, resolver, pusher, mailer, hub, publisher, cfg.ResetBaseURL)

	// Setup router and server
	router := setupRouter(h, auth, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		stdlog.Printf("Admin service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			stdlog.Fatal("Failed to start HTTP server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stdlog.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		stdlog.Fatal("Server forced to shutdown:", err)
	}

	stdlog.Println("Server exited")
}

func setupRouter(h *handlers.Handlers, auth *database.AuthService, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// Set trusted proxies from config
	router.SetTrustedProxies(cfg.TrustedProxies)

	// Apply global middleware
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitMiddleware(10, 30))

	// Root level health check (not under /api/v3)
	router.GET("/health", h.RootHealthCheck)

	// Public routes
	public := router.Group("/api/v3")
	{
		authGroup := public.Group("/auth")
		{
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.RefreshToken)
			authGroup.POST("/forgot-password", h.ForgotPassword)
			authGroup.POST("/reset-password", h.ResetPassword)
		}

		public.GET("/health", h.HealthCheck)
	}

	// Protected routes
	protected := router.Group("/api/v3")
	protected.Use(middleware.AuthMiddleware(auth))
	{
		protected.POST("/auth/logout", h.Logout)
		protected.GET("/auth/me", h.Me)

		// Listing moderation
		protected.GET("/listings", h.GetListings)
		protected.GET("/listings/stats", h.GetListingStats)
		protected.GET("/listings/:id", h.GetListing)
		protected.POST("/listings/:id/review", h.ReviewListing)
		protected.DELETE("/listings/:id", h.DeleteListing)

		// User reports (read-only)
		protected.GET("/reports", h.GetReports)

		// Push notifications and live event feed
		protected.POST("/notifications/broadcast", h.Broadcast)
		protected.GET("/moderation/listen", h.ListenModeration)
	}

	return router
}
