package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-chat/internal/api/routes"
	"marketplace-chat/internal/cache"
	"marketplace-chat/internal/config"
	"marketplace-chat/internal/database"
	"marketplace-chat/internal/events"
	"marketplace-chat/internal/repositories/postgres"
	"marketplace-chat/internal/services"
	"marketplace-chat/internal/websocket"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine, configuration falls back to real env vars.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting marketplace chat server")

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	store := cache.NewStore(cache.NewRedisBackend(redisClient))
	presence := services.NewPresenceService(redisClient)

	chatRepo := postgres.NewChatRepository(db)
	userRepo := postgres.NewUserRepository(db)
	projectRepo := postgres.NewProjectRepository(db)

	hub := websocket.NewHub(presence)
	go hub.Run()

	rebroadcaster := services.NewRebroadcaster(hub)

	var publisher *events.Publisher
	var eventSink services.EventPublisher
	if cfg.Kafka.Enabled {
		publisher = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		eventSink = publisher
		slog.Info("Kafka publisher enabled", "topic", cfg.Kafka.Topic)
	}

	chatService := services.NewChatService(chatRepo, store, hub, rebroadcaster, eventSink)
	userService := services.NewUserService(userRepo, store, cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	projectService := services.NewProjectService(projectRepo, store)

	router := routes.NewRouter(hub, chatService, userService, projectService, presence, cfg.JWT.Secret)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rebroadcaster.Stop()
	hub.Stop()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			slog.Error("Kafka publisher close failed", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
