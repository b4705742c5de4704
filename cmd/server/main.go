package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newchat/backend/internal/auth"
	"newchat/backend/internal/config"
	"newchat/backend/internal/database"
	"newchat/backend/internal/handler"
	"newchat/backend/internal/repository"
	"newchat/backend/internal/service"

	"github.com/go-redis/redis/v8"

	// Swagger imports
	_ "newchat/backend/docs" // This is important for swag to find the generated docs
)

func init() {
	config.LoadConfig()
}

// @title           NewChat API
// @version         1.0
// @description     Chat room management API: rooms with bounded capacity, membership and friends.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.AppConfig
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database
	db := database.Connect(cfg.DatabaseURL)
	store := repository.NewStore(db, cfg.RoomLockTimeout)

	blacklist, closeBlacklist := newBlacklist(cfg.RedisURL)
	defer closeBlacklist()

	router := handler.NewRouter(handler.Dependencies{
		Users:     service.NewUserService(store),
		Rooms:     service.NewRoomService(store),
		Friends:   service.NewFriendService(store, cfg.FriendLimit),
		Blacklist: blacklist,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Server is running on :%s\n", cfg.Port)
		fmt.Printf("Swagger UI is available at http://localhost:%s/swagger/index.html\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server exited properly")
}

// newBlacklist connects to Redis when redisURL is set and otherwise keeps
// revoked tokens in memory.
func newBlacklist(redisURL string) (auth.TokenBlacklist, func()) {
	if redisURL == "" {
		log.Println("REDIS_URL not set, revoked tokens are kept in memory")
		return auth.NewMemoryBlacklist(), func() {}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	log.Println("Redis connection established.")

	return auth.NewRedisBlacklist(client), func() { client.Close() }
}
