package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vedran77/converse/internal/cache"
	"github.com/vedran77/converse/internal/config"
	"github.com/vedran77/converse/internal/database"
	"github.com/vedran77/converse/internal/generation"
	postgresrepo "github.com/vedran77/converse/internal/repository/postgres"
	"github.com/vedran77/converse/internal/service"
	"github.com/vedran77/converse/internal/transport/http/handlers"
	"github.com/vedran77/converse/internal/transport/http/middleware"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	if err := database.Migrate(ctx, cfg); err != nil {
		log.Fatal(err)
	}

	// Optional Redis cache
	convCache := cache.Connect(cfg.RedisAddr)
	if convCache != nil {
		defer convCache.Close()
		log.Println("Connected to Redis")
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	convRepo := postgresrepo.NewConversationRepo(pool)

	// Generation backend, constructed once and injected
	generator := generation.NewClient(cfg.GenHost, cfg.GenModel, cfg.GenTemperature)

	// Services
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(userRepo, tokens)
	chatService := service.NewChatService(convRepo, generator, cfg.ContextWindow)
	if convCache != nil {
		chatService.SetCache(convCache)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)

	// Auth middleware
	auth := middleware.Auth(tokens)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("GET /api/v1/welcome", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "Welcome to the Converse chat API"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Protected - Chat
	mux.Handle("POST /api/v1/chat", auth(http.HandlerFunc(chatHandler.Chat)))
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(chatHandler.ListConversations)))
	mux.Handle("GET /api/v1/conversations/{id}", auth(http.HandlerFunc(chatHandler.GetConversation)))
	mux.Handle("PUT /api/v1/conversations/{id}/title", auth(http.HandlerFunc(chatHandler.RenameConversation)))
	mux.Handle("DELETE /api/v1/conversations/{id}", auth(http.HandlerFunc(chatHandler.DeleteConversation)))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: middleware.CORS(mux),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
