// Haven - personal support assistant server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/rmcgowen/haven/internal/api"
	"github.com/rmcgowen/haven/internal/catalog"
	"github.com/rmcgowen/haven/internal/chat"
	"github.com/rmcgowen/haven/internal/config"
	"github.com/rmcgowen/haven/internal/middleware"
	"github.com/rmcgowen/haven/internal/provider"
	"github.com/rmcgowen/haven/internal/store"
	"github.com/rmcgowen/haven/web"
)

// restoreLimit caps how much message history is loaded into the session at
// startup.
const restoreLimit = 200

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Open the local store. When SQLite cannot be opened the server runs
	// on session memory only instead of refusing to start.
	repo := openStore(cfg)
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.SeedActions(context.Background(), catalog.Default(), catalog.Version); err != nil {
		slog.Error("Failed to seed action catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Action catalog ready", "version", catalog.Version)

	// Providers.
	resolver := provider.NewResolver(cfg, provider.DefaultRegistry())
	if def, err := resolver.Default(); err != nil {
		slog.Warn("No LLM provider configured, chat requests will fail until one is")
	} else {
		slog.Info("Provider resolved", "default", def, "availability", resolver.Availability())
	}

	// Conversation session and pipeline.
	session := chat.NewSession(repo)
	if err := session.Restore(context.Background(), restoreLimit); err != nil {
		slog.Warn("Failed to restore conversation history", "error", err)
	}

	conversationLogger, err := chat.NewConversationLogger(cfg.ConversationLog, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Warn("Failed to close conversation logger", "error", closeErr)
		}
	}()

	toolset := chat.NewActionToolset(repo)
	pipeline := chat.NewPipeline(session, resolver, repo, toolset, conversationLogger, cfg)

	// Handlers.
	apiHandler := api.NewHandler(repo, session)
	chatHandler := chat.NewHandler(pipeline, resolver, session, cfg)
	wsHandler := chat.NewWSHandler(pipeline, cfg.FrontendURL, cfg.IsDevelopment())

	// Router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(corsOrigins(cfg)))

	apiHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Serve the embedded PWA shell (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WriteTimeout stays 0 so token streaming is never cut mid-reply.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// openStore opens SQLite at the configured path, degrading to the in-memory
// store when unavailable. Degraded mode keeps the assistant usable; state
// just does not survive a restart.
func openStore(cfg *config.Config) store.Repository {
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Warn("Local store unavailable, falling back to session memory",
			"path", cfg.DBPath, "error", errors.Join(store.ErrUnavailable, err))
		return store.NewMemory()
	}
	if err := repo.Ping(context.Background()); err != nil {
		slog.Warn("Local store unreachable, falling back to session memory", "error", err)
		if closeErr := repo.Close(); closeErr != nil {
			slog.Debug("Failed to close unhealthy store", "error", closeErr)
		}
		return store.NewMemory()
	}
	slog.Info("Local store connected", "path", cfg.DBPath)
	return repo
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL == "" || cfg.IsDevelopment() {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}
