// Apontabot - assistente de consultas sobre apontamentos de horas.
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

	"github.com/rmacedo/apontabot/internal/ai"
	"github.com/rmacedo/apontabot/internal/api"
	"github.com/rmacedo/apontabot/internal/config"
	"github.com/rmacedo/apontabot/internal/engine"
	"github.com/rmacedo/apontabot/internal/identity"
	"github.com/rmacedo/apontabot/internal/intent"
	"github.com/rmacedo/apontabot/internal/middleware"
	"github.com/rmacedo/apontabot/internal/session"
	"github.com/rmacedo/apontabot/internal/store"
	"github.com/rmacedo/apontabot/web"
)

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

	slog.Info("Starting server", "port", cfg.Port, "dataset_source", cfg.Dataset.Source)

	// Load the dataset. A load failure is not fatal: the service starts in
	// maintenance mode and answers every question with the maintenance
	// message until a reload succeeds.
	loader := newLoader(cfg)
	data := store.NewHandle()
	if err := data.Reload(context.Background(), loader); err != nil {
		slog.Error("Dataset load failed, starting in maintenance mode", "error", err)
	} else {
		snap := data.Current()
		slog.Info("Dataset loaded", "records", snap.Len(), "total_hours", snap.TotalHours())
	}

	eng := engine.New(data, engine.WithHoursPerDay(cfg.HoursPerDay))
	router := intent.New(eng, intent.WithReferenceYear(cfg.ReferenceYear))
	sessions := session.NewStore(session.WithIdleTimeout(cfg.SessionTTL))

	loopOpts := []ai.Option{ai.WithReferenceYear(cfg.ReferenceYear)}
	if cfg.Model.Configured() {
		backend, err := ai.NewClient(ai.ClientConfig{
			AzureEndpoint:   cfg.Model.AzureEndpoint,
			AzureDeployment: cfg.Model.AzureDeployment,
			APIKey:          cfg.Model.APIKey,
			Model:           cfg.Model.Model,
			Timeout:         cfg.Model.Timeout,
		})
		if err != nil {
			slog.Error("Failed to configure model backend", "error", err)
			os.Exit(1)
		}
		loopOpts = append(loopOpts, ai.WithBackend(backend))
		slog.Info("Model backend configured", "azure", cfg.Model.AzureEndpoint != "")
	} else {
		slog.Info("No model backend configured, keyword routing only")
	}
	loop := ai.NewLoop(data, eng, router, sessions, loopOpts...)

	handler := api.NewHandler(loop, sessions, data)
	wsHandler := api.NewWebSocketHandler(loop, cfg.AllowedOrigin)

	// Setup router.
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{cfg.AllowedOrigin}))
	r.Use(identity.Middleware(cfg.AllowedOrigin != "*"))

	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)
	r.Post("/chat", handler.Chat)
	r.Get("/ws/chat", wsHandler.ServeHTTP)
	r.Handle("/ui/*", http.StripPrefix("/ui", web.Handler()))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Session sweeper.
	go sessions.RunSweeper(ctx, cfg.SweepInterval)
	slog.Info("Session sweeper started", "ttl", cfg.SessionTTL, "interval", cfg.SweepInterval)

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

// newLoader picks the snapshot source from configuration.
func newLoader(cfg *config.Config) store.Loader {
	switch cfg.Dataset.Source {
	case "sqlite":
		return store.NewSQLiteLoader(cfg.Dataset.Path)
	case "blob":
		return store.NewBlobLoader(cfg.Dataset.BlobConnectionString, cfg.Dataset.BlobContainer, cfg.Dataset.BlobName)
	default:
		return store.NewCSVLoader(cfg.Dataset.Path)
	}
}
