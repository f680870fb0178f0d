package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/luisgbr1el/vitalboard/internal/app"
	"github.com/luisgbr1el/vitalboard/internal/config"
	"github.com/luisgbr1el/vitalboard/internal/domain"
	"github.com/luisgbr1el/vitalboard/internal/logging"
	"github.com/luisgbr1el/vitalboard/internal/server"
	"github.com/luisgbr1el/vitalboard/internal/storage"
	"github.com/luisgbr1el/vitalboard/internal/uploads"
	"github.com/luisgbr1el/vitalboard/internal/websocket"
)

func setupConfig() *config.Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, hub *websocket.Hub, cancelSweep context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		cancelSweep()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("Failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	characterStore := storage.NewStore(cfg.CharactersPath, "characters", func() []domain.Character {
		return []domain.Character{}
	})
	settingsStore := storage.NewStore(cfg.SettingsPath, "settings", domain.DefaultSettings)

	uploadMgr, err := uploads.NewManager(cfg.UploadsDir, clock)
	if err != nil {
		logging.WithError(err).Error("Failed to create upload manager")
		os.Exit(1)
	}

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	go uploadMgr.Run(sweepCtx)

	// The server's connection limiter enforces MaxWSConnections before the
	// upgrade, so the hub itself runs uncapped.
	hub := websocket.NewHub(0)

	appSvc := app.NewService(characterStore, settingsStore, uploadMgr, hub, clock)

	srv, err := server.NewServer(cfg, appSvc, hub, uploadMgr)
	if err != nil {
		cancelSweep()
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, hub, cancelSweep)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
