package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipdeck/clipdeck-agent/internal/ai"
	"github.com/clipdeck/clipdeck-agent/internal/api"
	"github.com/clipdeck/clipdeck-agent/internal/config"
	"github.com/clipdeck/clipdeck-agent/internal/logging"
	"github.com/clipdeck/clipdeck-agent/internal/media"
	"github.com/clipdeck/clipdeck-agent/internal/player"
	"github.com/clipdeck/clipdeck-agent/internal/recorder"
	"github.com/clipdeck/clipdeck-agent/internal/session"
	"github.com/clipdeck/clipdeck-agent/internal/stream"
	"github.com/clipdeck/clipdeck-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.AssetsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create assets dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ExportsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create exports dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipdeck agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := session.NewDB(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session database: %w", err)
	}
	defer database.Close()

	repo := session.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  CLIPDECK AGENT v%-8s                 ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var ffmpeg media.FFmpeg
	if exec, err := media.NewExec(cfg.FFmpegPath(), cfg.FFprobePath(), logger); err != nil {
		logger.Warn("ffmpeg toolchain unavailable, capture disabled", "error", err)
		ffmpeg = media.NewStub(logger)
	} else {
		ffmpeg = exec
	}

	sessions := session.NewService(repo, ffmpeg, cfg.AssetsDir(), logger)
	defer sessions.Close(context.Background())

	preview := player.New(logging.WithComponent(logger, "player"))
	rec := recorder.New(sessions, preview, ffmpeg, cfg.ExportsDir(), logging.WithComponent(logger, "recorder"))

	var collaborator ai.Client
	if cfg.AIKey() != "" {
		collaborator = ai.NewHTTPClient(cfg.AIBaseURL(), cfg.AIKey(), cfg.AIModel(), cfg.VideoPollInterval(), logging.WithComponent(logger, "ai"))
		logger.Info("collaborator enabled", "model", cfg.AIModel())
	} else {
		collaborator = ai.NewStubClient(logging.WithComponent(logger, "ai"))
		logger.Info("no API key configured, collaborator stubbed")
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Sessions:   sessions,
		Repository: repo,
		Player:     preview,
		Recorder:   rec,
		AI:         collaborator,
		Stream:     stream.NewServer(logger),
		Logger:     logger,
		StartTime:  startTime,
		Version:    config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Logger:  logger,
			APIAddr: apiServer.Addr(),
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
		go watchTray(quitCh, tray, sessions, rec)
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// watchTray keeps the tray's status and slot lines current.
func watchTray(quitCh <-chan struct{}, tray *ui.Tray, sessions *session.Service, rec *recorder.Recorder) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-quitCh:
			return
		case <-ticker.C:
		}

		switch rec.State() {
		case recorder.StateRecording:
			tray.UpdateStatus("Recording")
		case recorder.StateFinalizing:
			tray.UpdateStatus("Finalizing")
		default:
			tray.UpdateStatus("Idle")
		}

		if assets, err := sessions.Assets(context.Background()); err == nil {
			tray.UpdateSlotCount(len(assets))
		}
	}
}

func ensureAuthToken(repo session.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
