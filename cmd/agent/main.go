package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	mrand "math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spotforge/spotforge-agent/internal/api"
	"github.com/spotforge/spotforge-agent/internal/archive"
	"github.com/spotforge/spotforge-agent/internal/catalog"
	"github.com/spotforge/spotforge-agent/internal/config"
	"github.com/spotforge/spotforge-agent/internal/db"
	"github.com/spotforge/spotforge-agent/internal/engine"
	"github.com/spotforge/spotforge-agent/internal/export"
	"github.com/spotforge/spotforge-agent/internal/logging"
	"github.com/spotforge/spotforge-agent/internal/sequence"
	"github.com/spotforge/spotforge-agent/internal/ui"
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

	if err := os.MkdirAll(cfg.MediaDir(), 0755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}
	if err := os.MkdirAll(cfg.WorkDir(), 0755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting spotforge agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := export.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   SPOTFORGE AGENT v0.1.0                  ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	workArea, err := engine.NewDirWorkArea(cfg.WorkDir())
	if err != nil {
		return fmt.Errorf("failed to open work area: %w", err)
	}

	ffmpeg := engine.New(engine.Config{
		FFmpegBin:  cfg.FFmpegBin(),
		FFprobeBin: cfg.FFprobeBin(),
		WorkArea:   workArea,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialization runs in the background; operations that need the
	// engine refuse with a not-ready error until the probe finishes.
	go func() {
		if err := ffmpeg.Initialize(ctx); err != nil {
			logger.Error("media engine unavailable, exports disabled", "error", err)
		}
	}()

	clips := catalog.NewStore()
	ingestor := catalog.NewIngestor(clips, cfg.MediaDir(), ffmpeg, logger)

	seqs := sequence.NewStore()
	generator := sequence.NewGenerator(mrand.New(mrand.NewSource(time.Now().UnixNano())))

	exporter := export.NewPipeline(ffmpeg, archive.NewZipPackager(), repo, logger)

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Catalog:    clips,
		Ingestor:   ingestor,
		Sequences:  seqs,
		Generator:  generator,
		Exporter:   exporter,
		Engine:     ffmpeg,
		Repository: repo,
		Logger:     logger,
		StartTime:  startTime,
		DeviceID:   deviceID,
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
			Engine: ffmpeg,
			Logger: logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		clips.OnChange(func() {
			tray.UpdateClipsCount(clips.Count())
		})
		seqs.OnChange(func() {
			tray.UpdateSequencesCount(seqs.Count())
		})
		go func() {
			<-ffmpeg.Done()
			tray.UpdateEngineState(ffmpeg.State())
		}()
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo export.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo export.Repository) (string, error) {
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
