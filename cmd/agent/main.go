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

	"github.com/slateflow/slateflow-agent/internal/api"
	"github.com/slateflow/slateflow-agent/internal/catalog"
	"github.com/slateflow/slateflow-agent/internal/config"
	"github.com/slateflow/slateflow-agent/internal/db"
	"github.com/slateflow/slateflow-agent/internal/logging"
	"github.com/slateflow/slateflow-agent/internal/mappings"
	"github.com/slateflow/slateflow-agent/internal/playback"
	"github.com/slateflow/slateflow-agent/internal/ui"
	"github.com/slateflow/slateflow-agent/internal/watcher"
)

var Version = "0.1.0"

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

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ManifestDir(), 0755); err != nil {
		return fmt.Errorf("failed to create manifest dir: %w", err)
	}

	logger := logging.NewLogger(os.Stdout, cfg.LogLevel())
	logger.Info("starting slateflow agent", "version", Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

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
	fmt.Println("║                   SLATEFLOW AGENT v0.1.0                  ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	// Bad mapping tables are a configuration error, not a runtime
	// condition: refuse to start rather than misplace takes later.
	store, err := mappings.NewStore(cfg.MappingsPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to load mapping tables: %w", err)
	}
	tables := store.Tables()
	logger.Info("mapping tables loaded",
		"origin", tables.Origin,
		"identities", len(tables.MHID),
		"sequences", len(tables.Sequences),
	)

	catalogSvc := catalog.NewService(repo, store, cfg.ImportRoot(), logger)
	streamer := playback.NewStreamer(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := catalog.NewRunner(catalogSvc, repo, logging.WithComponent(logger, "runner"))
	go runner.Start(ctx)

	sourceWatcher := watcher.New(catalogSvc, repo, cfg.WatchInterval(), logging.WithComponent(logger, "watcher"))
	go sourceWatcher.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		CatalogService: catalogSvc,
		Playback:       streamer,
		Repository:     repo,
		Runner:         runner,
		Mappings:       store,
		ImportRoot:     cfg.ImportRoot(),
		ManifestDir:    cfg.ManifestDir(),
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
		Version:        Version,
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
			Context:        ctx,
			CatalogService: catalogSvc,
			Runner:         runner,
			Logger:         logger,
			OnAddFolder: func() error {
				logger.Info("add folder requested from tray (file dialog not implemented in v0)")
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
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

func ensureDeviceID(repo catalog.Repository) (string, error) {
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

func ensureAuthToken(repo catalog.Repository) (string, error) {
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
