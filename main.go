package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"

	"audiorelay/internal/api"
	"audiorelay/internal/config"
	"audiorelay/internal/service/audio"
	"audiorelay/internal/service/transcribe"
	"audiorelay/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load(os.Getenv("AUDIORELAY_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	level := parseLevel(cfg.BasicConfig.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.NewTempStore(cfg.BasicConfig.UploadDir, logger)
	if err != nil {
		log.Fatalf("init upload directory: %v", err)
	}
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	if cfg.BasicConfig.SweeperEnabled() {
		store.StartSweeper(sweepCtx, cfg.BasicConfig.SweepIntervalDuration(), cfg.BasicConfig.OrphanTTLDuration())
	} else {
		logger.Warn("orphan sweeper disabled: transcribe_timeout is unbounded")
	}

	transcriber, err := transcribe.New(cfg, logger)
	if err != nil {
		log.Fatalf("init transcriber: %v", err)
	}
	pipeline := audio.NewPipeline(store, transcriber, cfg.BasicConfig.TranscribeTimeoutDuration(), logger)
	handlers := api.NewHandler(pipeline, cfg.BasicConfig.PublicDir, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	logger.Info("server listening",
		"addr", addr,
		"provider", cfg.Provider,
		"upload_dir", store.Dir(),
	)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
