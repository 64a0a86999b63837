package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"ledgerbook/api/httpserver"
	"ledgerbook/config"
	"ledgerbook/infra/storage"
	"ledgerbook/infra/wal"
	"ledgerbook/jobs/broadcaster"
	"ledgerbook/jobs/ingest"
	"ledgerbook/service"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.Error("state store init failed", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	svc, err := service.Open(store, wal.Config{
		Dir:         cfg.WALDir,
		SegmentSize: cfg.WALSegmentSize,
	}, log)
	if err != nil {
		log.Error("order service init failed", "err", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bc, err := broadcaster.New(store, cfg.Brokers, cfg.TradeTopic, cfg.BroadcastInterval, log)
	if err != nil {
		log.Error("broadcaster init failed", "brokers", cfg.Brokers, "err", err)
		os.Exit(1)
	}
	defer bc.Close()
	bc.Start(ctx)

	if cfg.IngestEnabled {
		consumer := ingest.New(cfg.Brokers, cfg.OrderTopic, cfg.ConsumerGroup, svc, log)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error("order ingest stopped", "err", err)
				cancel()
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(cfg.TruncateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := svc.TruncateJournal(); err != nil {
					log.Warn("journal truncation failed", "err", err)
				}
			}
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:               "ledgerbook",
		DisableStartupMessage: true,
	})
	httpserver.New(app, httpserver.NewHandler(svc, log))

	go func() {
		log.Info("http server listening", "addr", cfg.ListenAddr)
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Error("http server exited", "err", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	cancel()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Warn("http shutdown incomplete", "err", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
