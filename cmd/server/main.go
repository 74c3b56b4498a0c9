package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oggyb/matchbot/internal/app"
	"github.com/oggyb/matchbot/internal/config"
	"github.com/oggyb/matchbot/internal/db"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/metrics"
	"github.com/oggyb/matchbot/internal/server"
	"github.com/oggyb/matchbot/internal/service/dating"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Outbound notifications need the bot token; without it they are dropped
	api, err := app.NewBotAPI(cfg)
	if err != nil {
		log.Error("failed to init telegram", "err", err)
		return
	}
	if api == nil {
		log.Warn("TELEGRAM_BOT_TOKEN not set, notifications are discarded")
	}

	appCtx, closeAll, err := app.Bootstrap(ctx, cfg, api)
	if err != nil {
		log.Error("failed to bootstrap", "err", err)
		return
	}
	defer closeAll()

	if cfg.IsDevelopment() {
		if err := db.SeedTestData(appCtx.DB); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	go func() {
		log.Info("serving metrics", "addr", cfg.Metrics.Addr)
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			log.Error("metrics server failed", "err", err)
		}
	}()

	registrars := []server.Registrar{
		dating.NewRegistrar(appCtx),
	}

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr)

	if err := server.StartGRPCServer(ctx, cfg, registrars...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}
