package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/oggyb/matchbot/internal/app"
	"github.com/oggyb/matchbot/internal/bot"
	"github.com/oggyb/matchbot/internal/config"
	"github.com/oggyb/matchbot/internal/conversation"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.New()

	logger.InitFromConfig(cfg)
	log := logger.Named("bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := app.NewBotAPI(cfg)
	if err != nil {
		log.Error("failed to init telegram", "err", err)
		return
	}
	if api == nil {
		log.Error("TELEGRAM_BOT_TOKEN is required")
		return
	}
	log.Info("authorized", "username", api.Self.UserName)

	appCtx, closeAll, err := app.Bootstrap(ctx, cfg, api)
	if err != nil {
		log.Error("failed to bootstrap", "err", err)
		return
	}
	defer closeAll()

	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			log.Error("metrics server failed", "err", err)
		}
	}()

	dispatcher := bot.New(api, app.NewCore(appCtx),
		conversation.NewStore(appCtx.RedisCache, cfg.Chat.StateTTL),
		bot.Options{RatePerSecond: cfg.Chat.RatePerSecond, Burst: cfg.Chat.Burst},
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	log.Info("polling for updates", "timeout", u.Timeout)
	if err := dispatcher.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("dispatcher stopped", "err", err)
	}
}
