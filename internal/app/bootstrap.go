package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oggyb/matchbot/internal/cache"
	"github.com/oggyb/matchbot/internal/config"
	"github.com/oggyb/matchbot/internal/db"
	"github.com/oggyb/matchbot/internal/events"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/notify"
)

// openDB is replaced in tests.
var openDB = db.NewDB

// Bootstrap opens every backing service named in cfg and returns a ready
// AppContext. api may be nil; then notifications are discarded.
// The returned func closes every client opened here.
func Bootstrap(ctx context.Context, cfg *config.Config, api *tgbotapi.BotAPI) (*AppContext, func(), error) {
	log := logger.L()

	database, err := openDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init db: %w", err)
	}

	closeDB := func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		_ = redisCache.Client.Close()
		closeDB()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
	}

	publisher, err := events.New(cfg)
	if err != nil {
		_ = redisCache.Client.Close()
		closeDB()
		return nil, nil, fmt.Errorf("init events: %w", err)
	}

	appCtx := New(database, redisCache, log)
	appCtx.Events = publisher
	appCtx.AdminIDs = cfg.Telegram.AdminIDs
	if api != nil {
		appCtx.Notifier = notify.NewTelegram(api)
	}

	closeFn := func() {
		if err := publisher.Close(); err != nil {
			log.Warn("event publisher close failed", "err", err)
		}
		if err := redisCache.Client.Close(); err != nil {
			log.Warn("redis close failed", "err", err)
		}
		closeDB()
	}
	return appCtx, closeFn, nil
}

// NewBotAPI connects to Telegram when a token is configured; nil otherwise.
func NewBotAPI(cfg *config.Config) (*tgbotapi.BotAPI, error) {
	if cfg.Telegram.Token == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	api.Debug = cfg.IsDevelopment()
	return api, nil
}
