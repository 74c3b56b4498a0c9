package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/matchbot/internal/cache"
	"github.com/oggyb/matchbot/internal/chat"
	"github.com/oggyb/matchbot/internal/events"
	"github.com/oggyb/matchbot/internal/match"
	"github.com/oggyb/matchbot/internal/moderation"
	"github.com/oggyb/matchbot/internal/notify"
	"github.com/oggyb/matchbot/internal/repository"
	"github.com/oggyb/matchbot/internal/swipe"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Notifier   notify.Channel
	Events     events.Publisher
	AdminIDs   []string
}

// New creates a new AppContext. Notifier and Events default to no-ops.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Notifier:   notify.Discard{},
		Events:     events.Noop{},
	}
}

// Core bundles the swipe/match/chat/moderation components built on one AppContext.
type Core struct {
	Profiles    *repository.ProfileRepository
	Preferences *repository.PreferenceRepository
	Swipe       *swipe.Engine
	Matches     *match.Detector
	Chat        *chat.Relay
	Moderation  *moderation.Service
}

// NewCore wires the core components. Every component gets its collaborators
// explicitly; nothing is kept in package state.
func NewCore(a *AppContext) *Core {
	detector := match.NewDetector(a.DB, a.Notifier, a.Events)
	return &Core{
		Profiles:    repository.NewProfileRepository(a.DB),
		Preferences: repository.NewPreferenceRepository(a.DB),
		Swipe:       swipe.NewEngine(a.DB, detector, a.RedisCache),
		Matches:     detector,
		Chat:        chat.NewRelay(a.DB, a.Notifier, a.RedisCache),
		Moderation: moderation.NewService(a.DB, moderation.Options{
			Notifier: a.Notifier,
			Events:   a.Events,
			Cache:    a.RedisCache,
			AdminIDs: a.AdminIDs,
		}),
	}
}
