// Package bot turns Telegram updates into calls on the dating core.
package bot

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oggyb/matchbot/internal/app"
	"github.com/oggyb/matchbot/internal/conversation"
	"github.com/oggyb/matchbot/internal/db"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/metrics"
)

// API is the subset of *tgbotapi.BotAPI the dispatcher talks to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Options tunes per-chat throttling. RatePerSecond <= 0 disables it.
type Options struct {
	RatePerSecond float64
	Burst         int
}

// Dispatcher routes commands, button callbacks and free text to the core.
// Conversation state lives in Redis, so the dispatcher itself is stateless
// apart from the rate limiters.
type Dispatcher struct {
	api     API
	core    *app.Core
	states  *conversation.Store
	limiter *chatLimiter
	log     *slog.Logger
}

func New(api API, core *app.Core, states *conversation.Store, opts Options) *Dispatcher {
	return &Dispatcher{
		api:     api,
		core:    core,
		states:  states,
		limiter: newChatLimiter(opts.RatePerSecond, opts.Burst),
		log:     logger.Named("bot"),
	}
}

// Run handles updates until ctx is canceled or the channel closes.
// Updates are handled one at a time, which keeps each chat's order.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := d.limiter.Prune(); n > 0 {
				d.log.Debug("pruned idle chat limiters", "count", n)
			}
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			d.Handle(ctx, u)
		}
	}
}

// Handle processes a single update. Failures are reported to the chat and
// logged; they never stop the loop.
func (d *Dispatcher) Handle(ctx context.Context, u tgbotapi.Update) {
	switch {
	case u.Message != nil && u.Message.Chat != nil:
		kind := "text"
		if u.Message.IsCommand() {
			kind = "command"
		}
		chatID := u.Message.Chat.ID
		if !d.limiter.Allow(chatID) {
			metrics.BotUpdatesTotal.WithLabelValues(kind, "throttled").Inc()
			d.log.Debug("update throttled", "chat_id", chatID)
			return
		}
		d.finish(chatID, kind, d.handleMessage(ctx, u.Message))

	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		chatID := callbackChatID(cq)
		if !d.limiter.Allow(chatID) {
			metrics.BotUpdatesTotal.WithLabelValues("callback", "throttled").Inc()
			d.answer(cq.ID, textSlowDown)
			return
		}
		text, err := d.handleCallback(ctx, chatID, cq)
		d.answer(cq.ID, text)
		d.finish(chatID, "callback", err)

	default:
		metrics.BotUpdatesTotal.WithLabelValues("other", "ignored").Inc()
	}
}

func (d *Dispatcher) finish(chatID int64, kind string, err error) {
	if err == nil {
		metrics.BotUpdatesTotal.WithLabelValues(kind, "ok").Inc()
		return
	}
	metrics.BotUpdatesTotal.WithLabelValues(kind, "error").Inc()
	d.log.Warn("update failed", "chat_id", chatID, "kind", kind, "err", err)
	d.reply(chatID, userMessage(err))
}

func (d *Dispatcher) reply(chatID int64, text string) {
	d.send(tgbotapi.NewMessage(chatID, text))
}

func (d *Dispatcher) send(msg tgbotapi.MessageConfig) {
	if _, err := d.api.Send(msg); err != nil {
		metrics.DeliveryFailuresTotal.WithLabelValues("bot").Inc()
		d.log.Warn("telegram send failed", "chat_id", msg.ChatID, "err", err)
	}
}

func (d *Dispatcher) answer(callbackID, text string) {
	if _, err := d.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		d.log.Debug("callback answer failed", "callback_id", callbackID, "err", err)
	}
}

func (d *Dispatcher) setState(ctx context.Context, chatID int64, st conversation.State) {
	if err := d.states.Set(ctx, chatID, st); err != nil {
		d.log.Warn("conversation state not saved", "chat_id", chatID, "state", st.Kind(), "err", err)
	}
}

// viewer loads the profile bound to a chat.
func (d *Dispatcher) viewer(ctx context.Context, chatID int64) (*db.Profile, error) {
	return d.core.Profiles.GetByExternalID(ctx, externalID(chatID))
}

// externalID is the profile handle for a chat. Notifications go to the same id.
func externalID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func callbackChatID(cq *tgbotapi.CallbackQuery) int64 {
	if cq.Message != nil && cq.Message.Chat != nil {
		return cq.Message.Chat.ID
	}
	if cq.From != nil {
		return cq.From.ID
	}
	return 0
}
