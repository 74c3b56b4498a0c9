// Package notify delivers plain-text notifications to profiles on the chat platform.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oggyb/matchbot/internal/logger"
)

// ErrInvalidRecipient is returned when the recipient handle is not a chat id.
var ErrInvalidRecipient = errors.New("invalid recipient handle")

// Channel pushes text to a recipient identified by its external handle.
type Channel interface {
	Deliver(ctx context.Context, recipient string, text string) error
}

// Sender is the subset of *tgbotapi.BotAPI used for outbound messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers through the Telegram Bot API. Recipients are chat ids.
type Telegram struct {
	sender Sender
	log    *slog.Logger
}

func NewTelegram(sender Sender) *Telegram {
	return &Telegram{sender: sender, log: logger.Named("notify")}
}

func (t *Telegram) Deliver(ctx context.Context, recipient string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, recipient)
	}

	if _, err := t.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		t.log.Warn("telegram send failed", "chat_id", chatID, "err", err)
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	return nil
}

// Discard drops every notification. Used when no bot token is configured.
type Discard struct{}

func (Discard) Deliver(ctx context.Context, recipient string, text string) error {
	logger.Debug("notification discarded", "recipient", recipient)
	return ctx.Err()
}
