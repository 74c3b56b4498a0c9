// Package chat relays messages between the two participants of a match thread.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oggyb/matchbot/internal/cache"
	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/metrics"
	"github.com/oggyb/matchbot/internal/notify"
	"github.com/oggyb/matchbot/internal/repository"
)

// MaxBodyRunes is the longest accepted message body, after trimming.
const MaxBodyRunes = 4096

// SendResult is the outcome of a persisted message. Warning is a
// *errors.DeliveryFailure when the recipient could not be notified.
type SendResult struct {
	Message *db.Message
	Warning error
}

type Relay struct {
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
	profiles *repository.ProfileRepository
	blocks   *repository.BlockRepository
	notifier notify.Channel
	cache    *cache.RedisCache
	log      *slog.Logger
}

// NewRelay creates a relay. rc may be nil, which disables realtime chat events.
func NewRelay(database *gorm.DB, notifier notify.Channel, rc *cache.RedisCache) *Relay {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Relay{
		matches:  repository.NewMatchRepository(database),
		messages: repository.NewMessageRepository(database),
		profiles: repository.NewProfileRepository(database),
		blocks:   repository.NewBlockRepository(database),
		notifier: notifier,
		cache:    rc,
		log:      logger.Named("chat"),
	}
}

// SendMessage stores body in the thread and forwards it to the other participant.
//
// Behavior:
//   - Unknown thread → ErrThreadNotFound; sender outside the match → ErrNotParticipant.
//   - Body is trimmed; empty → ErrEmptyMessage; over MaxBodyRunes → ErrMessageTooLong.
//   - An active block between the participants → ErrBlocked.
//   - The message is persisted before delivery. A delivery failure is returned
//     as SendResult.Warning, never as an error.
func (r *Relay) SendMessage(ctx context.Context, threadID string, senderID uint64, body string) (*SendResult, error) {
	m, err := r.matches.GetByThreadID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	recipientID, ok := m.Other(senderID)
	if !ok {
		return nil, fmt.Errorf("profile %d in thread %s: %w", senderID, threadID, svcErr.ErrNotParticipant)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, svcErr.ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(body); n > MaxBodyRunes {
		return nil, fmt.Errorf("%d characters: %w", n, svcErr.ErrMessageTooLong)
	}

	blocked, err := r.blocks.IsBlockedEither(ctx, senderID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return nil, svcErr.ErrBlocked
	}

	msg := &db.Message{ThreadID: threadID, SenderID: senderID, Body: body}
	if err := r.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	metrics.MessagesTotal.Inc()
	r.publish(ctx, msg)

	result := &SendResult{Message: msg}
	if err := r.deliver(ctx, msg, recipientID); err != nil {
		metrics.DeliveryFailuresTotal.WithLabelValues("chat").Inc()
		r.log.Warn("message persisted but not delivered", "thread", threadID, "message_id", msg.ID, "recipient", recipientID, "err", err)
		result.Warning = &svcErr.DeliveryFailure{RecipientID: recipientID, Err: err}
	}
	return result, nil
}

// GetThreadHistory returns every message of the thread ordered by (sent_at, id).
func (r *Relay) GetThreadHistory(ctx context.Context, threadID string) ([]db.Message, error) {
	if _, err := r.matches.GetByThreadID(ctx, threadID); err != nil {
		return nil, err
	}
	return r.messages.ListByThread(ctx, threadID)
}

// HistoryPage is GetThreadHistory with cursor pagination.
func (r *Relay) HistoryPage(ctx context.Context, threadID string, token *string, limit int) ([]db.Message, *string, error) {
	if _, err := r.matches.GetByThreadID(ctx, threadID); err != nil {
		return nil, nil, err
	}
	return r.messages.PageByThread(ctx, threadID, token, limit)
}

// FormatDelivery renders the text the recipient sees.
func FormatDelivery(senderName, body string) string {
	return fmt.Sprintf("💬 Message from %s:\n\n%s", senderName, body)
}

func (r *Relay) deliver(ctx context.Context, msg *db.Message, recipientID uint64) error {
	people, err := r.profiles.GetByIDs(ctx, []uint64{msg.SenderID, recipientID})
	if err != nil {
		return err
	}
	recipient, ok := people[recipientID]
	if !ok {
		return fmt.Errorf("profile %d: %w", recipientID, svcErr.ErrProfileNotFound)
	}
	return r.notifier.Deliver(ctx, recipient.ExternalID, FormatDelivery(people[msg.SenderID].DisplayName, msg.Body))
}

func (r *Relay) publish(ctx context.Context, msg *db.Message) {
	if r.cache == nil {
		return
	}
	err := r.cache.PublishChatEvent(ctx, cache.ChatEvent{
		ThreadID:  msg.ThreadID,
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Body:      msg.Body,
		SentAt:    msg.SentAt,
	})
	if err != nil {
		r.log.Warn("chat event not published", "thread", msg.ThreadID, "err", err)
	}
}
