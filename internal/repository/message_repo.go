package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/matchbot/internal/db"
	"github.com/oggyb/matchbot/internal/utils/pagination"
)

// MessageRepository stores chat lines. Messages are append-only.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Append persists a message; ID and SentAt are filled in on return.
func (r *MessageRepository) Append(ctx context.Context, msg *db.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByThread returns the full history ascending by (sent_at, id).
func (r *MessageRepository) ListByThread(ctx context.Context, threadID string) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("sent_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// PageByThread returns up to limit messages after the cursor, ascending by (sent_at, id).
// The returned token is nil on the last page.
func (r *MessageRepository) PageByThread(
	ctx context.Context,
	threadID string,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	limit = pagination.ClampLimit(limit)
	cursor, err := pagination.Decode(pagination.Deref(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("sent_at ASC, id ASC").
		Limit(limit + 1)
	if !cursor.IsZero() {
		ts := cursor.At()
		query = query.Where("(sent_at > ? OR (sent_at = ? AND id > ?))", ts, ts, cursor.ID)
	}

	var msgs []db.Message
	if err := query.Find(&msgs).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(msgs) > limit {
		last := msgs[limit-1]
		token, _ := pagination.Encode(pagination.After(last.ID, last.SentAt))
		nextToken = &token
		msgs = msgs[:limit]
	}
	return msgs, nextToken, nil
}
