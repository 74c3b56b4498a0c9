package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchbot/internal/db"
)

// BlockRepository manages directional block relations. Rows are never deleted;
// unblocking flips Active off and re-blocking flips it back on.
type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Activate creates or re-activates blocker -> blocked. A nil reason keeps the stored one.
func (r *BlockRepository) Activate(ctx context.Context, blockerID, blockedID uint64, reason *string) error {
	rel := db.BlockRelation{
		BlockerID: blockerID,
		BlockedID: blockedID,
		Reason:    reason,
		Active:    true,
	}
	assignments := map[string]any{
		"active":     true,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if reason != nil {
		assignments["reason"] = *reason
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&rel).Error
}

// Deactivate turns blocker -> blocked off. It reports whether an active relation existed.
func (r *BlockRepository) Deactivate(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.BlockRelation{}).
		Where("blocker_id = ? AND blocked_id = ? AND active = ?", blockerID, blockedID, true).
		Update("active", false)
	return res.RowsAffected > 0, res.Error
}

// IsBlockedEither reports an active relation between a and b in either direction.
func (r *BlockRepository) IsBlockedEither(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.BlockRelation{}).
		Where("active = ?", true).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// ListActiveByBlocker returns the blocker's active relations, most recently changed first.
func (r *BlockRepository) ListActiveByBlocker(ctx context.Context, blockerID uint64) ([]db.BlockRelation, error) {
	var rels []db.BlockRelation
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? AND active = ?", blockerID, true).
		Order("updated_at DESC, id DESC").
		Find(&rels).Error
	return rels, err
}
