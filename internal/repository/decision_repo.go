package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchbot/internal/db"
	"github.com/oggyb/matchbot/internal/utils/pagination"
)

// DecisionRepository provides data access methods for the SwipeDecision model.
// It encapsulates all queries related to likes/passes between profiles.
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new repository bound to the given DB connection.
func NewDecisionRepository(database *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: database}
}

// CreateDecision records swiper -> candidate unless a decision already exists.
//
// Behavior:
//   - Fresh pair → the row is inserted, inserted = true.
//   - Existing pair → nothing is written; the stored (first) decision is returned
//     with inserted = false. The composite PK guarantees a single row.
//
// Example:
//
//	d, inserted, err := repo.CreateDecision(ctx, 1, 2, true) // profile 1 liked profile 2
func (r *DecisionRepository) CreateDecision(
	ctx context.Context,
	swiperID, candidateID uint64,
	liked bool,
) (*db.SwipeDecision, bool, error) {
	decision := db.SwipeDecision{
		SwiperID:    swiperID,
		CandidateID: candidateID,
		Liked:       liked,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "swiper_id"}, {Name: "candidate_id"}},
			DoNothing: true,
		}).
		Create(&decision)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &decision, true, nil
	}

	stored, err := r.Get(ctx, swiperID, candidateID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return stored, false, nil
}

// Get returns the decision swiper -> candidate, or nil when there is none.
func (r *DecisionRepository) Get(ctx context.Context, swiperID, candidateID uint64) (*db.SwipeDecision, error) {
	var d db.SwipeDecision
	err := r.db.WithContext(ctx).
		Where("swiper_id = ? AND candidate_id = ?", swiperID, candidateID).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// likersScope selects likes received by candidateID, dropping swipers the
// candidate passed and anyone on either side of an active block.
func (r *DecisionRepository) likersScope(ctx context.Context, candidateID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("swipe_decisions d").
		Where("d.candidate_id = ? AND d.liked = ?", candidateID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipe_decisions d2
				WHERE d2.swiper_id = ?
				  AND d2.candidate_id = d.swiper_id
				  AND d2.liked = ?
			)`, candidateID, false).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM block_relations br
				WHERE br.active = ?
				  AND ((br.blocker_id = ? AND br.blocked_id = d.swiper_id)
				    OR (br.blocker_id = d.swiper_id AND br.blocked_id = ?))
			)`, true, candidateID, candidateID)
}

// GetLikers returns profiles who liked the given candidate.
//
// Behavior:
//   - Only decisions where candidate_id = X and liked = true are returned.
//   - Excludes swipers that the candidate explicitly passed, and blocked pairs.
//   - newOnly additionally drops swipers the candidate already liked back.
//   - Ordered by created_at DESC, swiper_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, 42, nil, 20, false) // first 20 people who liked profile 42
func (r *DecisionRepository) GetLikers(
	ctx context.Context,
	candidateID uint64,
	paginationToken *string,
	limit int,
	newOnly bool,
) ([]db.SwipeDecision, *string, error) {
	var decisions []db.SwipeDecision
	limit = pagination.ClampLimit(limit)

	// decode cursor if provided
	cursor, err := pagination.Decode(pagination.Deref(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.likersScope(ctx, candidateID).
		Select("d.*").
		Order("d.created_at DESC, d.swiper_id DESC").
		Limit(limit + 1)

	if newOnly {
		query = query.Where(`
			NOT EXISTS (
				SELECT 1 FROM swipe_decisions d3
				WHERE d3.swiper_id = ?
				  AND d3.candidate_id = d.swiper_id
			)`, candidateID)
	}

	// apply cursor
	if !cursor.IsZero() {
		ts := cursor.At()
		query = query.Where(
			"(d.created_at < ? OR (d.created_at = ? AND d.swiper_id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&decisions).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(decisions) > limit {
		last := decisions[limit-1]
		token, _ := pagination.Encode(pagination.After(last.SwiperID, last.CreatedAt))
		nextToken = &token
		decisions = decisions[:limit]
	}

	return decisions, nextToken, nil
}

// CountLikers returns how many profiles liked the given candidate, with the
// same exclusions as GetLikers. Used behind the Redis counter (DB is fallback).
func (r *DecisionRepository) CountLikers(ctx context.Context, candidateID uint64) (int64, error) {
	var count int64
	if err := r.likersScope(ctx, candidateID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// HasLiked checks whether swiper has liked candidate.
func (r *DecisionRepository) HasLiked(ctx context.Context, swiperID, candidateID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.SwipeDecision{}).
		Where("swiper_id = ? AND candidate_id = ? AND liked = ?", swiperID, candidateID, true).
		Count(&count).Error
	return count > 0, err
}
