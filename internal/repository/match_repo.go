package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts a match for the unordered pair {x, y}.
//
// Behavior:
//   - The pair is normalized so ParticipantA < ParticipantB.
//   - If a match already exists for the pair the insert is skipped and
//     ErrDuplicateMatch is returned. The unique index decides the race.
func (r *MatchRepository) Create(ctx context.Context, x, y uint64, threadID string) (*db.Match, error) {
	a, b := db.OrderedPair(x, y)
	m := db.Match{ParticipantA: a, ParticipantB: b, ThreadID: threadID}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&m)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("pair (%d, %d): %w", a, b, svcErr.ErrDuplicateMatch)
	}
	return &m, nil
}

// GetByPair returns the match for {x, y} in either order, or nil.
func (r *MatchRepository) GetByPair(ctx context.Context, x, y uint64) (*db.Match, error) {
	a, b := db.OrderedPair(x, y)
	var m db.Match
	err := r.db.WithContext(ctx).
		Where("participant_a = ? AND participant_b = ?", a, b).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByThreadID returns the match owning the thread or ErrThreadNotFound.
func (r *MatchRepository) GetByThreadID(ctx context.Context, threadID string) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).Where("thread_id = ?", threadID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("thread %q: %w", threadID, svcErr.ErrThreadNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByProfile returns every match the profile takes part in, newest first.
func (r *MatchRepository) ListByProfile(ctx context.Context, profileID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", profileID, profileID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}
