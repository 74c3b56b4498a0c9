package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchbot/internal/db"
)

// PreferenceRepository provides explicit search filters per viewer.
type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(database *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: database}
}

// Get returns the viewer's preferences, or nil when none were saved.
func (r *PreferenceRepository) Get(ctx context.Context, profileID uint64) (*db.SearchPreference, error) {
	var pref db.SearchPreference
	err := r.db.WithContext(ctx).First(&pref, "profile_id = ?", profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert stores the preferences, replacing a previous row for the same profile.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *db.SearchPreference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"min_age", "max_age", "preferred_gender", "city_only", "updated_at"}),
		}).
		Create(pref).Error
}

// Delete drops saved preferences so defaults apply again.
func (r *PreferenceRepository) Delete(ctx context.Context, profileID uint64) error {
	return r.db.WithContext(ctx).Delete(&db.SearchPreference{}, "profile_id = ?", profileID).Error
}
