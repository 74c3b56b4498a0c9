package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
)

// ProfileRepository is the profile store. Profiles are never hard-deleted.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// ProfileDetails is the registration payload that completes a placeholder.
type ProfileDetails struct {
	DisplayName string
	Age         int
	Gender      db.Gender
	Orientation db.Orientation
	City        string
	Bio         string
	Language    string
}

// CandidateQuery narrows the candidate scan. Zero bounds are ignored.
type CandidateQuery struct {
	AfterID uint64
	MinAge  int
	MaxAge  int
	Limit   int
}

// GetByID returns the profile or ErrProfileNotFound.
func (r *ProfileRepository) GetByID(ctx context.Context, id uint64) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("profile %d: %w", id, svcErr.ErrProfileNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByExternalID resolves a chat-platform handle to its profile.
func (r *ProfileRepository) GetByExternalID(ctx context.Context, externalID string) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).First(&p, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("profile %q: %w", externalID, svcErr.ErrProfileNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs loads several profiles at once, keyed by id. Missing ids are simply absent.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]db.Profile, error) {
	out := make(map[uint64]db.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []db.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// Exists reports whether a profile row with the id is present.
func (r *ProfileRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Profile{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// EnsureProfile returns the profile for externalID, creating a placeholder on first contact.
// created is true only for the call that inserted the row.
func (r *ProfileRepository) EnsureProfile(ctx context.Context, externalID, displayName string) (*db.Profile, bool, error) {
	placeholder := db.Profile{
		ExternalID:  externalID,
		DisplayName: displayName,
		Language:    "en",
		Active:      true,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_id"}}, DoNothing: true}).
		Create(&placeholder)
	if res.Error != nil {
		return nil, false, res.Error
	}
	p, err := r.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, false, err
	}
	return p, res.RowsAffected > 0, nil
}

// CompleteProfile fills in registration details and marks the profile completed.
//
// Behavior:
//   - Age below db.MinAge → ErrInvalidAge, nothing is written.
//   - Empty DisplayName/Language keep the stored values.
func (r *ProfileRepository) CompleteProfile(ctx context.Context, id uint64, d ProfileDetails) (*db.Profile, error) {
	if d.Age < db.MinAge {
		return nil, fmt.Errorf("age %d: %w", d.Age, svcErr.ErrInvalidAge)
	}
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"age":         d.Age,
		"gender":      d.Gender,
		"orientation": d.Orientation,
		"city":        strings.TrimSpace(d.City),
		"bio":         truncateRunes(strings.TrimSpace(d.Bio), 300),
		"completed":   true,
		"active":      true,
	}
	if d.DisplayName != "" {
		updates["display_name"] = d.DisplayName
	}
	if d.Language != "" {
		updates["language"] = d.Language
	}
	if err := r.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ListCandidates returns the next batch of swipe candidates for viewerID.
//
// Behavior:
//   - Excludes the viewer, placeholders, deactivated and under-age profiles.
//   - Excludes anyone the viewer already decided on, with either outcome.
//   - Excludes anyone linked to the viewer by an active block in either direction.
//   - Ascending by id, starting after q.AfterID (keyset pagination).
func (r *ProfileRepository) ListCandidates(ctx context.Context, viewerID uint64, q CandidateQuery) ([]db.Profile, error) {
	var profiles []db.Profile

	query := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("profiles.id <> ? AND profiles.id > ?", viewerID, q.AfterID).
		Where("profiles.completed = ? AND profiles.active = ? AND profiles.age >= ?", true, true, db.MinAge).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipe_decisions sd
				WHERE sd.swiper_id = ?
				  AND sd.candidate_id = profiles.id
			)`, viewerID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM block_relations br
				WHERE br.active = ?
				  AND ((br.blocker_id = ? AND br.blocked_id = profiles.id)
				    OR (br.blocker_id = profiles.id AND br.blocked_id = ?))
			)`, true, viewerID, viewerID).
		Order("profiles.id ASC")

	if q.MinAge > 0 {
		query = query.Where("profiles.age >= ?", q.MinAge)
	}
	if q.MaxAge > 0 {
		query = query.Where("profiles.age <= ?", q.MaxAge)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
