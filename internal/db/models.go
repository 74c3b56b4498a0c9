package db

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Orientation string

const (
	OrientationHetero Orientation = "hetero"
	OrientationHomo   Orientation = "homo"
	OrientationBi     Orientation = "bi"
	OrientationOther  Orientation = "other"
)

// MinAge is the youngest age a completed profile may carry.
const MinAge = 18

// ValidAgeRange reports whether lo..hi is a usable search filter.
func ValidAgeRange(lo, hi int) bool {
	return lo >= MinAge && hi >= lo
}

// Profile is the root entity. Placeholder rows (Completed=false) are created on the
// first contact with the bot and filled in by registration.
type Profile struct {
	ID           uint64      `gorm:"primaryKey;autoIncrement"`
	ExternalID   string      `gorm:"uniqueIndex;size:64;not null"`
	DisplayName  string      `gorm:"size:64"`
	Age          int         `gorm:"not null;default:0;index"`
	Gender       Gender      `gorm:"size:16"`
	Orientation  Orientation `gorm:"size:16"`
	City         string      `gorm:"size:128"`
	Bio          string      `gorm:"size:300"`
	Language     string      `gorm:"size:8;default:en"`
	Verified     bool        `gorm:"default:false"`
	Premium      bool        `gorm:"default:false"`
	Admin        bool        `gorm:"default:false"`
	TokenBalance int64       `gorm:"not null;default:0"`
	Completed    bool        `gorm:"not null;default:false"`
	Active       bool        `gorm:"default:true"`
	CreatedAt    time.Time   `gorm:"autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime"`
}

// Eligible reports whether the profile can take part in swiping.
func (p *Profile) Eligible() bool {
	return p.Completed && p.Active && p.Age >= MinAge
}

// SearchPreference holds explicit per-viewer filters. A missing row means defaults.
type SearchPreference struct {
	ProfileID       uint64    `gorm:"primaryKey;autoIncrement:false"`
	MinAge          int       `gorm:"not null;default:18"`
	MaxAge          int       `gorm:"not null;default:99"`
	PreferredGender Gender    `gorm:"size:16"`
	CityOnly        bool      `gorm:"not null;default:false"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// SwipeDecision represents a swiper's like/pass decision on a candidate.
//
// Composite PK: (SwiperID, CandidateID)
//   - At most one row per ordered pair. The first decision is final.
//
// Indexes:
//   - idx_candidate_liked_created(candidate_id, liked, created_at DESC)
//     Serves "who liked me" lists with pagination.
type SwipeDecision struct {
	SwiperID    uint64    `gorm:"primaryKey;autoIncrement:false"`
	CandidateID uint64    `gorm:"primaryKey;autoIncrement:false;index:idx_candidate_liked_created,priority:1"`
	Liked       bool      `gorm:"not null;index:idx_candidate_liked_created,priority:2"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_candidate_liked_created,priority:3,sort:desc"`
}

// Match is a mutually liked pair. ParticipantA < ParticipantB always holds, so the
// unique index idx_match_pair covers the unordered pair.
type Match struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	ParticipantA uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	ParticipantB uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index"`
	ThreadID     string    `gorm:"uniqueIndex;size:36;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// OrderedPair returns the two ids in (low, high) order.
func OrderedPair(x, y uint64) (uint64, uint64) {
	if x > y {
		return y, x
	}
	return x, y
}

func (m *Match) HasParticipant(profileID uint64) bool {
	return m.ParticipantA == profileID || m.ParticipantB == profileID
}

// Other returns the counterpart of profileID, or false if profileID is not in the match.
func (m *Match) Other(profileID uint64) (uint64, bool) {
	switch profileID {
	case m.ParticipantA:
		return m.ParticipantB, true
	case m.ParticipantB:
		return m.ParticipantA, true
	}
	return 0, false
}

// Message is one chat line inside a match thread. Append-only.
type Message struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement"`
	ThreadID string    `gorm:"size:36;not null;index:idx_thread_sent,priority:1"`
	SenderID uint64    `gorm:"not null"`
	Body     string    `gorm:"type:text;not null"`
	SentAt   time.Time `gorm:"autoCreateTime;not null;index:idx_thread_sent,priority:2"`
}

// BlockRelation is directional and unique per ordered pair. Unblocking flips
// Active instead of deleting the row.
type BlockRelation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	BlockerID uint64    `gorm:"not null;uniqueIndex:idx_block_pair,priority:1"`
	BlockedID uint64    `gorm:"not null;uniqueIndex:idx_block_pair,priority:2;index"`
	Reason    *string   `gorm:"size:255"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Report is append-only. ReporterID is nil for system-generated reports.
type Report struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ReporterID *uint64   `gorm:"index"`
	ReportedID uint64    `gorm:"not null;index"`
	Reason     string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&Profile{},
		&SearchPreference{},
		&SwipeDecision{},
		&Match{},
		&Message{},
		&BlockRelation{},
		&Report{},
	}
}

// ParseGender accepts the canonical values plus a few common spellings.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "man":
		return GenderMale, true
	case "female", "f", "woman":
		return GenderFemale, true
	case "other":
		return GenderOther, true
	}
	return "", false
}

// ParseOrientation accepts the canonical values plus a few common spellings.
func ParseOrientation(s string) (Orientation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hetero", "straight":
		return OrientationHetero, true
	case "homo", "gay", "lesbian":
		return OrientationHomo, true
	case "bi", "bisexual":
		return OrientationBi, true
	case "other":
		return OrientationOther, true
	}
	return "", false
}
