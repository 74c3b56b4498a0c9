package dating

import (
	"github.com/oggyb/matchbot/internal/db"
)

// Wire messages of matchbot.dating.v1.DatingService. They travel as JSON
// (content subtype "json"); timestamps are unix milliseconds.

type Profile struct {
	ID          uint64 `json:"id"`
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Orientation string `json:"orientation"`
	City        string `json:"city"`
	Bio         string `json:"bio,omitempty"`
}

type Match struct {
	ID            uint64 `json:"id"`
	ParticipantA  uint64 `json:"participant_a"`
	ParticipantB  uint64 `json:"participant_b"`
	ThreadID      string `json:"thread_id"`
	UnixTimestamp int64  `json:"unix_timestamp"`
}

type Message struct {
	ID            uint64 `json:"id"`
	ThreadID      string `json:"thread_id"`
	SenderID      uint64 `json:"sender_id"`
	Body          string `json:"body"`
	UnixTimestamp int64  `json:"unix_timestamp"`
}

type Liker struct {
	ProfileID     uint64 `json:"profile_id"`
	UnixTimestamp int64  `json:"unix_timestamp"`
}

type RegisterProfileRequest struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Orientation string `json:"orientation"`
	City        string `json:"city"`
	Bio         string `json:"bio,omitempty"`
}

type RegisterProfileResponse struct {
	Profile Profile `json:"profile"`
	Created bool    `json:"created"`
}

type SetSearchPreferenceRequest struct {
	ProfileID       uint64 `json:"profile_id"`
	MinAge          int    `json:"min_age"`
	MaxAge          int    `json:"max_age"`
	PreferredGender string `json:"preferred_gender,omitempty"`
	CityOnly        bool   `json:"city_only"`
}

type SetSearchPreferenceResponse struct{}

type NextCandidateRequest struct {
	ViewerID uint64 `json:"viewer_id"`
}

type NextCandidateResponse struct {
	// Candidate is nil when nobody is left.
	Candidate *Profile `json:"candidate,omitempty"`
}

type RecordDecisionRequest struct {
	ViewerID    uint64 `json:"viewer_id"`
	CandidateID uint64 `json:"candidate_id"`
	Liked       bool   `json:"liked"`
}

type RecordDecisionResponse struct {
	// Liked is the stored outcome, which for a duplicate call is the first one.
	Liked     bool   `json:"liked"`
	Duplicate bool   `json:"duplicate"`
	Match     *Match `json:"match,omitempty"`
}

type SendMessageRequest struct {
	ThreadID string `json:"thread_id"`
	SenderID uint64 `json:"sender_id"`
	Body     string `json:"body"`
}

type SendMessageResponse struct {
	Message         Message `json:"message"`
	DeliveryWarning string  `json:"delivery_warning,omitempty"`
}

type GetThreadHistoryRequest struct {
	ThreadID        string  `json:"thread_id"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	// Limit > 0 or a token switches to paged mode; otherwise the full history is returned.
	Limit int `json:"limit,omitempty"`
}

type GetThreadHistoryResponse struct {
	Messages            []Message `json:"messages"`
	NextPaginationToken *string   `json:"next_pagination_token,omitempty"`
}

type BlockRequest struct {
	BlockerID uint64  `json:"blocker_id"`
	BlockedID uint64  `json:"blocked_id"`
	Reason    *string `json:"reason,omitempty"`
}

type BlockResponse struct{}

type UnblockRequest struct {
	BlockerID uint64 `json:"blocker_id"`
	BlockedID uint64 `json:"blocked_id"`
}

type UnblockResponse struct {
	Unblocked bool `json:"unblocked"`
}

type IsBlockedRequest struct {
	ProfileA uint64 `json:"profile_a"`
	ProfileB uint64 `json:"profile_b"`
}

type IsBlockedResponse struct {
	Blocked bool `json:"blocked"`
}

type SubmitReportRequest struct {
	ReporterID *uint64 `json:"reporter_id,omitempty"`
	ReportedID uint64  `json:"reported_id"`
	Reason     string  `json:"reason"`
}

type SubmitReportResponse struct {
	ReportID uint64 `json:"report_id"`
}

type ListMatchesRequest struct {
	ProfileID uint64 `json:"profile_id"`
}

type ListMatchesResponse struct {
	Matches []Match `json:"matches"`
}

type ListLikedYouRequest struct {
	RecipientID     uint64  `json:"recipient_id"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int     `json:"limit,omitempty"`
	// NewOnly hides likers the recipient already liked back.
	NewOnly bool `json:"new_only,omitempty"`
}

type ListLikedYouResponse struct {
	Likers              []Liker `json:"likers"`
	NextPaginationToken *string `json:"next_pagination_token,omitempty"`
}

type CountLikedYouRequest struct {
	RecipientID uint64 `json:"recipient_id"`
}

type CountLikedYouResponse struct {
	Count uint64 `json:"count"`
}

func profileFromDB(p *db.Profile) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		ID:          p.ID,
		ExternalID:  p.ExternalID,
		DisplayName: p.DisplayName,
		Age:         p.Age,
		Gender:      string(p.Gender),
		Orientation: string(p.Orientation),
		City:        p.City,
		Bio:         p.Bio,
	}
}

func matchFromDB(m *db.Match) *Match {
	if m == nil {
		return nil
	}
	return &Match{
		ID:            m.ID,
		ParticipantA:  m.ParticipantA,
		ParticipantB:  m.ParticipantB,
		ThreadID:      m.ThreadID,
		UnixTimestamp: m.CreatedAt.UnixMilli(),
	}
}

func messagesFromDB(msgs []db.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageFromDB(&m))
	}
	return out
}

func messageFromDB(m *db.Message) Message {
	return Message{
		ID:            m.ID,
		ThreadID:      m.ThreadID,
		SenderID:      m.SenderID,
		Body:          m.Body,
		UnixTimestamp: m.SentAt.UnixMilli(),
	}
}
