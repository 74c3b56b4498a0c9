package dating

import (
	"context"
	"strings"

	"github.com/oggyb/matchbot/internal/app"
	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
	"github.com/oggyb/matchbot/internal/repository"
)

// Service implements the Dating gRPC API.
// It validates requests and delegates to the core components; every core
// error leaves through svcErr.Map.
type Service struct {
	appCtx *app.AppContext
	core   *app.Core
}

var _ DatingServer = (*Service)(nil)

// NewDatingService creates the service with core components built from appCtx.
func NewDatingService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, core: app.NewCore(appCtx)}
}

// RegisterProfile creates the profile for external_id if needed and completes
// its registration details. Calling it again updates the details.
func (s *Service) RegisterProfile(ctx context.Context, req *RegisterProfileRequest) (*RegisterProfileResponse, error) {
	s.appCtx.Logger.Debug("RegisterProfile called", "external_id", req.ExternalID)

	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return nil, svcErr.InvalidArgument("external_id is required")
	}
	gender, ok := db.ParseGender(req.Gender)
	if !ok {
		return nil, svcErr.InvalidArgument("gender must be male, female or other")
	}
	orientation, ok := db.ParseOrientation(req.Orientation)
	if !ok {
		return nil, svcErr.InvalidArgument("orientation must be hetero, homo, bi or other")
	}

	p, created, err := s.core.Profiles.EnsureProfile(ctx, externalID, req.DisplayName)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	p, err = s.core.Profiles.CompleteProfile(ctx, p.ID, repository.ProfileDetails{
		DisplayName: req.DisplayName,
		Age:         req.Age,
		Gender:      gender,
		Orientation: orientation,
		City:        req.City,
		Bio:         req.Bio,
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &RegisterProfileResponse{Profile: *profileFromDB(p), Created: created}, nil
}

// SetSearchPreference stores explicit filters for the viewer.
func (s *Service) SetSearchPreference(ctx context.Context, req *SetSearchPreferenceRequest) (*SetSearchPreferenceResponse, error) {
	if req.ProfileID == 0 {
		return nil, svcErr.InvalidArgument("profile_id is required")
	}
	if !db.ValidAgeRange(req.MinAge, req.MaxAge) {
		return nil, svcErr.InvalidArgument("age range must satisfy 18 <= min_age <= max_age")
	}
	var gender db.Gender
	if req.PreferredGender != "" {
		g, ok := db.ParseGender(req.PreferredGender)
		if !ok {
			return nil, svcErr.InvalidArgument("preferred_gender must be male, female or other")
		}
		gender = g
	}
	if _, err := s.core.Profiles.GetByID(ctx, req.ProfileID); err != nil {
		return nil, svcErr.Map(err)
	}

	err := s.core.Preferences.Upsert(ctx, &db.SearchPreference{
		ProfileID:       req.ProfileID,
		MinAge:          req.MinAge,
		MaxAge:          req.MaxAge,
		PreferredGender: gender,
		CityOnly:        req.CityOnly,
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &SetSearchPreferenceResponse{}, nil
}

// NextCandidate returns the next compatible profile or an empty response.
func (s *Service) NextCandidate(ctx context.Context, req *NextCandidateRequest) (*NextCandidateResponse, error) {
	s.appCtx.Logger.Debug("NextCandidate called", "viewer", req.ViewerID)
	if req.ViewerID == 0 {
		return nil, svcErr.InvalidArgument("viewer_id is required")
	}

	candidate, err := s.core.Swipe.NextCandidate(ctx, req.ViewerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &NextCandidateResponse{Candidate: profileFromDB(candidate)}, nil
}

// RecordDecision stores a like or pass. A mutual like returns the match.
func (s *Service) RecordDecision(ctx context.Context, req *RecordDecisionRequest) (*RecordDecisionResponse, error) {
	s.appCtx.Logger.Debug("RecordDecision called", "viewer", req.ViewerID, "candidate", req.CandidateID, "liked", req.Liked)
	if req.ViewerID == 0 || req.CandidateID == 0 {
		return nil, svcErr.InvalidArgument("viewer_id and candidate_id are required")
	}

	res, err := s.core.Swipe.RecordDecision(ctx, req.ViewerID, req.CandidateID, req.Liked)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &RecordDecisionResponse{
		Liked:     res.Decision.Liked,
		Duplicate: res.Duplicate,
		Match:     matchFromDB(res.Match),
	}, nil
}

// SendMessage persists a chat message and pushes it to the other participant.
// A failed push is reported in delivery_warning; the call still succeeds.
func (s *Service) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	s.appCtx.Logger.Debug("SendMessage called", "thread", req.ThreadID, "sender", req.SenderID)
	if req.ThreadID == "" || req.SenderID == 0 {
		return nil, svcErr.InvalidArgument("thread_id and sender_id are required")
	}

	res, err := s.core.Chat.SendMessage(ctx, req.ThreadID, req.SenderID, req.Body)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &SendMessageResponse{Message: messageFromDB(res.Message)}
	if res.Warning != nil {
		resp.DeliveryWarning = res.Warning.Error()
	}
	return resp, nil
}

// GetThreadHistory returns the messages of a thread in send order.
func (s *Service) GetThreadHistory(ctx context.Context, req *GetThreadHistoryRequest) (*GetThreadHistoryResponse, error) {
	if req.ThreadID == "" {
		return nil, svcErr.InvalidArgument("thread_id is required")
	}

	if req.PaginationToken == nil && req.Limit <= 0 {
		msgs, err := s.core.Chat.GetThreadHistory(ctx, req.ThreadID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		return &GetThreadHistoryResponse{Messages: messagesFromDB(msgs)}, nil
	}

	msgs, next, err := s.core.Chat.HistoryPage(ctx, req.ThreadID, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &GetThreadHistoryResponse{Messages: messagesFromDB(msgs), NextPaginationToken: next}, nil
}

func (s *Service) Block(ctx context.Context, req *BlockRequest) (*BlockResponse, error) {
	s.appCtx.Logger.Debug("Block called", "blocker", req.BlockerID, "blocked", req.BlockedID)
	if req.BlockerID == 0 || req.BlockedID == 0 {
		return nil, svcErr.InvalidArgument("blocker_id and blocked_id are required")
	}
	if err := s.core.Moderation.Block(ctx, req.BlockerID, req.BlockedID, req.Reason); err != nil {
		return nil, svcErr.Map(err)
	}
	return &BlockResponse{}, nil
}

func (s *Service) Unblock(ctx context.Context, req *UnblockRequest) (*UnblockResponse, error) {
	if req.BlockerID == 0 || req.BlockedID == 0 {
		return nil, svcErr.InvalidArgument("blocker_id and blocked_id are required")
	}
	ok, err := s.core.Moderation.Unblock(ctx, req.BlockerID, req.BlockedID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &UnblockResponse{Unblocked: ok}, nil
}

// IsBlocked reports whether an active block exists in either direction.
func (s *Service) IsBlocked(ctx context.Context, req *IsBlockedRequest) (*IsBlockedResponse, error) {
	blocked, err := s.core.Moderation.IsBlocked(ctx, req.ProfileA, req.ProfileB)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &IsBlockedResponse{Blocked: blocked}, nil
}

// SubmitReport records a report and alerts the admins. reporter_id may be
// omitted for system reports.
func (s *Service) SubmitReport(ctx context.Context, req *SubmitReportRequest) (*SubmitReportResponse, error) {
	s.appCtx.Logger.Debug("SubmitReport called", "reported", req.ReportedID)
	if req.ReportedID == 0 {
		return nil, svcErr.InvalidArgument("reported_id is required")
	}
	report, err := s.core.Moderation.SubmitReport(ctx, req.ReporterID, req.ReportedID, req.Reason)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &SubmitReportResponse{ReportID: report.ID}, nil
}

// ListMatches returns the profile's matches, newest first.
func (s *Service) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	if req.ProfileID == 0 {
		return nil, svcErr.InvalidArgument("profile_id is required")
	}
	matches, err := s.core.Matches.ListMatches(ctx, req.ProfileID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &ListMatchesResponse{Matches: make([]Match, 0, len(matches))}
	for i := range matches {
		resp.Matches = append(resp.Matches, *matchFromDB(&matches[i]))
	}
	return resp, nil
}

// ListLikedYou returns everyone who liked the recipient.
//
// Behavior:
//   - Excludes profiles the recipient passed and blocked pairs.
//   - new_only also excludes profiles the recipient liked back.
//   - Supports cursor-based pagination with pagination_token.
func (s *Service) ListLikedYou(ctx context.Context, req *ListLikedYouRequest) (*ListLikedYouResponse, error) {
	s.appCtx.Logger.Debug("ListLikedYou called", "recipient", req.RecipientID, "token", req.PaginationToken, "new_only", req.NewOnly)
	if req.RecipientID == 0 {
		return nil, svcErr.InvalidArgument("recipient_id is required")
	}

	page, err := s.core.Swipe.ListLikedYou(ctx, req.RecipientID, req.PaginationToken, req.Limit, req.NewOnly)
	if err != nil {
		s.appCtx.Logger.Error("ListLikedYou failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &ListLikedYouResponse{Likers: make([]Liker, 0, len(page.Likers)), NextPaginationToken: page.NextToken}
	for _, d := range page.Likers {
		resp.Likers = append(resp.Likers, Liker{
			ProfileID:     d.SwiperID,
			UnixTimestamp: d.CreatedAt.UnixMilli(),
		})
	}

	s.appCtx.Logger.Debug("ListLikedYou result", "liker_count", len(resp.Likers))
	return resp, nil
}

// CountLikedYou returns how many profiles liked the recipient. Served from the
// Redis counter when present.
func (s *Service) CountLikedYou(ctx context.Context, req *CountLikedYouRequest) (*CountLikedYouResponse, error) {
	if req.RecipientID == 0 {
		return nil, svcErr.InvalidArgument("recipient_id is required")
	}
	n, err := s.core.Swipe.CountLikedYou(ctx, req.RecipientID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &CountLikedYouResponse{Count: uint64(n)}, nil
}
