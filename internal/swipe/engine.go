// Package swipe selects candidates for a viewer and records like/pass decisions.
package swipe

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/matchbot/internal/cache"
	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/metrics"
	"github.com/oggyb/matchbot/internal/repository"
)

// DefaultBatchSize is how many candidate rows are scanned per query.
const DefaultBatchSize = 50

// MatchChecker is called after every stored like.
type MatchChecker interface {
	CheckAndCreateMatch(ctx context.Context, viewerID, candidateID uint64) (*db.Match, error)
}

// DecisionResult describes what RecordDecision stored.
type DecisionResult struct {
	// Decision is the stored row. For a duplicate call it is the first decision.
	Decision *db.SwipeDecision
	// Match is set when the stored decision is a like and the pair is mutual.
	Match *db.Match
	// Duplicate is true when the pair had already been decided.
	Duplicate bool
}

// LikedYouPage is one page of profiles who liked the viewer.
type LikedYouPage struct {
	Likers    []db.SwipeDecision
	NextToken *string
}

type Engine struct {
	profiles    *repository.ProfileRepository
	preferences *repository.PreferenceRepository
	decisions   *repository.DecisionRepository
	matcher     MatchChecker
	cache       *cache.RedisCache
	log         *slog.Logger
	batchSize   int
}

// NewEngine creates a swipe engine. rc may be nil, which disables the liked-you counter cache.
func NewEngine(database *gorm.DB, matcher MatchChecker, rc *cache.RedisCache) *Engine {
	return &Engine{
		profiles:    repository.NewProfileRepository(database),
		preferences: repository.NewPreferenceRepository(database),
		decisions:   repository.NewDecisionRepository(database),
		matcher:     matcher,
		cache:       rc,
		log:         logger.Named("swipe"),
		batchSize:   DefaultBatchSize,
	}
}

// WithBatchSize overrides the candidate scan batch size.
func (e *Engine) WithBatchSize(n int) *Engine {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

// NextCandidate returns the next compatible profile the viewer has not decided on,
// or nil when nobody is left. Candidates come in ascending id order. Read-only.
func (e *Engine) NextCandidate(ctx context.Context, viewerID uint64) (*db.Profile, error) {
	viewer, err := e.profiles.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !viewer.Eligible() {
		return nil, fmt.Errorf("viewer %d: %w", viewerID, svcErr.ErrProfileIncomplete)
	}

	pref, err := e.preferences.Get(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	c := newCriteria(viewer, pref)

	var after uint64
	for {
		batch, err := e.profiles.ListCandidates(ctx, viewerID, repository.CandidateQuery{
			AfterID: after,
			MinAge:  c.minAge,
			MaxAge:  c.maxAge,
			Limit:   e.batchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}
		for i := range batch {
			if c.accepts(&batch[i]) {
				return &batch[i], nil
			}
		}
		if len(batch) < e.batchSize {
			return nil, nil
		}
		after = batch[len(batch)-1].ID
	}
}

// RecordDecision stores viewer's like or pass on candidate.
//
// Behavior:
//   - viewer == candidate → ErrSelfDecision; unknown profile → ErrProfileNotFound.
//   - The first decision for the pair is final. Repeating the call succeeds with
//     Duplicate = true and reports the stored outcome.
//   - When the stored decision is a like the match detector runs synchronously.
func (e *Engine) RecordDecision(ctx context.Context, viewerID, candidateID uint64, liked bool) (*DecisionResult, error) {
	if viewerID == candidateID {
		return nil, svcErr.ErrSelfDecision
	}
	for _, id := range []uint64{viewerID, candidateID} {
		ok, err := e.profiles.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("profile %d: %w", id, svcErr.ErrProfileNotFound)
		}
	}

	stored, inserted, err := e.decisions.CreateDecision(ctx, viewerID, candidateID, liked)
	if err != nil {
		return nil, fmt.Errorf("record decision: %w", err)
	}
	result := &DecisionResult{Decision: stored, Duplicate: !inserted}

	switch {
	case !inserted:
		metrics.DecisionsTotal.WithLabelValues("duplicate").Inc()
		e.log.Debug("duplicate decision ignored", "viewer", viewerID, "candidate", candidateID, "stored_liked", stored.Liked)
	case stored.Liked:
		metrics.DecisionsTotal.WithLabelValues("like").Inc()
		e.invalidateLikeCount(ctx, candidateID)
	default:
		metrics.DecisionsTotal.WithLabelValues("pass").Inc()
		// passing someone who liked you drops them from your liked-you list
		e.invalidateLikeCount(ctx, viewerID)
	}

	if stored.Liked && e.matcher != nil {
		m, err := e.matcher.CheckAndCreateMatch(ctx, viewerID, candidateID)
		if err != nil {
			return nil, fmt.Errorf("check match: %w", err)
		}
		result.Match = m
	}
	return result, nil
}

// ListLikedYou returns who liked the viewer, newest first, without people the
// viewer passed. newOnly also hides people the viewer already liked back.
func (e *Engine) ListLikedYou(ctx context.Context, viewerID uint64, token *string, limit int, newOnly bool) (*LikedYouPage, error) {
	if _, err := e.profiles.GetByID(ctx, viewerID); err != nil {
		return nil, err
	}
	likers, next, err := e.decisions.GetLikers(ctx, viewerID, token, limit, newOnly)
	if err != nil {
		return nil, err
	}
	return &LikedYouPage{Likers: likers, NextToken: next}, nil
}

// CountLikedYou returns how many profiles liked the viewer.
// Cache-first: Redis (likes:count:<id>) with a 1h TTL, database on a miss.
func (e *Engine) CountLikedYou(ctx context.Context, viewerID uint64) (int64, error) {
	if e.cache != nil {
		n, found, err := e.cache.GetLikeCount(ctx, viewerID)
		if err != nil {
			e.log.Warn("like count cache read failed", "profile", viewerID, "err", err)
		} else if found {
			return n, nil
		}
	}

	if _, err := e.profiles.GetByID(ctx, viewerID); err != nil {
		return 0, err
	}
	count, err := e.decisions.CountLikers(ctx, viewerID)
	if err != nil {
		return 0, err
	}
	if e.cache != nil {
		if err := e.cache.UpdateLikeCount(ctx, viewerID, count); err != nil {
			e.log.Warn("like count cache write failed", "profile", viewerID, "err", err)
		}
	}
	return count, nil
}

func (e *Engine) invalidateLikeCount(ctx context.Context, profileID uint64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateLikeCount(ctx, profileID); err != nil {
		e.log.Warn("like count cache invalidation failed", "profile", profileID, "err", err)
	}
}
