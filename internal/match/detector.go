// Package match turns reciprocal likes into matches with a chat thread.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
	"github.com/oggyb/matchbot/internal/events"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/metrics"
	"github.com/oggyb/matchbot/internal/notify"
	"github.com/oggyb/matchbot/internal/repository"
)

// Detector checks reciprocity and creates at most one Match per unordered pair.
type Detector struct {
	decisions *repository.DecisionRepository
	matches   *repository.MatchRepository
	profiles  *repository.ProfileRepository
	blocks    *repository.BlockRepository
	notifier  notify.Channel
	events    events.Publisher
	log       *slog.Logger

	newThreadID func() string
}

// NewDetector wires a detector on top of the given database. A nil notifier or
// publisher disables that side effect.
func NewDetector(database *gorm.DB, notifier notify.Channel, publisher events.Publisher) *Detector {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Detector{
		decisions:   repository.NewDecisionRepository(database),
		matches:     repository.NewMatchRepository(database),
		profiles:    repository.NewProfileRepository(database),
		blocks:      repository.NewBlockRepository(database),
		notifier:    notifier,
		events:      publisher,
		log:         logger.Named("match"),
		newThreadID: uuid.NewString,
	}
}

// CheckAndCreateMatch is called after viewerID liked candidateID.
//
// Behavior:
//   - No like candidate -> viewer yet → nil, nil.
//   - An active block in either direction → nil, nil. The likes stay stored.
//   - Otherwise a Match with a fresh thread id is inserted for the pair. If another
//     caller won the race the existing Match is fetched and returned instead;
//     the conflict never reaches the caller.
//   - Only the call that created the Match notifies both sides and publishes
//     match.created. Both are best-effort.
func (d *Detector) CheckAndCreateMatch(ctx context.Context, viewerID, candidateID uint64) (*db.Match, error) {
	reciprocal, err := d.decisions.HasLiked(ctx, candidateID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("check reciprocal like: %w", err)
	}
	if !reciprocal {
		return nil, nil
	}
	blocked, err := d.blocks.IsBlockedEither(ctx, viewerID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		d.log.Debug("mutual like between blocked pair ignored", "viewer", viewerID, "candidate", candidateID)
		return nil, nil
	}

	m, err := d.matches.Create(ctx, viewerID, candidateID, d.newThreadID())
	if errors.Is(err, svcErr.ErrDuplicateMatch) {
		existing, getErr := d.matches.GetByPair(ctx, viewerID, candidateID)
		if getErr != nil {
			return nil, fmt.Errorf("load existing match: %w", getErr)
		}
		if existing == nil {
			return nil, fmt.Errorf("match for (%d, %d) vanished after conflict", viewerID, candidateID)
		}
		d.log.Debug("match already existed", "match_id", existing.ID, "viewer", viewerID, "candidate", candidateID)
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	metrics.MatchesCreatedTotal.Inc()
	d.log.Info("match created", "match_id", m.ID, "a", m.ParticipantA, "b", m.ParticipantB, "thread", m.ThreadID)

	d.announce(ctx, m)
	d.publish(ctx, m)
	return m, nil
}

// ListMatches returns the profile's matches, newest first.
func (d *Detector) ListMatches(ctx context.Context, profileID uint64) ([]db.Match, error) {
	if _, err := d.profiles.GetByID(ctx, profileID); err != nil {
		return nil, err
	}
	return d.matches.ListByProfile(ctx, profileID)
}

func (d *Detector) announce(ctx context.Context, m *db.Match) {
	people, err := d.profiles.GetByIDs(ctx, []uint64{m.ParticipantA, m.ParticipantB})
	if err != nil {
		d.log.Warn("match notification skipped", "match_id", m.ID, "err", err)
		return
	}
	for _, pair := range [][2]uint64{{m.ParticipantA, m.ParticipantB}, {m.ParticipantB, m.ParticipantA}} {
		to, ok := people[pair[0]]
		if !ok {
			continue
		}
		text := fmt.Sprintf("🎉 It's a mutual like with %s! You can start chatting ❤️", people[pair[1]].DisplayName)
		if err := d.notifier.Deliver(ctx, to.ExternalID, text); err != nil {
			metrics.DeliveryFailuresTotal.WithLabelValues("match").Inc()
			d.log.Warn("match notification failed", "match_id", m.ID, "recipient", to.ID, "err", err)
		}
	}
}

func (d *Detector) publish(ctx context.Context, m *db.Match) {
	err := d.events.Publish(ctx, events.Event{
		Type: events.TypeMatchCreated,
		Key:  fmt.Sprintf("%d:%d", m.ParticipantA, m.ParticipantB),
		Payload: events.MatchCreated{
			MatchID:      m.ID,
			ParticipantA: m.ParticipantA,
			ParticipantB: m.ParticipantB,
			ThreadID:     m.ThreadID,
		},
		OccurredAt: m.CreatedAt,
	})
	if err != nil {
		d.log.Warn("match event not published", "match_id", m.ID, "err", err)
	}
}
