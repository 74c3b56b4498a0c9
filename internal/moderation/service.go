// Package moderation handles blocks between profiles and abuse reports.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/matchbot/internal/cache"
	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
	"github.com/oggyb/matchbot/internal/events"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/metrics"
	"github.com/oggyb/matchbot/internal/notify"
	"github.com/oggyb/matchbot/internal/repository"
)

type Service struct {
	profiles *repository.ProfileRepository
	blocks   *repository.BlockRepository
	reports  *repository.ReportRepository
	notifier notify.Channel
	events   events.Publisher
	cache    *cache.RedisCache
	admins   []string
	log      *slog.Logger
}

// Options carries the optional collaborators. Zero values disable the side effect.
type Options struct {
	Notifier notify.Channel
	Events   events.Publisher
	Cache    *cache.RedisCache
	// AdminIDs are chat handles that receive report notifications.
	AdminIDs []string
}

func NewService(database *gorm.DB, opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard{}
	}
	if opts.Events == nil {
		opts.Events = events.Noop{}
	}
	return &Service{
		profiles: repository.NewProfileRepository(database),
		blocks:   repository.NewBlockRepository(database),
		reports:  repository.NewReportRepository(database),
		notifier: opts.Notifier,
		events:   opts.Events,
		cache:    opts.Cache,
		admins:   opts.AdminIDs,
		log:      logger.Named("moderation"),
	}
}

// Block stops blocker and blocked from seeing or messaging each other.
// Idempotent; blocking again after an unblock re-activates the relation.
func (s *Service) Block(ctx context.Context, blockerID, blockedID uint64, reason *string) error {
	if blockerID == blockedID {
		return svcErr.ErrSelfBlock
	}
	if err := s.mustExist(ctx, blockerID, blockedID); err != nil {
		return err
	}
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		reason = &trimmed
	}
	if err := s.blocks.Activate(ctx, blockerID, blockedID, reason); err != nil {
		return fmt.Errorf("block: %w", err)
	}
	metrics.ModerationActionsTotal.WithLabelValues("block").Inc()
	s.log.Info("profile blocked", "blocker", blockerID, "blocked", blockedID)
	s.invalidateLikeCounts(ctx, blockerID, blockedID)
	return nil
}

// Unblock reports whether an active blocker -> blocked relation was turned off.
func (s *Service) Unblock(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	changed, err := s.blocks.Deactivate(ctx, blockerID, blockedID)
	if err != nil {
		return false, fmt.Errorf("unblock: %w", err)
	}
	if changed {
		metrics.ModerationActionsTotal.WithLabelValues("unblock").Inc()
		s.log.Info("profile unblocked", "blocker", blockerID, "blocked", blockedID)
		s.invalidateLikeCounts(ctx, blockerID, blockedID)
	}
	return changed, nil
}

// IsBlocked reports an active block between a and b in either direction.
func (s *Service) IsBlocked(ctx context.Context, a, b uint64) (bool, error) {
	return s.blocks.IsBlockedEither(ctx, a, b)
}

// ListBlocked returns the relations blockerID currently keeps active.
func (s *Service) ListBlocked(ctx context.Context, blockerID uint64) ([]db.BlockRelation, error) {
	return s.blocks.ListActiveByBlocker(ctx, blockerID)
}

// SubmitReport files a report against reportedID. reporterID is nil for
// system-generated reports. The report is stored first; the event and admin
// notifications are best-effort.
func (s *Service) SubmitReport(ctx context.Context, reporterID *uint64, reportedID uint64, reason string) (*db.Report, error) {
	ids := []uint64{reportedID}
	if reporterID != nil {
		ids = append(ids, *reporterID)
	}
	if err := s.mustExist(ctx, ids...); err != nil {
		return nil, err
	}

	report := &db.Report{ReporterID: reporterID, ReportedID: reportedID, Reason: strings.TrimSpace(reason)}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("submit report: %w", err)
	}
	metrics.ModerationActionsTotal.WithLabelValues("report").Inc()
	s.log.Info("report submitted", "report_id", report.ID, "reported", reportedID)

	err := s.events.Publish(ctx, events.Event{
		Type: events.TypeReportSubmitted,
		Key:  fmt.Sprintf("%d", reportedID),
		Payload: events.ReportSubmitted{
			ReportID:   report.ID,
			ReporterID: reporterID,
			ReportedID: reportedID,
			Reason:     report.Reason,
		},
		OccurredAt: report.CreatedAt,
	})
	if err != nil {
		s.log.Warn("report event not published", "report_id", report.ID, "err", err)
	}
	s.notifyAdmins(ctx, report)
	return report, nil
}

func (s *Service) notifyAdmins(ctx context.Context, r *db.Report) {
	reporter := "system"
	if r.ReporterID != nil {
		reporter = fmt.Sprintf("%d", *r.ReporterID)
	}
	text := fmt.Sprintf("⚠️ Profile %s reported profile %d.", reporter, r.ReportedID)
	if r.Reason != "" {
		text += "\nReason: " + r.Reason
	}
	for _, admin := range s.admins {
		if err := s.notifier.Deliver(ctx, admin, text); err != nil {
			metrics.DeliveryFailuresTotal.WithLabelValues("admin").Inc()
			s.log.Warn("admin notification failed", "admin", admin, "report_id", r.ID, "err", err)
		}
	}
}

func (s *Service) mustExist(ctx context.Context, ids ...uint64) error {
	for _, id := range ids {
		ok, err := s.profiles.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("profile %d: %w", id, svcErr.ErrProfileNotFound)
		}
	}
	return nil
}

// invalidateLikeCounts drops cached liked-you counters; blocks hide likers.
func (s *Service) invalidateLikeCounts(ctx context.Context, ids ...uint64) {
	if s.cache == nil {
		return
	}
	for _, id := range ids {
		if err := s.cache.InvalidateLikeCount(ctx, id); err != nil {
			s.log.Warn("like count cache invalidation failed", "profile", id, "err", err)
		}
	}
}
