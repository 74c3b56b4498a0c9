package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/matchbot/internal/db"
)

// ReportRepository stores abuse reports. Append-only.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

func (r *ReportRepository) Create(ctx context.Context, report *db.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// ListByReported returns reports filed against a profile, newest first.
func (r *ReportRepository) ListByReported(ctx context.Context, reportedID uint64) ([]db.Report, error) {
	var reports []db.Report
	err := r.db.WithContext(ctx).
		Where("reported_id = ?", reportedID).
		Order("created_at DESC, id DESC").
		Find(&reports).Error
	return reports, err
}
