package reports

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository persists report run history
type Repository interface {
	CreateRun(ctx context.Context, run *ReportRun) error
	ListRuns(ctx context.Context, limit int) ([]ReportRun, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm backed run repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// AutoMigrate creates or updates the report_runs table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ReportRun{})
}

func (r *gormRepository) CreateRun(ctx context.Context, run *ReportRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record report run: %w", err)
	}
	return nil
}

// ListRuns returns the newest runs first; limit <= 0 returns all of them.
func (r *gormRepository) ListRuns(ctx context.Context, limit int) ([]ReportRun, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var runs []ReportRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list report runs: %w", err)
	}
	return runs, nil
}
