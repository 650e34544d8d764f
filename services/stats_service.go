package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/washwala/laundry-api/logging"
	"github.com/washwala/laundry-api/models"
	"gorm.io/gorm"
)

// LaundryStats are the derived counters stored on a laundry
type LaundryStats struct {
	Rating        float64 `json:"rating"`
	TotalReviews  int     `json:"total_reviews"`
	TotalOrders   int     `json:"total_orders"`
	ServicesCount int     `json:"services_count"`
}

// StatsService recomputes laundry aggregates from the underlying rows
type StatsService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewStatsService(db *gorm.DB, log *slog.Logger) *StatsService {
	return &StatsService{db: db, log: logging.OrDiscard(log).With("component", "stats")}
}

// Recompute rederives and stores every aggregate of laundryID
func (s *StatsService) Recompute(ctx context.Context, laundryID uint) (*LaundryStats, error) {
	var stats *LaundryStats
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stats, err = s.recompute(tx, laundryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, s.log).Debug("laundry stats recomputed", "laundry_id", laundryID, "rating", stats.Rating)
	return stats, nil
}

func (s *StatsService) recompute(tx *gorm.DB, laundryID uint) (*LaundryStats, error) {
	var orders int64
	if err := tx.Model(&models.Order{}).
		Where("laundry_id = ? AND status <> ?", laundryID, models.StatusCancelled).
		Count(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var reviews struct {
		Count   int64
		Average float64
	}
	if err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("laundry_id = ? AND is_visible = ?", laundryID, true).
		Scan(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	var services int64
	if err := tx.Model(&models.LaundryService{}).
		Where("laundry_id = ? AND is_available = ?", laundryID, true).
		Count(&services).Error; err != nil {
		return nil, fmt.Errorf("failed to count services: %w", err)
	}

	stats := &LaundryStats{
		Rating:        decimal.NewFromFloat(reviews.Average).Round(2).InexactFloat64(),
		TotalReviews:  int(reviews.Count),
		TotalOrders:   int(orders),
		ServicesCount: int(services),
	}

	// a soft-deleted laundry still finishes its in-flight orders
	res := tx.Unscoped().Model(&models.Laundry{}).Where("id = ?", laundryID).Updates(map[string]any{
		"rating":         stats.Rating,
		"total_reviews":  stats.TotalReviews,
		"total_orders":   stats.TotalOrders,
		"services_count": stats.ServicesCount,
	})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to store laundry stats: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrLaundryNotFound
	}
	return stats, nil
}
