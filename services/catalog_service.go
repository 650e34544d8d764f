package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/washwala/laundry-api/cache"
	"github.com/washwala/laundry-api/logging"
	"github.com/washwala/laundry-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PricingInput creates or replaces the price of a (service, clothing item) pair
type PricingInput struct {
	ServiceID      uint             `json:"service_id" binding:"required"`
	ClothingItemID uint             `json:"clothing_item_id" binding:"required"`
	Price          decimal.Decimal  `json:"price"`
	ExpressPrice   *decimal.Decimal `json:"express_price"`
	PriceUnit      string           `json:"price_unit"`
	IsAvailable    *bool            `json:"is_available"`
}

// CatalogService serves reference data and a laundry's services and prices
type CatalogService struct {
	db    *gorm.DB
	cache cache.Provider
	ttl   time.Duration
	stats *StatsService
	log   *slog.Logger
}

func NewCatalogService(db *gorm.DB, provider cache.Provider, ttl time.Duration, stats *StatsService, log *slog.Logger) *CatalogService {
	return &CatalogService{
		db:    db,
		cache: provider,
		ttl:   ttl,
		stats: stats,
		log:   logging.OrDiscard(log).With("component", "catalog"),
	}
}

// ListCategories returns all service categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	return cache.Remember(ctx, s.cache, cache.CatalogKey("categories"), s.ttl,
		func(ctx context.Context) ([]models.ServiceCategory, error) {
			categories := []models.ServiceCategory{}
			if err := s.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&categories).Error; err != nil {
				return nil, fmt.Errorf("failed to list categories: %w", err)
			}
			return categories, nil
		})
}

// ListClothingItems returns all clothing items
func (s *CatalogService) ListClothingItems(ctx context.Context) ([]models.ClothingItem, error) {
	return cache.Remember(ctx, s.cache, cache.CatalogKey("clothing_items"), s.ttl,
		func(ctx context.Context) ([]models.ClothingItem, error) {
			items := []models.ClothingItem{}
			if err := s.db.WithContext(ctx).Order("category ASC, name ASC").Find(&items).Error; err != nil {
				return nil, fmt.Errorf("failed to list clothing items: %w", err)
			}
			return items, nil
		})
}

// ListLaundryServices returns a laundry's services with their pricing rows
func (s *CatalogService) ListLaundryServices(ctx context.Context, laundryID uint) ([]models.LaundryService, error) {
	db := s.db.WithContext(ctx)
	if err := laundryExists(db, laundryID); err != nil {
		return nil, err
	}

	services := []models.LaundryService{}
	err := db.
		Preload("Category").
		Preload("Pricing", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Pricing.ClothingItem").
		Where("laundry_id = ?", laundryID).
		Order("id ASC").
		Find(&services).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

// UpsertServicePricing creates or replaces the price keyed by
// (service_id, clothing_item_id). The last write wins; existing orders keep
// their frozen prices.
func (s *CatalogService) UpsertServicePricing(ctx context.Context, actor Actor, laundryID uint, in PricingInput) (*models.ServicePricing, error) {
	if !actor.CanManageLaundry(laundryID) {
		return nil, ErrForbidden
	}
	if in.PriceUnit == "" {
		in.PriceUnit = models.PricePerPiece
	}
	if in.PriceUnit != models.PricePerPiece && in.PriceUnit != models.PricePerKg {
		return nil, validationError("price_unit must be PER_PIECE or PER_KG")
	}
	if !in.Price.IsPositive() {
		return nil, validationError("price must be positive")
	}
	if in.ExpressPrice != nil && !in.ExpressPrice.IsPositive() {
		return nil, validationError("express_price must be positive")
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}

	var row models.ServicePricing
	err := withRetry(ctx, s.log, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := loadService(tx, laundryID, in.ServiceID); err != nil {
				return err
			}
			var item models.ClothingItem
			if err := tx.First(&item, in.ClothingItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationError("clothing item %d does not exist", in.ClothingItemID)
				}
				return fmt.Errorf("failed to load clothing item: %w", err)
			}

			row = models.ServicePricing{
				ServiceID:      in.ServiceID,
				ClothingItemID: in.ClothingItemID,
				Price:          in.Price,
				ExpressPrice:   in.ExpressPrice,
				PriceUnit:      in.PriceUnit,
				IsAvailable:    available,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "service_id"}, {Name: "clothing_item_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"price", "express_price", "price_unit", "is_available", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("failed to save pricing: %w", err)
			}

			row = models.ServicePricing{}
			return tx.Preload("ClothingItem").
				Where("service_id = ? AND clothing_item_id = ?", in.ServiceID, in.ClothingItemID).
				First(&row).Error
		})
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info("service pricing saved",
		"laundry_id", laundryID, "service_id", row.ServiceID, "clothing_item_id", row.ClothingItemID, "price", row.Price.String())
	return &row, nil
}

// SetServiceAvailability toggles a service and refreshes the laundry's stats
func (s *CatalogService) SetServiceAvailability(ctx context.Context, actor Actor, laundryID, serviceID uint, available bool) (*models.LaundryService, error) {
	if !actor.CanManageLaundry(laundryID) {
		return nil, ErrForbidden
	}

	var svc *models.LaundryService
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		svc, err = loadService(tx, laundryID, serviceID)
		if err != nil {
			return err
		}
		if err := tx.Model(svc).Update("is_available", available).Error; err != nil {
			return fmt.Errorf("failed to update service: %w", err)
		}
		svc.IsAvailable = available
		_, err = s.stats.recompute(tx, laundryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func loadService(tx *gorm.DB, laundryID, serviceID uint) (*models.LaundryService, error) {
	var svc models.LaundryService
	err := tx.Where("id = ? AND laundry_id = ?", serviceID, laundryID).First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	return &svc, nil
}

func laundryExists(db *gorm.DB, laundryID uint) error {
	var count int64
	if err := db.Model(&models.Laundry{}).Where("id = ?", laundryID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load laundry: %w", err)
	}
	if count == 0 {
		return ErrLaundryNotFound
	}
	return nil
}

// GetLaundry returns an active laundry with its current stats
func (s *CatalogService) GetLaundry(ctx context.Context, laundryID uint) (*models.Laundry, error) {
	var laundry models.Laundry
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", laundryID, true).First(&laundry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLaundryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load laundry: %w", err)
	}
	return &laundry, nil
}
