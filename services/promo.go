package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/washwala/laundry-api/logging"
	"github.com/washwala/laundry-api/models"
	"gorm.io/gorm"
)

// PromoResult is an evaluated promo with the discount it grants
type PromoResult struct {
	Promo       *models.PromoCode `json:"-"`
	Code        string            `json:"code"`
	Discount    decimal.Decimal   `json:"discount"`
	FinalAmount decimal.Decimal   `json:"final_amount"`
}

// PromoService validates, redeems and administers promo codes
type PromoService struct {
	db  *gorm.DB
	log *slog.Logger
	now func() time.Time
}

func NewPromoService(db *gorm.DB, log *slog.Logger) *PromoService {
	return &PromoService{db: db, log: logging.OrDiscard(log).With("component", "promo"), now: time.Now}
}

// NormalizeCode trims and upper-cases a promo code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate evaluates code for an order amount without consuming a use
func (s *PromoService) Validate(ctx context.Context, code string, amount decimal.Decimal, laundryID *uint, customerID uint) (*PromoResult, error) {
	return s.evaluate(s.db.WithContext(ctx), code, amount, laundryID, customerID)
}

// apply evaluates code and consumes exactly one use inside tx
func (s *PromoService) apply(tx *gorm.DB, code string, amount decimal.Decimal, laundryID uint, customerID uint) (*PromoResult, error) {
	res, err := s.evaluate(tx, code, amount, &laundryID, customerID)
	if err != nil {
		return nil, err
	}

	redeemed := tx.Model(&models.PromoCode{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", res.Promo.ID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if redeemed.Error != nil {
		return nil, fmt.Errorf("failed to redeem promo code: %w", redeemed.Error)
	}
	if redeemed.RowsAffected == 0 {
		return nil, ErrUsageLimitReached
	}
	return res, nil
}

func (s *PromoService) evaluate(tx *gorm.DB, code string, amount decimal.Decimal, laundryID *uint, customerID uint) (*PromoResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidOrExpiredPromo
	}

	var promo models.PromoCode
	err := tx.Preload("Laundries").Where("code = ?", code).First(&promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidOrExpiredPromo
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load promo code: %w", err)
	}

	now := s.now()
	if !promo.IsActive || now.Before(promo.ValidFrom) || now.After(promo.ValidUntil) {
		return nil, ErrInvalidOrExpiredPromo
	}

	if promo.UsageLimit != nil && promo.UsedCount >= *promo.UsageLimit {
		return nil, ErrUsageLimitReached
	}

	if amount.LessThan(promo.MinOrderAmount) {
		return nil, newError(CodeMinimumAmountNotMet, "Minimum order amount of %s required", promo.MinOrderAmount.StringFixed(0))
	}

	if promo.FirstOrderOnly {
		var prior int64
		err := tx.Model(&models.Order{}).
			Where("customer_id = ? AND status <> ?", customerID, models.StatusCancelled).
			Count(&prior).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count prior orders: %w", err)
		}
		if prior > 0 {
			return nil, ErrFirstOrderOnly
		}
	}

	if laundryID != nil && len(promo.Laundries) > 0 && !slices.Contains(promo.LaundryIDs(), *laundryID) {
		return nil, ErrLaundryNotEligible
	}

	discount := ComputeDiscount(&promo, amount)
	return &PromoResult{
		Promo:       &promo,
		Code:        promo.Code,
		Discount:    discount,
		FinalAmount: amount.Sub(discount),
	}, nil
}

// ComputeDiscount returns the discount promo grants on amount, rounded to a
// whole currency unit and never more than amount.
func ComputeDiscount(promo *models.PromoCode, amount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch promo.DiscountType {
	case models.DiscountPercentage:
		discount = amount.Mul(promo.DiscountValue).Div(decimal.NewFromInt(100))
		if promo.MaxDiscount != nil && discount.GreaterThan(*promo.MaxDiscount) {
			discount = *promo.MaxDiscount
		}
	case models.DiscountFixed:
		discount = promo.DiscountValue
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(0)
}

// PromoInput is the admin payload for creating or replacing a promo code
type PromoInput struct {
	Code           string           `json:"code" binding:"required,min=3,max=32"`
	Description    string           `json:"description"`
	DiscountType   string           `json:"discount_type" binding:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue  decimal.Decimal  `json:"discount_value"`
	MaxDiscount    *decimal.Decimal `json:"max_discount"`
	MinOrderAmount decimal.Decimal  `json:"min_order_amount"`
	ValidFrom      time.Time        `json:"valid_from" binding:"required"`
	ValidUntil     time.Time        `json:"valid_until" binding:"required"`
	UsageLimit     *int             `json:"usage_limit"`
	FirstOrderOnly bool             `json:"first_order_only"`
	IsActive       *bool            `json:"is_active"`
	LaundryIDs     []uint           `json:"laundry_ids"`
}

func (in *PromoInput) validate() error {
	in.Code = NormalizeCode(in.Code)
	if len(in.Code) < 3 {
		return validationError("Promo code must be at least 3 characters")
	}
	switch in.DiscountType {
	case models.DiscountPercentage:
		if !in.DiscountValue.IsPositive() || in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return validationError("Percentage discount must be between 0 and 100")
		}
	case models.DiscountFixed:
		if !in.DiscountValue.IsPositive() {
			return validationError("Fixed discount must be positive")
		}
		if in.MaxDiscount != nil {
			return validationError("max_discount applies to percentage discounts only")
		}
	default:
		return validationError("discount_type must be PERCENTAGE or FIXED")
	}
	if in.MaxDiscount != nil && !in.MaxDiscount.IsPositive() {
		return validationError("max_discount must be positive")
	}
	if in.MinOrderAmount.IsNegative() {
		return validationError("min_order_amount must not be negative")
	}
	if !in.ValidUntil.After(in.ValidFrom) {
		return validationError("valid_until must be after valid_from")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		return validationError("usage_limit must be at least 1")
	}
	return nil
}

func (s *PromoService) loadLaundries(tx *gorm.DB, ids []uint) ([]models.Laundry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var laundries []models.Laundry
	if err := tx.Where("id IN ?", ids).Find(&laundries).Error; err != nil {
		return nil, fmt.Errorf("failed to load laundries: %w", err)
	}
	if len(laundries) != len(slices.Compact(slices.Sorted(slices.Values(ids)))) {
		return nil, validationError("laundry_ids contains an unknown laundry")
	}
	return laundries, nil
}

// CreatePromo adds a new promo code
func (s *PromoService) CreatePromo(ctx context.Context, actor Actor, in PromoInput) (*models.PromoCode, error) {
	if !actor.CanManagePromos() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	promo := models.PromoCode{
		Code:           in.Code,
		Description:    in.Description,
		DiscountType:   in.DiscountType,
		DiscountValue:  in.DiscountValue,
		MaxDiscount:    in.MaxDiscount,
		MinOrderAmount: in.MinOrderAmount,
		ValidFrom:      in.ValidFrom.UTC(),
		ValidUntil:     in.ValidUntil.UTC(),
		UsageLimit:     in.UsageLimit,
		FirstOrderOnly: in.FirstOrderOnly,
		IsActive:       true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		laundries, err := s.loadLaundries(tx, in.LaundryIDs)
		if err != nil {
			return err
		}
		promo.Laundries = laundries
		if err := tx.Create(&promo).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPromoCodeExists
			}
			return fmt.Errorf("failed to create promo code: %w", err)
		}
		if in.IsActive != nil && !*in.IsActive {
			promo.IsActive = false
			return tx.Model(&promo).Update("is_active", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info("promo code created", "code", promo.Code, "promo_id", promo.ID)
	return &promo, nil
}

// ListPromos returns promo codes, newest first
func (s *PromoService) ListPromos(ctx context.Context, actor Actor, activeOnly bool) ([]models.PromoCode, error) {
	if !actor.CanManagePromos() {
		return nil, ErrForbidden
	}
	q := s.db.WithContext(ctx).Preload("Laundries").Order("id DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var promos []models.PromoCode
	if err := q.Find(&promos).Error; err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	return promos, nil
}

// UpdatePromo replaces a promo's terms. The code and used_count are kept.
func (s *PromoService) UpdatePromo(ctx context.Context, actor Actor, id uint, in PromoInput) (*models.PromoCode, error) {
	if !actor.CanManagePromos() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var promo models.PromoCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&promo, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPromoNotFound
			}
			return fmt.Errorf("failed to load promo code: %w", err)
		}
		if in.UsageLimit != nil && *in.UsageLimit < promo.UsedCount {
			return validationError("usage_limit cannot be below the current used count of %d", promo.UsedCount)
		}

		isActive := promo.IsActive
		if in.IsActive != nil {
			isActive = *in.IsActive
		}
		updates := map[string]any{
			"description":      in.Description,
			"discount_type":    in.DiscountType,
			"discount_value":   in.DiscountValue,
			"max_discount":     in.MaxDiscount,
			"min_order_amount": in.MinOrderAmount,
			"valid_from":       in.ValidFrom.UTC(),
			"valid_until":      in.ValidUntil.UTC(),
			"usage_limit":      in.UsageLimit,
			"first_order_only": in.FirstOrderOnly,
			"is_active":        isActive,
		}
		if err := tx.Model(&promo).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update promo code: %w", err)
		}

		laundries, err := s.loadLaundries(tx, in.LaundryIDs)
		if err != nil {
			return err
		}
		assoc := tx.Model(&promo).Association("Laundries")
		if len(laundries) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(laundries)
		}
		if err != nil {
			return fmt.Errorf("failed to update promo laundries: %w", err)
		}
		return tx.Preload("Laundries").First(&promo, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// DeactivatePromo switches a promo code off. Codes are never deleted.
func (s *PromoService) DeactivatePromo(ctx context.Context, actor Actor, id uint) error {
	if !actor.CanManagePromos() {
		return ErrForbidden
	}
	res := s.db.WithContext(ctx).Model(&models.PromoCode{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate promo code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPromoNotFound
	}
	logging.FromContext(ctx, s.log).Info("promo code deactivated", "promo_id", id)
	return nil
}
