package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/washwala/laundry-api/models"
	"gorm.io/gorm"
)

// PricingConfig holds the fee schedule applied on top of item prices
type PricingConfig struct {
	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
	ExpressFeeRate        decimal.Decimal
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		FreeDeliveryThreshold: decimal.NewFromInt(1000),
		DeliveryFee:           decimal.NewFromInt(100),
		ExpressFeeRate:        decimal.RequireFromString("0.5"),
	}
}

// ItemRequest is one requested line of an order
type ItemRequest struct {
	ServiceID      uint             `json:"service_id" binding:"required"`
	ClothingItemID uint             `json:"clothing_item_id" binding:"required"`
	Quantity       int              `json:"quantity" binding:"omitempty,min=1"`
	WeightKg       *decimal.Decimal `json:"weight_kg"`
	SpecialNotes   *string          `json:"special_notes"`
}

// PriceRow is a pricing row joined with the service that owns it
type PriceRow struct {
	Pricing models.ServicePricing
	Service models.LaundryService
}

// PricedItem is a requested line with its frozen price
type PricedItem struct {
	Request     ItemRequest
	Quantity    int
	WeightKg    *decimal.Decimal
	PriceUnit   string
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	ItemName    string
	ServiceName string
}

// Quote is the priced result for a set of items
type Quote struct {
	Items             []PricedItem
	Subtotal          decimal.Decimal
	DeliveryFee       decimal.Decimal
	ExpressFee        decimal.Decimal
	MaxEstimatedHours int
}

// PricingCalculator resolves item prices from a laundry's catalog
type PricingCalculator struct {
	db  *gorm.DB
	cfg PricingConfig
}

func NewPricingCalculator(db *gorm.DB, cfg PricingConfig) *PricingCalculator {
	return &PricingCalculator{db: db, cfg: cfg}
}

// Calculate prices items against laundryID's catalog without writing anything
func (c *PricingCalculator) Calculate(ctx context.Context, laundryID uint, orderType models.OrderType, items []ItemRequest) (*Quote, error) {
	return c.calculate(c.db.WithContext(ctx), laundryID, orderType, items)
}

func (c *PricingCalculator) calculate(tx *gorm.DB, laundryID uint, orderType models.OrderType, items []ItemRequest) (*Quote, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}
	rows, err := loadPriceRows(tx, laundryID, items)
	if err != nil {
		return nil, err
	}
	return BuildQuote(c.cfg, orderType, items, rows)
}

type priceKey struct {
	serviceID      uint
	clothingItemID uint
}

func loadPriceRows(tx *gorm.DB, laundryID uint, items []ItemRequest) ([]PriceRow, error) {
	serviceIDs := make([]uint, 0, len(items))
	for _, it := range items {
		serviceIDs = append(serviceIDs, it.ServiceID)
	}

	var svcs []models.LaundryService
	if err := tx.Where("laundry_id = ? AND id IN ?", laundryID, serviceIDs).Find(&svcs).Error; err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, nil
	}
	byID := make(map[uint]models.LaundryService, len(svcs))
	ownedIDs := make([]uint, 0, len(svcs))
	for _, s := range svcs {
		byID[s.ID] = s
		ownedIDs = append(ownedIDs, s.ID)
	}

	var pricings []models.ServicePricing
	if err := tx.Preload("ClothingItem").Where("service_id IN ?", ownedIDs).Find(&pricings).Error; err != nil {
		return nil, fmt.Errorf("failed to load pricing: %w", err)
	}

	rows := make([]PriceRow, 0, len(pricings))
	for _, p := range pricings {
		rows = append(rows, PriceRow{Pricing: p, Service: byID[p.ServiceID]})
	}
	return rows, nil
}

func validateItems(items []ItemRequest) error {
	if len(items) == 0 {
		return validationError("At least one item is required")
	}
	for i, it := range items {
		if it.ServiceID == 0 || it.ClothingItemID == 0 {
			return validationError("Item %d: service_id and clothing_item_id are required", i+1)
		}
		if it.Quantity < 0 {
			return validationError("Item %d: quantity must be positive", i+1)
		}
		if it.WeightKg != nil && !it.WeightKg.IsPositive() {
			return validationError("Item %d: weight_kg must be positive", i+1)
		}
	}
	return nil
}

// BuildQuote prices items over already-loaded rows. It performs no I/O.
func BuildQuote(cfg PricingConfig, orderType models.OrderType, items []ItemRequest, rows []PriceRow) (*Quote, error) {
	index := make(map[priceKey]PriceRow, len(rows))
	for _, r := range rows {
		index[priceKey{r.Pricing.ServiceID, r.Pricing.ClothingItemID}] = r
	}

	quote := &Quote{Items: make([]PricedItem, 0, len(items))}
	subtotal := decimal.Zero

	for _, it := range items {
		row, ok := index[priceKey{it.ServiceID, it.ClothingItemID}]
		if !ok || !row.Pricing.IsAvailable || !row.Service.IsAvailable {
			return nil, newError(CodePricingNotFound,
				"Pricing not found for service %d and clothing item %d", it.ServiceID, it.ClothingItemID)
		}

		unit := row.Pricing.Price
		if orderType == models.OrderTypeExpress && row.Pricing.ExpressPrice != nil {
			unit = *row.Pricing.ExpressPrice
		}

		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}

		item := PricedItem{
			Request:     it,
			Quantity:    qty,
			PriceUnit:   row.Pricing.PriceUnit,
			UnitPrice:   unit,
			ItemName:    row.Pricing.ClothingItem.Name,
			ServiceName: row.Service.Name,
		}
		if row.Pricing.PriceUnit == models.PricePerKg && it.WeightKg != nil {
			item.WeightKg = it.WeightKg
			item.LineTotal = unit.Mul(*it.WeightKg)
		} else {
			item.LineTotal = unit.Mul(decimal.NewFromInt(int64(qty)))
		}
		item.LineTotal = item.LineTotal.Round(2)

		subtotal = subtotal.Add(item.LineTotal)
		if row.Service.EstimatedHours > quote.MaxEstimatedHours {
			quote.MaxEstimatedHours = row.Service.EstimatedHours
		}
		quote.Items = append(quote.Items, item)
	}

	quote.Subtotal = subtotal
	quote.DeliveryFee = cfg.DeliveryFeeFor(subtotal)
	quote.ExpressFee = cfg.ExpressFeeFor(orderType, subtotal)
	return quote, nil
}

// DeliveryFeeFor is free at or above the threshold, flat otherwise
func (cfg PricingConfig) DeliveryFeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(cfg.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return cfg.DeliveryFee
}

// ExpressFeeFor is a share of the subtotal for express orders only
func (cfg PricingConfig) ExpressFeeFor(orderType models.OrderType, subtotal decimal.Decimal) decimal.Decimal {
	if orderType != models.OrderTypeExpress {
		return decimal.Zero
	}
	return subtotal.Mul(cfg.ExpressFeeRate).Round(2)
}

// OrderTotal applies the settlement formula and never goes below zero
func OrderTotal(subtotal, deliveryFee, expressFee, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(deliveryFee).Add(expressFee).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
