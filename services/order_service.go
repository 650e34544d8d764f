package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/washwala/laundry-api/logging"
	"github.com/washwala/laundry-api/models"
	"github.com/washwala/laundry-api/statemachine"
	"github.com/washwala/laundry-api/utils"
	"gorm.io/gorm"
)

const minCancellationReasonLength = 10

// CreateOrderInput is the customer's order request
type CreateOrderInput struct {
	LaundryID           uint             `json:"laundry_id" binding:"required"`
	OrderType           models.OrderType `json:"order_type"`
	PickupAddress       string           `json:"pickup_address" binding:"required"`
	PickupLatitude      *float64         `json:"pickup_latitude"`
	PickupLongitude     *float64         `json:"pickup_longitude"`
	PickupDate          time.Time        `json:"pickup_date" binding:"required"`
	PickupTimeSlot      string           `json:"pickup_time_slot"`
	DeliveryAddress     string           `json:"delivery_address"`
	DeliveryLatitude    *float64         `json:"delivery_latitude"`
	DeliveryLongitude   *float64         `json:"delivery_longitude"`
	SpecialInstructions *string          `json:"special_instructions"`
	PaymentMethod       string           `json:"payment_method"`
	PromoCode           *string          `json:"promo_code"`
	Items               []ItemRequest    `json:"items" binding:"required,min=1,dive"`
}

func (in *CreateOrderInput) normalize(now time.Time) error {
	if in.LaundryID == 0 {
		return validationError("laundry_id is required")
	}

	in.OrderType = models.OrderType(strings.ToUpper(strings.TrimSpace(string(in.OrderType))))
	switch in.OrderType {
	case "":
		in.OrderType = models.OrderTypeStandard
	case models.OrderTypeStandard, models.OrderTypeExpress:
	default:
		return validationError("order_type must be STANDARD or EXPRESS")
	}

	in.PickupAddress = strings.TrimSpace(in.PickupAddress)
	if in.PickupAddress == "" {
		return validationError("pickup_address is required")
	}
	if err := validateCoordinates("pickup", in.PickupLatitude, in.PickupLongitude); err != nil {
		return err
	}
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	if in.DeliveryAddress == "" {
		in.DeliveryAddress = in.PickupAddress
		in.DeliveryLatitude, in.DeliveryLongitude = in.PickupLatitude, in.PickupLongitude
	}
	if err := validateCoordinates("delivery", in.DeliveryLatitude, in.DeliveryLongitude); err != nil {
		return err
	}

	if in.PickupDate.IsZero() {
		return validationError("pickup_date is required")
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if in.PickupDate.UTC().Before(today) {
		return validationError("pickup_date cannot be in the past")
	}

	in.PaymentMethod = strings.ToUpper(strings.TrimSpace(in.PaymentMethod))
	switch in.PaymentMethod {
	case "":
		in.PaymentMethod = models.PaymentCOD
	case models.PaymentCOD, models.PaymentJazzCash, models.PaymentEasyPaisa, models.PaymentCard:
	default:
		return validationError("payment_method %q is not supported", in.PaymentMethod)
	}

	if in.PromoCode != nil && NormalizeCode(*in.PromoCode) == "" {
		in.PromoCode = nil
	}
	return validateItems(in.Items)
}

func validateCoordinates(field string, lat, lng *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return validationError("%s_latitude must be between -90 and 90", field)
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return validationError("%s_longitude must be between -180 and 180", field)
	}
	return nil
}

// OrderFilter narrows ListOrders
type OrderFilter struct {
	Status   models.OrderStatus
	Page     int
	PageSize int
}

// OrderPage is one page of orders
type OrderPage struct {
	Orders   []models.Order `json:"orders"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// OrderService owns order creation and every status transition
type OrderService struct {
	db      *gorm.DB
	pricing *PricingCalculator
	promos  *PromoService
	stats   *StatsService
	events  dispatcher
	log     *slog.Logger
	now     func() time.Time
}

func NewOrderService(db *gorm.DB, pricing *PricingCalculator, promos *PromoService, stats *StatsService, notifier Notifier, log *slog.Logger) *OrderService {
	log = logging.OrDiscard(log).With("component", "orders")
	return &OrderService{
		db:      db,
		pricing: pricing,
		promos:  promos,
		stats:   stats,
		events:  dispatcher{notifier: notifier, log: log, now: time.Now},
		log:     log,
		now:     time.Now,
	}
}

// Quote prices a prospective order, including a promo when given, without
// writing anything
func (s *OrderService) Quote(ctx context.Context, actor Actor, in CreateOrderInput) (*models.Order, error) {
	if !actor.CanPlaceOrder() {
		return nil, ErrForbidden
	}
	if err := in.normalize(s.now()); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	quote, err := s.pricing.calculate(db, in.LaundryID, in.OrderType, in.Items)
	if err != nil {
		return nil, err
	}
	discount := decimal.Zero
	if in.PromoCode != nil {
		res, err := s.promos.evaluate(db, *in.PromoCode, quote.Subtotal, &in.LaundryID, actor.UserID)
		if err != nil {
			return nil, err
		}
		discount = res.Discount
	}
	order := buildOrder(actor, in, quote, discount)
	return &order, nil
}

// CreateOrder prices, discounts and stores a new PENDING order
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, in CreateOrderInput) (*models.Order, error) {
	if !actor.CanPlaceOrder() {
		return nil, ErrForbidden
	}
	if err := in.normalize(s.now()); err != nil {
		return nil, err
	}

	var order *models.Order
	err := withRetry(ctx, s.log, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			order, err = s.createOrder(tx, actor, in)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info("order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"laundry_id", order.LaundryID,
		"total_amount", order.TotalAmount.String(),
	)

	event := orderEvent(EventOrderPlaced, order, actor.UserID)
	event.ToStatus = models.StatusPending
	event.Title = "New order"
	event.Message = fmt.Sprintf("Order %s has been placed", order.OrderNumber)
	s.events.dispatch(ctx, event)

	return s.load(s.db.WithContext(ctx), order.ID)
}

func (s *OrderService) createOrder(tx *gorm.DB, actor Actor, in CreateOrderInput) (*models.Order, error) {
	var laundry models.Laundry
	err := tx.Where("id = ? AND is_active = ?", in.LaundryID, true).First(&laundry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLaundryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load laundry: %w", err)
	}

	quote, err := s.pricing.calculate(tx, laundry.ID, in.OrderType, in.Items)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if in.PromoCode != nil {
		res, err := s.promos.apply(tx, *in.PromoCode, quote.Subtotal, laundry.ID, actor.UserID)
		if err != nil {
			return nil, err
		}
		discount = res.Discount
		in.PromoCode = &res.Code
	}

	now := s.now().UTC()
	number, err := nextOrderNumber(tx, now)
	if err != nil {
		return nil, err
	}

	order := buildOrder(actor, in, quote, discount)
	order.OrderNumber = number
	order.Payment = &models.Payment{
		Amount: order.TotalAmount,
		Method: in.PaymentMethod,
		Status: models.PaymentStatusPending,
	}
	if err := tx.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := appendEvent(tx, order.ID, nil, models.StatusPending, actor.UserID, nil, now); err != nil {
		return nil, err
	}
	return &order, nil
}

func buildOrder(actor Actor, in CreateOrderInput, quote *Quote, discount decimal.Decimal) models.Order {
	order := models.Order{
		CustomerID:          actor.UserID,
		LaundryID:           in.LaundryID,
		Status:              models.StatusPending,
		OrderType:           in.OrderType,
		PickupAddress:       in.PickupAddress,
		PickupLatitude:      in.PickupLatitude,
		PickupLongitude:     in.PickupLongitude,
		PickupDate:          in.PickupDate.UTC(),
		PickupTimeSlot:      in.PickupTimeSlot,
		DeliveryAddress:     in.DeliveryAddress,
		DeliveryLatitude:    in.DeliveryLatitude,
		DeliveryLongitude:   in.DeliveryLongitude,
		SpecialInstructions: in.SpecialInstructions,
		Subtotal:            quote.Subtotal,
		DeliveryFee:         quote.DeliveryFee,
		ExpressFee:          quote.ExpressFee,
		Discount:            discount,
		TotalAmount:         OrderTotal(quote.Subtotal, quote.DeliveryFee, quote.ExpressFee, discount),
		PromoCode:           in.PromoCode,
		PaymentMethod:       in.PaymentMethod,
	}

	if quote.MaxEstimatedHours > 0 {
		expected := order.PickupDate.Add(time.Duration(quote.MaxEstimatedHours) * time.Hour)
		order.ExpectedDeliveryDate = &expected
	}

	order.Items = make([]models.OrderItem, 0, len(quote.Items))
	for _, it := range quote.Items {
		order.Items = append(order.Items, models.OrderItem{
			ServiceID:      it.Request.ServiceID,
			ClothingItemID: it.Request.ClothingItemID,
			ItemName:       it.ItemName,
			ServiceName:    it.ServiceName,
			Quantity:       it.Quantity,
			WeightKg:       it.WeightKg,
			PriceUnit:      it.PriceUnit,
			UnitPrice:      it.UnitPrice,
			TotalPrice:     it.LineTotal,
			SpecialNotes:   it.Request.SpecialNotes,
		})
	}
	return order
}

// nextOrderNumber continues from the highest number issued on now's UTC day.
// Soft-deleted orders keep their numbers. Sequences past 9999 grow a digit,
// so longer numbers sort first.
func nextOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	var last []string
	err := tx.Unscoped().Model(&models.Order{}).
		Where("order_number LIKE ?", utils.OrderNumberPrefix(now)+"%").
		Order("LENGTH(order_number) DESC").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &last).Error
	if err != nil {
		return "", fmt.Errorf("failed to find today's last order number: %w", err)
	}
	if len(last) == 0 {
		return utils.FormatOrderNumber(now, 1), nil
	}
	_, seq, err := utils.ParseOrderNumber(last[0])
	if err != nil {
		return "", err
	}
	return utils.FormatOrderNumber(now, seq+1), nil
}

// UpdateStatus moves an order along the laundry-driven part of the lifecycle
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, orderID uint, to models.OrderStatus, notes string) (*models.Order, error) {
	to = models.OrderStatus(strings.ToUpper(strings.TrimSpace(string(to))))
	if !statemachine.IsKnown(to) {
		return nil, validationError("Unknown order status %q", to)
	}
	switch to {
	case models.StatusCompleted:
		return nil, newError(CodeInvalidStatusTransition, "Orders are completed when the customer submits a review")
	case models.StatusCancelled:
		return s.CancelOrder(ctx, actor, orderID, notes)
	}

	notes = strings.TrimSpace(notes)
	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}

	var order *models.Order
	var from models.OrderStatus
	err := withRetry(ctx, s.log, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			order, err = loadOrder(tx, orderID)
			if err != nil {
				return err
			}
			if !actor.CanAdvanceOrder(order) {
				return denied(actor, order)
			}
			from = order.Status

			extra := map[string]any{}
			if to == models.StatusRejected && notesPtr != nil {
				extra["rejection_reason"] = notes
			}
			return s.transition(tx, order, to, actor.UserID, notesPtr, extra)
		})
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info("order status updated",
		"order_id", order.ID, "from_status", from, "to_status", to)
	s.events.dispatch(ctx, statusEvent(order, from, to, actor.UserID))

	return s.load(s.db.WithContext(ctx), order.ID)
}

// CancelOrder cancels an order on behalf of either party while it is still
// before processing
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID uint, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < minCancellationReasonLength {
		return nil, validationError("Cancellation reason must be at least %d characters", minCancellationReasonLength)
	}

	var order *models.Order
	var from models.OrderStatus
	err := withRetry(ctx, s.log, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			order, err = loadOrder(tx, orderID)
			if err != nil {
				return err
			}
			if !actor.CanCancelOrder(order) {
				return denied(actor, order)
			}
			if !statemachine.IsCancellable(order.Status) {
				return newError(CodeCancellationNotAllowed, "Order cannot be cancelled in %s status", order.Status)
			}
			from = order.Status
			return s.transition(tx, order, models.StatusCancelled, actor.UserID, &reason,
				map[string]any{"cancellation_reason": reason})
		})
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info("order cancelled",
		"order_id", order.ID, "from_status", from, "cancelled_by", actor.Kind.String())

	event := orderEvent(EventOrderCancelled, order, actor.UserID)
	event.FromStatus = from
	event.ToStatus = models.StatusCancelled
	event.Title = "Order cancelled"
	event.Message = fmt.Sprintf("Order %s was cancelled: %s", order.OrderNumber, reason)
	s.events.dispatch(ctx, event)

	return s.load(s.db.WithContext(ctx), order.ID)
}

// transition validates from -> to against the table and applies the status
// write, its timestamp column, timeline and history atomically within tx.
// The write is guarded on the status the caller read, so a concurrent
// change makes it fail instead of overwrite.
func (s *OrderService) transition(tx *gorm.DB, order *models.Order, to models.OrderStatus, actorID uint, notes *string, extra map[string]any) error {
	from := order.Status
	if !statemachine.CanTransition(from, to) {
		return invalidTransition(from, to, statemachine.DescribeValidFrom(from))
	}
	info, err := statemachine.InfoFor(to)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	updates := map[string]any{"status": to}
	if info.Column != "" {
		updates[info.Column] = now
	}
	maps.Copy(updates, extra)

	res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", order.ID, from).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(CodeInvalidStatusTransition, "Order %s is no longer %s", order.OrderNumber, from)
	}

	if err := appendEvent(tx, order.ID, &from, to, actorID, notes, now); err != nil {
		return err
	}

	if to == models.StatusDelivered && order.PaymentMethod == models.PaymentCOD {
		err := tx.Model(&models.Payment{}).Where("order_id = ?", order.ID).Updates(map[string]any{
			"status":  models.PaymentStatusCompleted,
			"paid_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to settle cash payment: %w", err)
		}
	}

	order.Status = to
	switch to {
	case models.StatusDelivered, models.StatusCompleted, models.StatusCancelled:
		if _, err := s.stats.recompute(tx, order.LaundryID); err != nil {
			return err
		}
	}
	return nil
}

// appendEvent writes the timeline entry and status history record of one
// transition. Every status write goes through here.
func appendEvent(tx *gorm.DB, orderID uint, from *models.OrderStatus, to models.OrderStatus, actorID uint, notes *string, at time.Time) error {
	info, err := statemachine.InfoFor(to)
	if err != nil {
		return err
	}

	description := info.Description
	if notes != nil && *notes != "" {
		description = *notes
	}
	timeline := models.OrderTimeline{
		OrderID:     orderID,
		Event:       info.Event,
		Title:       info.Title,
		Description: description,
		Icon:        info.Icon,
		CreatedAt:   at,
	}
	if err := tx.Create(&timeline).Error; err != nil {
		return fmt.Errorf("failed to append timeline: %w", err)
	}

	history := models.StatusHistory{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		Notes:      notes,
		CreatedAt:  at,
	}
	if actorID != 0 {
		history.ChangedBy = &actorID
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

func statusEvent(order *models.Order, from, to models.OrderStatus, actorID uint) Event {
	event := orderEvent(EventOrderStatusChanged, order, actorID)
	event.FromStatus = from
	event.ToStatus = to
	if info, err := statemachine.InfoFor(to); err == nil {
		event.Title = info.Title
		event.Message = fmt.Sprintf("Order %s: %s", order.OrderNumber, info.Description)
	}
	return event
}

// GetOrder returns an order with its items, payment and timeline
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	order, err := s.load(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewOrder(order) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetTimeline returns the order's timeline, oldest first
func (s *OrderService) GetTimeline(ctx context.Context, actor Actor, orderID uint) ([]models.OrderTimeline, error) {
	db := s.db.WithContext(ctx)
	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewOrder(order) {
		return nil, ErrOrderNotFound
	}

	var timeline []models.OrderTimeline
	if err := db.Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&timeline).Error; err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}
	return timeline, nil
}

// GetStatusHistory returns the audit trail of the order's status changes
func (s *OrderService) GetStatusHistory(ctx context.Context, actor Actor, orderID uint) ([]models.StatusHistory, error) {
	db := s.db.WithContext(ctx)
	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewOrder(order) {
		return nil, ErrOrderNotFound
	}

	var history []models.StatusHistory
	if err := db.Where("order_id = ?", orderID).Order("id ASC").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	return history, nil
}

// ListOrders returns the actor's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, filter OrderFilter) (*OrderPage, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	switch {
	case actor.IsAdmin():
	case actor.IsCustomer():
		q = q.Where("customer_id = ?", actor.UserID)
	case actor.IsLaundry():
		q = q.Where("laundry_id = ?", actor.LaundryID)
	default:
		return nil, ErrForbidden
	}
	if filter.Status != "" {
		if !statemachine.IsKnown(filter.Status) {
			return nil, validationError("Unknown order status %q", filter.Status)
		}
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	page, size, offset := utils.Page(filter.Page, filter.PageSize)
	orders := []models.Order{}
	if err := q.Session(&gorm.Session{}).Preload("Items").Order("id DESC").Limit(size).Offset(offset).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return &OrderPage{Orders: orders, Total: total, Page: page, PageSize: size}, nil
}

func (s *OrderService) load(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.
		Preload("Items").
		Preload("Payment").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

func loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := tx.First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// denied hides orders the actor cannot see and forbids the rest
func denied(actor Actor, order *models.Order) error {
	if actor.CanViewOrder(order) {
		return ErrForbidden
	}
	return ErrOrderNotFound
}
