package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/washwala/laundry-api/logging"
	"github.com/washwala/laundry-api/models"
	"gorm.io/gorm"
)

// ReviewInput is a customer's rating of an order
type ReviewInput struct {
	Rating         int     `json:"rating" binding:"required,min=1,max=5"`
	ServiceRating  *int    `json:"service_rating" binding:"omitempty,min=1,max=5"`
	DeliveryRating *int    `json:"delivery_rating" binding:"omitempty,min=1,max=5"`
	ValueRating    *int    `json:"value_rating" binding:"omitempty,min=1,max=5"`
	Comment        *string `json:"comment" binding:"omitempty,max=2000"`
}

func (in ReviewInput) validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return validationError("rating must be between 1 and 5")
	}
	for name, r := range map[string]*int{
		"service_rating":  in.ServiceRating,
		"delivery_rating": in.DeliveryRating,
		"value_rating":    in.ValueRating,
	} {
		if r != nil && (*r < 1 || *r > 5) {
			return validationError("%s must be between 1 and 5", name)
		}
	}
	return nil
}

// ReviewService handles reviews, which also complete delivered orders
type ReviewService struct {
	db     *gorm.DB
	orders *OrderService
	stats  *StatsService
	events dispatcher
	log    *slog.Logger
	now    func() time.Time
}

func NewReviewService(db *gorm.DB, orders *OrderService, stats *StatsService, notifier Notifier, log *slog.Logger) *ReviewService {
	log = logging.OrDiscard(log).With("component", "reviews")
	return &ReviewService{
		db:     db,
		orders: orders,
		stats:  stats,
		events: dispatcher{notifier: notifier, log: log, now: time.Now},
		log:    log,
		now:    time.Now,
	}
}

// CreateReview records the customer's review of a delivered order and moves
// the order to COMPLETED
func (s *ReviewService) CreateReview(ctx context.Context, actor Actor, orderID uint, in ReviewInput) (*models.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var review models.Review
	var order *models.Order
	var completed bool
	err := withRetry(ctx, s.log, func() error {
		completed = false
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			order, err = loadOrder(tx, orderID)
			if err != nil {
				return err
			}
			if !actor.CanReviewOrder(order) {
				return denied(actor, order)
			}
			if order.Status != models.StatusDelivered && order.Status != models.StatusCompleted {
				return newError(CodeReviewNotAllowed, "Order can be reviewed once delivered, current status is %s", order.Status)
			}

			var existing int64
			if err := tx.Model(&models.Review{}).Where("order_id = ?", order.ID).Count(&existing).Error; err != nil {
				return fmt.Errorf("failed to check existing review: %w", err)
			}
			if existing > 0 {
				return ErrAlreadyReviewed
			}

			review = models.Review{
				OrderID:        order.ID,
				CustomerID:     actor.UserID,
				LaundryID:      order.LaundryID,
				Rating:         in.Rating,
				ServiceRating:  in.ServiceRating,
				DeliveryRating: in.DeliveryRating,
				ValueRating:    in.ValueRating,
				Comment:        trimmed(in.Comment),
				IsVisible:      true,
			}
			if err := tx.Create(&review).Error; err != nil {
				return fmt.Errorf("failed to create review: %w", err)
			}

			if order.Status == models.StatusDelivered {
				completed = true
				// recomputes stats with the new review included
				return s.orders.transition(tx, order, models.StatusCompleted, actor.UserID, nil, nil)
			}
			_, err = s.stats.recompute(tx, order.LaundryID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info("review created",
		"review_id", review.ID, "order_id", order.ID, "rating", review.Rating)

	event := orderEvent(EventReviewCreated, order, actor.UserID)
	event.ReviewID = review.ID
	event.Title = "New review"
	event.Message = fmt.Sprintf("Order %s was rated %d/5", order.OrderNumber, review.Rating)
	events := []Event{event}
	if completed {
		events = append(events, statusEvent(order, models.StatusDelivered, models.StatusCompleted, actor.UserID))
	}
	s.events.dispatch(ctx, events...)

	return &review, nil
}

// UpdateReview lets the author change their ratings and comment
func (s *ReviewService) UpdateReview(ctx context.Context, actor Actor, reviewID uint, in ReviewInput) (*models.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadReview(tx, reviewID, &review); err != nil {
			return err
		}
		if !actor.IsCustomer() || review.CustomerID != actor.UserID {
			return ErrForbidden
		}

		err := tx.Model(&review).Updates(map[string]any{
			"rating":          in.Rating,
			"service_rating":  in.ServiceRating,
			"delivery_rating": in.DeliveryRating,
			"value_rating":    in.ValueRating,
			"comment":         trimmed(in.Comment),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		if _, err := s.stats.recompute(tx, review.LaundryID); err != nil {
			return err
		}
		return loadReview(tx, reviewID, &review)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ReplyToReview stores the laundry's one-time reply to a review
func (s *ReviewService) ReplyToReview(ctx context.Context, actor Actor, reviewID uint, reply string) (*models.Review, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, validationError("reply is required")
	}

	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadReview(tx, reviewID, &review); err != nil {
			return err
		}
		if !actor.IsLaundry() || review.LaundryID != actor.LaundryID {
			return ErrForbidden
		}

		res := tx.Model(&models.Review{}).
			Where("id = ? AND laundry_reply IS NULL", review.ID).
			Updates(map[string]any{"laundry_reply": reply, "replied_at": s.now().UTC()})
		if res.Error != nil {
			return fmt.Errorf("failed to store reply: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyReplied
		}
		return loadReview(tx, reviewID, &review)
	})
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, review.OrderID).Error; err == nil {
		event := orderEvent(EventReviewReplied, &order, actor.UserID)
		event.ReviewID = review.ID
		event.Title = "The laundry replied to your review"
		event.Message = reply
		s.events.dispatch(ctx, event)
	}
	return &review, nil
}

// ListLaundryReviews returns a laundry's visible reviews, newest first
func (s *ReviewService) ListLaundryReviews(ctx context.Context, laundryID uint) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.WithContext(ctx).
		Where("laundry_id = ? AND is_visible = ?", laundryID, true).
		Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func loadReview(tx *gorm.DB, id uint, out *models.Review) error {
	err := tx.First(out, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReviewNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load review: %w", err)
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
