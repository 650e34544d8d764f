package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/washwala/laundry-api/models"
	"gorm.io/gorm"
)

// StoreNotifier persists events as in-app notifications for the parties
// of an order
type StoreNotifier struct {
	db *gorm.DB
}

func NewStoreNotifier(db *gorm.DB) *StoreNotifier {
	return &StoreNotifier{db: db}
}

func (n *StoreNotifier) Notify(ctx context.Context, event Event) error {
	db := n.db.WithContext(ctx)

	var ownerID uint
	if event.LaundryID != 0 {
		var laundry models.Laundry
		if err := db.Unscoped().Select("id", "owner_id").First(&laundry, event.LaundryID).Error; err != nil {
			return fmt.Errorf("failed to resolve laundry owner: %w", err)
		}
		ownerID = laundry.OwnerID
	}

	var recipients []uint
	switch event.Type {
	case EventOrderPlaced, EventReviewCreated:
		recipients = []uint{ownerID}
	case EventOrderStatusChanged, EventReviewReplied:
		recipients = []uint{event.CustomerID}
	case EventOrderCancelled:
		// the party that did not cancel
		if event.ActorID == event.CustomerID {
			recipients = []uint{ownerID}
		} else {
			recipients = []uint{event.CustomerID}
		}
	}

	var orderID *uint
	if event.OrderID != 0 {
		orderID = &event.OrderID
	}

	rows := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		if userID == 0 {
			continue
		}
		rows = append(rows, models.Notification{
			UserID:  userID,
			EventID: event.ID,
			Type:    string(event.Type),
			Title:   event.Title,
			Body:    event.Message,
			OrderID: orderID,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}
	return nil
}

// NotificationService reads and acknowledges a user's in-app notifications
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// List returns the actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actor Actor, unreadOnly bool, limit int) ([]models.Notification, error) {
	if actor.UserID == 0 {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Where("user_id = ?", actor.UserID).Order("id DESC").Limit(limit)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

// MarkRead flags one of the actor's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id uint) error {
	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, actor.UserID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load notification: %w", err)
	}
	return s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error
}
