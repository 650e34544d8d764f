package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/washwala/laundry-api/models"
	"gorm.io/gorm"
)

// ProfileInput holds the editable fields of the caller's own profile
type ProfileInput struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// UserService reads and edits the caller's own account
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetProfile returns the caller's user record
func (s *UserService) GetProfile(ctx context.Context, actor Actor) (*models.User, error) {
	if actor.UserID == 0 {
		return nil, ErrForbidden
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", actor.UserID, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile changes the caller's name and email. An empty email clears it.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationError("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			updates["email"] = nil
		} else {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, validationError("email %q is not valid", email)
			}
			updates["email"] = email
		}
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.GetProfile(ctx, actor)
}
