package services

import (
	"errors"
	"fmt"

	"github.com/washwala/laundry-api/models"
)

// Stable machine-readable error codes
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeForbidden               = "FORBIDDEN"
	CodeOrderNotFound           = "ORDER_NOT_FOUND"
	CodeLaundryNotFound         = "LAUNDRY_NOT_FOUND"
	CodeServiceNotFound         = "SERVICE_NOT_FOUND"
	CodePricingNotFound         = "PRICING_NOT_FOUND"
	CodePromoNotFound           = "PROMO_NOT_FOUND"
	CodeReviewNotFound          = "REVIEW_NOT_FOUND"
	CodeNotificationNotFound    = "NOTIFICATION_NOT_FOUND"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeInvalidOrExpiredPromo   = "INVALID_OR_EXPIRED_PROMO"
	CodeUsageLimitReached       = "USAGE_LIMIT_REACHED"
	CodeMinimumAmountNotMet     = "MINIMUM_AMOUNT_NOT_MET"
	CodeFirstOrderOnly          = "FIRST_ORDER_ONLY"
	CodeLaundryNotEligible      = "LAUNDRY_NOT_ELIGIBLE"
	CodePromoCodeExists         = "PROMO_CODE_EXISTS"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeCancellationNotAllowed  = "CANCELLATION_NOT_ALLOWED"
	CodeAlreadyReviewed         = "ALREADY_REVIEWED"
	CodeReviewNotAllowed        = "REVIEW_NOT_ALLOWED"
	CodeAlreadyReplied          = "ALREADY_REPLIED"
)

// Error is a domain failure carrying a stable code and a human message.
// Two Errors match under errors.Is when their codes are equal.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is comparisons
var (
	ErrValidation              = &Error{Code: CodeValidation, Message: "Invalid request"}
	ErrForbidden               = &Error{Code: CodeForbidden, Message: "You are not allowed to perform this action"}
	ErrOrderNotFound           = &Error{Code: CodeOrderNotFound, Message: "Order not found"}
	ErrLaundryNotFound         = &Error{Code: CodeLaundryNotFound, Message: "Laundry not found"}
	ErrServiceNotFound         = &Error{Code: CodeServiceNotFound, Message: "Service not found"}
	ErrPricingNotFound         = &Error{Code: CodePricingNotFound, Message: "Pricing not found"}
	ErrPromoNotFound           = &Error{Code: CodePromoNotFound, Message: "Promo code not found"}
	ErrReviewNotFound          = &Error{Code: CodeReviewNotFound, Message: "Review not found"}
	ErrNotificationNotFound    = &Error{Code: CodeNotificationNotFound, Message: "Notification not found"}
	ErrUserNotFound            = &Error{Code: CodeUserNotFound, Message: "User profile not found"}
	ErrInvalidOrExpiredPromo   = &Error{Code: CodeInvalidOrExpiredPromo, Message: "Invalid or expired promo code"}
	ErrUsageLimitReached       = &Error{Code: CodeUsageLimitReached, Message: "Promo code usage limit reached"}
	ErrMinimumAmountNotMet     = &Error{Code: CodeMinimumAmountNotMet, Message: "Minimum order amount not met"}
	ErrFirstOrderOnly          = &Error{Code: CodeFirstOrderOnly, Message: "Promo code is valid for first order only"}
	ErrLaundryNotEligible      = &Error{Code: CodeLaundryNotEligible, Message: "Promo code is not valid for this laundry"}
	ErrPromoCodeExists         = &Error{Code: CodePromoCodeExists, Message: "Promo code already exists"}
	ErrInvalidStatusTransition = &Error{Code: CodeInvalidStatusTransition, Message: "Invalid status transition"}
	ErrCancellationNotAllowed  = &Error{Code: CodeCancellationNotAllowed, Message: "Order can no longer be cancelled"}
	ErrAlreadyReviewed         = &Error{Code: CodeAlreadyReviewed, Message: "Order has already been reviewed"}
	ErrReviewNotAllowed        = &Error{Code: CodeReviewNotAllowed, Message: "Order cannot be reviewed yet"}
	ErrAlreadyReplied          = &Error{Code: CodeAlreadyReplied, Message: "Review already has a reply"}
)

func validationError(format string, args ...any) *Error {
	return newError(CodeValidation, format, args...)
}

func invalidTransition(from, to models.OrderStatus, valid string) *Error {
	return newError(CodeInvalidStatusTransition,
		"Cannot change order status from %s to %s. Valid next statuses: %s", from, to, valid)
}

// AsError extracts a domain error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
