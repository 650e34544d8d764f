package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/washwala/laundry-api/logging"
	"github.com/washwala/laundry-api/middleware"
	"github.com/washwala/laundry-api/services"
)

var statusByCode = map[string]int{
	services.CodeValidation:              http.StatusBadRequest,
	services.CodeInvalidOrExpiredPromo:   http.StatusBadRequest,
	services.CodeUsageLimitReached:       http.StatusBadRequest,
	services.CodeMinimumAmountNotMet:     http.StatusBadRequest,
	services.CodeFirstOrderOnly:          http.StatusBadRequest,
	services.CodeLaundryNotEligible:      http.StatusBadRequest,
	services.CodeForbidden:               http.StatusForbidden,
	services.CodeOrderNotFound:           http.StatusNotFound,
	services.CodeLaundryNotFound:         http.StatusNotFound,
	services.CodeServiceNotFound:         http.StatusNotFound,
	services.CodePricingNotFound:         http.StatusNotFound,
	services.CodePromoNotFound:           http.StatusNotFound,
	services.CodeReviewNotFound:          http.StatusNotFound,
	services.CodeNotificationNotFound:    http.StatusNotFound,
	services.CodeUserNotFound:            http.StatusNotFound,
	services.CodePromoCodeExists:         http.StatusConflict,
	services.CodeInvalidStatusTransition: http.StatusConflict,
	services.CodeCancellationNotAllowed:  http.StatusConflict,
	services.CodeAlreadyReviewed:         http.StatusConflict,
	services.CodeReviewNotAllowed:        http.StatusConflict,
	services.CodeAlreadyReplied:          http.StatusConflict,
}

// HTTPStatus maps a domain error code to its response status
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	if domainErr, ok := services.AsError(err); ok {
		c.JSON(HTTPStatus(domainErr.Code), gin.H{
			"success": false,
			"error": gin.H{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			},
		})
		return
	}

	logging.FromContext(c.Request.Context(), nil).Error("request failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "Something went wrong",
		},
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    services.CodeValidation,
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// currentActor writes a 401 and returns false when no caller was authenticated
func currentActor(c *gin.Context) (services.Actor, bool) {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return services.Actor{}, false
	}
	return actor, true
}

// uintParam parses a positive path parameter, writing a 400 when it is not one
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    services.CodeValidation,
				"message": "Invalid " + name,
			},
		})
		return 0, false
	}
	return uint(id), true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
