// Package routes holds the API route table shared by the server and the
// HTTP test suites.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/washwala/laundry-api/controllers"
	"github.com/washwala/laundry-api/middleware"
	"github.com/washwala/laundry-api/models"
)

// Controllers bundles every handler set the API exposes
type Controllers struct {
	Orders        *controllers.OrderController
	Reviews       *controllers.ReviewController
	Promos        *controllers.PromoController
	Laundries     *controllers.LaundryController
	Notifications *controllers.NotificationController
	Users         *controllers.UserController
}

// Register mounts the API on v1. auth must authenticate the caller and
// store its actor; tests pass a stub in place of the JWT middleware.
func Register(v1 *gin.RouterGroup, h Controllers, auth gin.HandlerFunc) {
	customer := middleware.RequireRole(models.RoleCustomer)
	laundry := middleware.RequireRole(models.RoleLaundry)
	laundryOrAdmin := middleware.RequireRole(models.RoleLaundry, models.RoleAdmin)
	admin := middleware.RequireRole(models.RoleAdmin)

	v1.GET("/order-transitions", h.Orders.Transitions)

	catalog := v1.Group("/catalog")
	{
		catalog.GET("/categories", h.Laundries.Categories)
		catalog.GET("/items", h.Laundries.ClothingItems)
	}

	laundries := v1.Group("/laundries/:id")
	{
		laundries.GET("", h.Laundries.Get)
		laundries.GET("/services", h.Laundries.Services)
		laundries.GET("/reviews", h.Reviews.ListForLaundry)
		laundries.PUT("/pricing", auth, laundryOrAdmin, h.Laundries.UpsertPricing)
		laundries.PATCH("/services/:serviceId", auth, laundryOrAdmin, h.Laundries.SetAvailability)
		laundries.POST("/stats/recompute", auth, laundryOrAdmin, h.Laundries.RecomputeStats)
	}

	authed := v1.Group("", auth)

	users := authed.Group("/users")
	{
		users.GET("/me", h.Users.GetMyProfile)
		users.PUT("/me", h.Users.UpdateMyProfile)
	}

	authed.POST("/promos/validate", customer, h.Promos.Validate)

	orders := authed.Group("/orders")
	{
		orders.POST("", customer, h.Orders.Create)
		orders.POST("/quote", customer, h.Orders.Quote)
		orders.GET("", h.Orders.List)
		orders.GET("/:id", h.Orders.Get)
		orders.GET("/:id/timeline", h.Orders.Timeline)
		orders.GET("/:id/history", h.Orders.History)
		orders.PATCH("/:id/status", laundry, h.Orders.UpdateStatus)
		orders.POST("/:id/cancel", h.Orders.Cancel)
		orders.POST("/:id/review", customer, h.Reviews.Create)
	}

	reviews := authed.Group("/reviews")
	{
		reviews.PUT("/:id", customer, h.Reviews.Update)
		reviews.POST("/:id/reply", laundry, h.Reviews.Reply)
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", h.Notifications.List)
		notifications.PATCH("/:id/read", h.Notifications.MarkRead)
	}

	promos := authed.Group("/admin/promos", admin)
	{
		promos.POST("", h.Promos.Create)
		promos.GET("", h.Promos.List)
		promos.PUT("/:id", h.Promos.Update)
		promos.DELETE("/:id", h.Promos.Deactivate)
	}
}
