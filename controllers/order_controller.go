package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/washwala/laundry-api/models"
	"github.com/washwala/laundry-api/services"
	"github.com/washwala/laundry-api/statemachine"
)

// UpdateStatusRequest represents the request body for a laundry status update
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Notes  string             `json:"notes" binding:"max=500"`
}

// CancelOrderRequest represents the request body for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// OrderController serves the order lifecycle endpoints
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Create handles POST /api/v1/orders - places a new order (customers only)
func (ctl *OrderController) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.CreateOrder(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, order)
}

// Quote handles POST /api/v1/orders/quote - prices an order without placing it
func (ctl *OrderController) Quote(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quote, err := ctl.orders.Quote(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"items":                  quote.Items,
		"subtotal":               quote.Subtotal,
		"delivery_fee":           quote.DeliveryFee,
		"express_fee":            quote.ExpressFee,
		"discount":               quote.Discount,
		"total_amount":           quote.TotalAmount,
		"promo_code":             quote.PromoCode,
		"expected_delivery_date": quote.ExpectedDeliveryDate,
	})
}

// List handles GET /api/v1/orders - the caller's orders, newest first
func (ctl *OrderController) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	page, err := ctl.orders.ListOrders(c.Request.Context(), actor, services.OrderFilter{
		Status:   models.OrderStatus(c.Query("status")),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    page.Orders,
		"pagination": gin.H{
			"page":      page.Page,
			"page_size": page.PageSize,
			"total":     page.Total,
		},
	})
}

// Get handles GET /api/v1/orders/:id
func (ctl *OrderController) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	order, err := ctl.orders.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

// Timeline handles GET /api/v1/orders/:id/timeline
func (ctl *OrderController) Timeline(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	timeline, err := ctl.orders.GetTimeline(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, timeline)
}

// History handles GET /api/v1/orders/:id/history
func (ctl *OrderController) History(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	history, err := ctl.orders.GetStatusHistory(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, history)
}

// UpdateStatus handles PATCH /api/v1/orders/:id/status (laundries only)
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.UpdateStatus(c.Request.Context(), actor, id, req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

// Cancel handles POST /api/v1/orders/:id/cancel
func (ctl *OrderController) Cancel(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.CancelOrder(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

// Transitions handles GET /api/v1/order-transitions
func (ctl *OrderController) Transitions(c *gin.Context) {
	respondData(c, http.StatusOK, statemachine.GetAllTransitions())
}
