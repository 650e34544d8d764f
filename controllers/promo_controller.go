package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/washwala/laundry-api/services"
)

// ValidatePromoRequest asks whether a code applies to a prospective order
type ValidatePromoRequest struct {
	Code        string          `json:"code" binding:"required"`
	OrderAmount decimal.Decimal `json:"order_amount"`
	LaundryID   *uint           `json:"laundry_id"`
}

// PromoController serves promo validation and the admin promo endpoints
type PromoController struct {
	promos *services.PromoService
}

func NewPromoController(promos *services.PromoService) *PromoController {
	return &PromoController{promos: promos}
}

// Validate handles POST /api/v1/promos/validate
func (ctl *PromoController) Validate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !req.OrderAmount.IsPositive() {
		respondError(c, &services.Error{Code: services.CodeValidation, Message: "order_amount must be positive"})
		return
	}

	result, err := ctl.promos.Validate(c.Request.Context(), req.Code, req.OrderAmount, req.LaundryID, actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// Create handles POST /api/v1/admin/promos
func (ctl *PromoController) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.PromoInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	promo, err := ctl.promos.CreatePromo(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, promo)
}

// List handles GET /api/v1/admin/promos?active=true
func (ctl *PromoController) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	promos, err := ctl.promos.ListPromos(c.Request.Context(), actor, c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, promos)
}

// Update handles PUT /api/v1/admin/promos/:id
func (ctl *PromoController) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req services.PromoInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	promo, err := ctl.promos.UpdatePromo(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, promo)
}

// Deactivate handles DELETE /api/v1/admin/promos/:id
func (ctl *PromoController) Deactivate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := ctl.promos.DeactivatePromo(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Promo code deactivated",
	})
}
