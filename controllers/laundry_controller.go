package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/washwala/laundry-api/services"
)

// AvailabilityRequest toggles a laundry service
type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// LaundryController serves the catalog, a laundry's services and its stats
type LaundryController struct {
	catalog *services.CatalogService
	stats   *services.StatsService
}

func NewLaundryController(catalog *services.CatalogService, stats *services.StatsService) *LaundryController {
	return &LaundryController{catalog: catalog, stats: stats}
}

// Categories handles GET /api/v1/catalog/categories
func (ctl *LaundryController) Categories(c *gin.Context) {
	categories, err := ctl.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, categories)
}

// ClothingItems handles GET /api/v1/catalog/items
func (ctl *LaundryController) ClothingItems(c *gin.Context) {
	items, err := ctl.catalog.ListClothingItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, items)
}

// Get handles GET /api/v1/laundries/:id
func (ctl *LaundryController) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	laundry, err := ctl.catalog.GetLaundry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, laundry)
}

// Services handles GET /api/v1/laundries/:id/services
func (ctl *LaundryController) Services(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	svcs, err := ctl.catalog.ListLaundryServices(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, svcs)
}

// UpsertPricing handles PUT /api/v1/laundries/:id/pricing
func (ctl *LaundryController) UpsertPricing(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req services.PricingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	pricing, err := ctl.catalog.UpsertServicePricing(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, pricing)
}

// SetAvailability handles PATCH /api/v1/laundries/:id/services/:serviceId
func (ctl *LaundryController) SetAvailability(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	serviceID, ok := uintParam(c, "serviceId")
	if !ok {
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	svc, err := ctl.catalog.SetServiceAvailability(c.Request.Context(), actor, id, serviceID, *req.IsAvailable)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, svc)
}

// RecomputeStats handles POST /api/v1/laundries/:id/stats/recompute
func (ctl *LaundryController) RecomputeStats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if !actor.CanManageLaundry(id) {
		respondError(c, services.ErrForbidden)
		return
	}

	stats, err := ctl.stats.Recompute(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}
