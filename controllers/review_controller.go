package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/washwala/laundry-api/services"
)

// ReplyRequest represents the laundry's reply to a review
type ReplyRequest struct {
	Reply string `json:"reply" binding:"required,max=2000"`
}

// ReviewController serves review endpoints
type ReviewController struct {
	reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

// Create handles POST /api/v1/orders/:id/review - completes a delivered order
func (ctl *ReviewController) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req services.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := ctl.reviews.CreateReview(c.Request.Context(), actor, orderID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, review)
}

// Update handles PUT /api/v1/reviews/:id
func (ctl *ReviewController) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req services.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := ctl.reviews.UpdateReview(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, review)
}

// Reply handles POST /api/v1/reviews/:id/reply (laundries only)
func (ctl *ReviewController) Reply(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := ctl.reviews.ReplyToReview(c.Request.Context(), actor, id, req.Reply)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, review)
}

// ListForLaundry handles GET /api/v1/laundries/:id/reviews
func (ctl *ReviewController) ListForLaundry(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	reviews, err := ctl.reviews.ListLaundryReviews(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, reviews)
}
