package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/voxmarket/voxmarket-api/config"
	"github.com/voxmarket/voxmarket-api/models"
	"github.com/voxmarket/voxmarket-api/services"
)

// CreateReviewRequest represents the request body for reviewing an order
type CreateReviewRequest struct {
	Rating  int     `json:"rating" binding:"required,gte=1,lte=5"`
	Comment *string `json:"comment"`
}

// CreateReview handles POST /api/v1/client/orders/:code/reviews - the client
// rates a completed order. A repeat submission reports "already reviewed".
func CreateReview(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	review, err := services.GetLifecycleService().SubmitReview(c.Param("code"), email, req.Rating, req.Comment)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    review,
	})
}

// ListActorReviews handles GET /api/v1/actors/:id/reviews - public reviews
// for an actor, newest first.
func ListActorReviews(c *gin.Context) {
	actorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "Actor ID must be numeric"))
		return
	}

	var reviews []models.Review
	err = config.GetDB().
		Joins("JOIN orders ON orders.id = reviews.order_id").
		Where("orders.actor_id = ?", actorID).
		Order("reviews.id DESC").
		Find(&reviews).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to fetch reviews"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reviews,
	})
}
