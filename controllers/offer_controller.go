package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxmarket/voxmarket-api/middleware"
	"github.com/voxmarket/voxmarket-api/services"
)

// SendOfferRequest represents the request body for sending or updating an offer
type SendOfferRequest struct {
	Title     string  `json:"title" binding:"required"`
	Agreement string  `json:"agreement"`
	Price     float64 `json:"price" binding:"required,gt=0"`
}

// SendOffer handles POST /api/v1/actor/orders/:code/offers - the actor sends
// a new offer, or supersedes the previous one. Offers are append-only; an
// update is a new row.
func SendOffer(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	var req SendOfferRequest
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

	offer, err := services.GetLifecycleService().SendOffer(c.Param("code"), user.ID, req.Title, req.Agreement, req.Price)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    offer,
	})
}

// AcceptOffer handles POST /api/v1/client/orders/:code/accept-offer - the
// client accepts the latest offer, fixing the order price.
func AcceptOffer(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	order, err := services.GetLifecycleService().AcceptOffer(c.Param("code"), email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
