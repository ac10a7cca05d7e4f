package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxmarket/voxmarket-api/config"
	"github.com/voxmarket/voxmarket-api/middleware"
	"github.com/voxmarket/voxmarket-api/services"
)

// CreateCardPayment handles POST /api/v1/client/orders/:code/payments/card -
// returns a one-time client secret for the order total. The order stays in
// awaiting_payment until the charge is confirmed.
func CreateCardPayment(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	intent, err := services.GetLifecycleService().CreateCardPayment(c.Param("code"), email, config.GetConfig().Currency)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    intent,
	})
}

// ConfirmCardPaymentRequest represents the client-reported charge result
type ConfirmCardPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// ConfirmCardPayment handles POST /api/v1/client/orders/:code/payments/card/confirm -
// the client reports the charge succeeded; the gateway is consulted before
// the order moves to in_progress.
func ConfirmCardPayment(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	var req ConfirmCardPaymentRequest
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

	order, err := services.GetLifecycleService().ConfirmCardPayment(c.Param("code"), email, req.PaymentIntentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// MarkAsPaid handles POST /api/v1/client/orders/:code/payments/bank - the
// client declares a manual bank transfer was sent.
func MarkAsPaid(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	order, err := services.GetLifecycleService().MarkAsPaid(c.Param("code"), email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ConfirmBankReceipt handles POST /api/v1/actor/orders/:code/confirm-payment -
// the actor confirms the bank transfer arrived.
func ConfirmBankReceipt(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	order, err := services.GetLifecycleService().ConfirmBankReceipt(c.Param("code"), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ConfirmAdminReceipt handles POST /api/v1/admin/orders/:code/confirm-payment -
// the admin confirms a platform-routed bank transfer arrived.
func ConfirmAdminReceipt(c *gin.Context) {
	order, err := services.GetLifecycleService().ConfirmAdminReceipt(c.Param("code"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CancelOrder handles POST /api/v1/admin/orders/:code/cancel - administrative
// cancellation from any non-terminal state.
func CancelOrder(c *gin.Context) {
	order, err := services.GetLifecycleService().CancelOrder(c.Param("code"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
