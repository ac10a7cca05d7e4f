package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxmarket/voxmarket-api/services"
)

// errorBody builds the standard error envelope.
func errorBody(code, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// handleServiceError maps lifecycle sentinel errors onto stable HTTP error
// codes. Anything unrecognized is an internal error; user-triggered actions
// never crash the service.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, errorBody("ORDER_NOT_FOUND", "Order not found"))
	case errors.Is(err, services.ErrNotOrderActor):
		c.JSON(http.StatusForbidden, errorBody("FORBIDDEN", "Order is not assigned to you"))
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorBody("INVALID_STATE", "This action is not allowed in the order's current state"))
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, errorBody("CONFLICT", "The order changed while processing your request. Please reload and try again."))
	case errors.Is(err, services.ErrNoOffer):
		c.JSON(http.StatusBadRequest, errorBody("NO_OFFER", "No offer exists for this order"))
	case errors.Is(err, services.ErrPriceNotSet):
		c.JSON(http.StatusBadRequest, errorBody("PRICE_NOT_SET", "The order has no price set"))
	case errors.Is(err, services.ErrRevisionsExhausted):
		c.JSON(http.StatusBadRequest, errorBody("REVISIONS_EXHAUSTED", "No revisions remaining on this order"))
	case errors.Is(err, services.ErrPaymentNotConfirmed):
		c.JSON(http.StatusPaymentRequired, errorBody("PAYMENT_NOT_CONFIRMED", "The payment has not been confirmed by the gateway"))
	case errors.Is(err, services.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, errorBody("ALREADY_REVIEWED", "This order has already been reviewed"))
	case errors.Is(err, services.ErrDeliveryAssetRequired):
		c.JSON(http.StatusBadRequest, errorBody("DELIVERY_ASSET_REQUIRED", "A delivery requires a file or a link"))
	case errors.Is(err, services.ErrPaymentGateway):
		c.JSON(http.StatusBadGateway, errorBody("PAYMENT_GATEWAY_ERROR", "The payment provider is unavailable. Please try again."))
	default:
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", "Something went wrong processing the request"))
	}
}

// clientEmail extracts the unauthenticated client's correlation key from the
// request: X-Client-Email header first, then the email query parameter.
func clientEmail(c *gin.Context) string {
	if email := c.GetHeader("X-Client-Email"); email != "" {
		return email
	}
	return c.Query("email")
}
