package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/voxmarket/voxmarket-api/middleware"
	"github.com/voxmarket/voxmarket-api/services"
	"github.com/voxmarket/voxmarket-api/utils"
)

// DeliveryLinkRequest is the JSON body for a link delivery
type DeliveryLinkRequest struct {
	FileURL string `json:"file_url" binding:"required,url"`
	Note    string `json:"note"`
}

// CreateDelivery handles POST /api/v1/actor/orders/:code/deliveries - the
// actor submits a delivery, either a multipart file upload or a JSON body
// with an external link.
func CreateDelivery(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	lifecycle := services.GetLifecycleService()
	orderCode := c.Param("code")

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		order, err := lifecycle.ActorOrder(orderCode, user.ID)
		if err != nil {
			handleServiceError(c, err)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("MISSING_FILE", "A delivery file is required"))
			return
		}

		if err := utils.ValidateDeliveryFile(fileHeader, order.ServiceType); err != nil {
			uploadErr, ok := err.(*utils.FileUploadError)
			if !ok {
				c.JSON(http.StatusBadRequest, errorBody("INVALID_FILE", err.Error()))
				return
			}
			c.JSON(http.StatusBadRequest, errorBody(uploadErr.Code, uploadErr.Message))
			return
		}

		// The next version number is assigned transactionally during the
		// insert; the storage key only needs to be unique, so the count here
		// is a naming hint, not the authority.
		next, err := lifecycle.LatestDelivery(order.ID)
		version := 1
		if err == nil {
			version = next.VersionNumber + 1
		}

		key, err := services.GetStorageService().UploadDelivery(fileHeader, order.OrderCode, version)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorBody("UPLOAD_FAILED", "Failed to store the delivery file"))
			return
		}

		note := c.PostForm("note")
		delivery, err := lifecycle.Deliver(orderCode, user.ID, &key, nil, note)
		if err != nil {
			handleServiceError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data":    delivery,
		})
		return
	}

	var req DeliveryLinkRequest
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

	delivery, err := lifecycle.Deliver(orderCode, user.ID, nil, &req.FileURL, req.Note)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    delivery,
	})
}

// AcceptDelivery handles POST /api/v1/client/orders/:code/delivery/accept -
// the client approves the latest delivery, completing the order.
func AcceptDelivery(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	order, err := services.GetLifecycleService().AcceptDelivery(c.Param("code"), email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// RequestRevision handles POST /api/v1/client/orders/:code/delivery/revision -
// the client rejects the latest delivery, consuming a revision slot.
func RequestRevision(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	order, err := services.GetLifecycleService().RequestRevision(c.Param("code"), email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
