package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxmarket/voxmarket-api/config"
	"github.com/voxmarket/voxmarket-api/middleware"
	"github.com/voxmarket/voxmarket-api/models"
	"github.com/voxmarket/voxmarket-api/services"
)

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendClientMessage handles POST /api/v1/client/orders/:code/messages
func SendClientMessage(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.PureJSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	order, err := services.GetLifecycleService().ClientOrder(c.Param("code"), email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendMessage(c, order, models.RoleClient)
}

// SendActorMessage handles POST /api/v1/actor/orders/:code/messages
func SendActorMessage(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.PureJSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	order, err := services.GetLifecycleService().ActorOrder(c.Param("code"), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendMessage(c, order, models.RoleActor)
}

// sendMessage inserts the message and feeds the event to the unread tracker,
// which decides whether the volley changed.
func sendMessage(c *gin.Context, order *models.Order, sender models.SenderRole) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.PureJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	message := models.Message{
		OrderID:    order.ID,
		SenderRole: sender,
		Text:       req.Text,
	}
	if err := config.GetDB().Create(&message).Error; err != nil {
		c.PureJSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to create message"))
		return
	}

	if err := services.GetUnreadService().ApplyMessage(order, sender); err != nil {
		c.PureJSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to update unread state"))
		return
	}

	c.PureJSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListClientMessages handles GET /api/v1/client/orders/:code/messages
func ListClientMessages(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.PureJSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	order, err := services.GetLifecycleService().ClientOrder(c.Param("code"), email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	listMessages(c, order)
}

// ListActorMessages handles GET /api/v1/actor/orders/:code/messages
func ListActorMessages(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.PureJSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	order, err := services.GetLifecycleService().ActorOrder(c.Param("code"), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	listMessages(c, order)
}

func listMessages(c *gin.Context, order *models.Order) {
	var messages []models.Message
	err := config.GetDB().
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		c.PureJSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to fetch messages"))
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}
