package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxmarket/voxmarket-api/config"
	"github.com/voxmarket/voxmarket-api/middleware"
	"github.com/voxmarket/voxmarket-api/models"
	"github.com/voxmarket/voxmarket-api/services"
)

// CreateQuoteRequest represents the request body for a quote-path order
type CreateQuoteRequest struct {
	ServiceType      string  `json:"service_type" binding:"required"`
	ClientName       string  `json:"client_name" binding:"required"`
	ClientEmail      string  `json:"client_email" binding:"required,email"`
	ActorID          uint    `json:"actor_id" binding:"required"`
	Script           string  `json:"script"`
	WordCount        *int    `json:"word_count"`
	UsageRights      *string `json:"usage_rights"`
	EstimatedMinutes *int    `json:"estimated_minutes"`
	VideoType        *string `json:"video_type"`
	FootageProvided  *bool   `json:"footage_provided"`
}

// CreateQuote handles POST /api/v1/quotes - a client requests a quote.
// Voice-over orders with a complete scope should use the direct checkout
// instead; everything else starts here at awaiting_offer.
func CreateQuote(c *gin.Context) {
	var req CreateQuoteRequest
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

	serviceType := models.ServiceType(req.ServiceType)
	if !serviceType.IsValid() {
		c.JSON(http.StatusBadRequest, errorBody("VALIDATION_ERROR", "Unknown service type"))
		return
	}

	input := services.QuoteOrderInput{
		ServiceType:      serviceType,
		ClientName:       req.ClientName,
		ClientEmail:      req.ClientEmail,
		ActorID:          req.ActorID,
		Script:           req.Script,
		WordCount:        req.WordCount,
		EstimatedMinutes: req.EstimatedMinutes,
		VideoType:        req.VideoType,
		FootageProvided:  req.FootageProvided,
	}
	if req.UsageRights != nil {
		usage := models.UsageRights(*req.UsageRights)
		if !usage.IsValid() {
			c.JSON(http.StatusBadRequest, errorBody("VALIDATION_ERROR", "Unknown usage rights"))
			return
		}
		input.UsageRights = &usage
	}

	order, err := services.GetLifecycleService().CreateQuoteOrder(input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// VoiceOverPriceRequest represents the request body for pricing a voice-over
type VoiceOverPriceRequest struct {
	WordCount   int    `json:"word_count" binding:"required,gt=0"`
	UsageRights string `json:"usage_rights" binding:"required"`
	Rush        bool   `json:"rush"`
}

// PreviewVoiceOverPrice handles POST /api/v1/orders/voiceover/price - returns
// the computed price breakdown, including the minimum-fee explanation when it
// applies.
func PreviewVoiceOverPrice(c *gin.Context) {
	var req VoiceOverPriceRequest
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

	quote, err := services.GetPricingService().QuoteVoiceOver(req.WordCount, models.UsageRights(req.UsageRights), req.Rush)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("VALIDATION_ERROR", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quote,
	})
}

// CreateVoiceOverOrderRequest represents the direct checkout request body
type CreateVoiceOverOrderRequest struct {
	ClientName  string `json:"client_name" binding:"required"`
	ClientEmail string `json:"client_email" binding:"required,email"`
	ActorID     uint   `json:"actor_id" binding:"required"`
	Script      string `json:"script" binding:"required"`
	WordCount   int    `json:"word_count" binding:"required,gt=0"`
	UsageRights string `json:"usage_rights" binding:"required"`
	Rush        bool   `json:"rush"`
}

// CreateVoiceOverOrder handles POST /api/v1/orders/voiceover - the direct
// voice-over checkout. The order is created at awaiting_payment with its
// computed price, alongside a card payment intent for immediate checkout.
func CreateVoiceOverOrder(c *gin.Context) {
	var req CreateVoiceOverOrderRequest
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

	lifecycle := services.GetLifecycleService()
	order, quote, err := lifecycle.CreateDirectOrder(services.DirectOrderInput{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ActorID:     req.ActorID,
		Script:      req.Script,
		WordCount:   req.WordCount,
		UsageRights: models.UsageRights(req.UsageRights),
		Rush:        req.Rush,
	}, services.GetPricingService())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// Best-effort intent creation so the client can pay in the same flow; a
	// gateway outage leaves the order payable later via the payment routes.
	var intent *services.PaymentIntent
	if created, intentErr := lifecycle.CreateCardPayment(order.OrderCode, order.ClientEmail, config.GetConfig().Currency); intentErr == nil {
		intent = created
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"order":          order,
			"quote":          quote,
			"payment_intent": intent,
		},
	})
}

// GetClientOrder handles GET /api/v1/client/orders/:code - the client's order
// view. Opening the view clears the client's unread flag.
func GetClientOrder(c *gin.Context) {
	email := clientEmail(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, errorBody("MISSING_EMAIL", "Client email is required"))
		return
	}

	order, err := services.GetLifecycleService().ClientOrder(c.Param("code"), email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if err := services.GetUnreadService().MarkViewed(order, models.RoleClient); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orderDetail(order),
	})
}

// ListActorOrders handles GET /api/v1/actor/orders - all orders assigned to
// the authenticated actor.
func ListActorOrders(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	var orders []models.Order
	err = config.GetDB().
		Where("actor_id = ?", user.ID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to fetch orders"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetActorOrder handles GET /api/v1/actor/orders/:code - the actor's order
// view. Opening the view clears the actor's unread flag.
func GetActorOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	order, err := services.GetLifecycleService().ActorOrder(c.Param("code"), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if err := services.GetUnreadService().MarkViewed(order, models.RoleActor); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orderDetail(order),
	})
}

// orderDetail widens an order with its offer and delivery history. Stored
// delivery files get presigned download URLs.
func orderDetail(order *models.Order) gin.H {
	db := config.GetDB()

	var offers []models.Offer
	db.Where("order_id = ?", order.ID).Order("id ASC").Find(&offers)

	var deliveries []models.Delivery
	db.Where("order_id = ?", order.ID).Order("id ASC").Find(&deliveries)

	storage := services.GetStorageService()
	if storage != nil {
		for i := range deliveries {
			if deliveries[i].FileKey != nil {
				if url, err := storage.GetPresignedURL(*deliveries[i].FileKey); err == nil {
					deliveries[i].DownloadURL = url
				}
			}
		}
	}

	var review *models.Review
	var found models.Review
	if err := db.Where("order_id = ?", order.ID).First(&found).Error; err == nil {
		review = &found
	}

	return gin.H{
		"order":      order,
		"offers":     offers,
		"deliveries": deliveries,
		"review":     review,
	}
}
