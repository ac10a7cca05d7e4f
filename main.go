package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/voxmarket/voxmarket-api/config"
	"github.com/voxmarket/voxmarket-api/controllers"
	"github.com/voxmarket/voxmarket-api/middleware"
	"github.com/voxmarket/voxmarket-api/models"
	"github.com/voxmarket/voxmarket-api/services"
)

func main() {
	log.Info("Starting VoxMarket API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := config.GetDB()
	err = db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Offer{},
		&models.Delivery{},
		&models.Review{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Info("Database migration completed successfully")

	// External collaborators.
	notifier := services.InitNotifier(cfg)
	gateway := services.InitPaymentGateway(cfg)
	events := services.InitEventPublisher(cfg)
	if _, err := services.InitStorageService(); err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}

	// Core services.
	services.InitPricingService(cfg)
	services.InitLifecycleService(services.NewLifecycleService(db, notifier, gateway, events))
	unread := services.InitUnreadService(services.NewUnreadService(db, notifier, cfg.UnreadReminderDelay))

	// Reminder sweep for unread messages past their deadline.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			if err := unread.SendDueReminders(now); err != nil {
				log.WithError(err).Warn("unread reminder sweep failed")
			}
		}
	}()

	router := gin.Default()
	router.Use(cors.Default())
	registerRoutes(router, cfg)

	port := ":" + cfg.Port
	log.Infof("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func registerRoutes(router *gin.Engine, cfg *config.Config) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		// Public client routes: correlated by order code + client email.
		v1.POST("/quotes", controllers.CreateQuote)
		v1.POST("/orders/voiceover/price", controllers.PreviewVoiceOverPrice)
		v1.POST("/orders/voiceover", controllers.CreateVoiceOverOrder)
		v1.GET("/actors/:id/reviews", controllers.ListActorReviews)

		client := v1.Group("/client/orders/:code")
		{
			client.GET("", controllers.GetClientOrder)
			client.POST("/accept-offer", controllers.AcceptOffer)
			client.POST("/payments/card", controllers.CreateCardPayment)
			client.POST("/payments/card/confirm", controllers.ConfirmCardPayment)
			client.POST("/payments/bank", controllers.MarkAsPaid)
			client.POST("/delivery/accept", controllers.AcceptDelivery)
			client.POST("/delivery/revision", controllers.RequestRevision)
			client.POST("/reviews", controllers.CreateReview)
			client.GET("/messages", controllers.ListClientMessages)
			client.POST("/messages", controllers.SendClientMessage)
		}

		// Authenticated actor routes.
		auth := middleware.EnsureValidToken(cfg)
		v1.POST("/users", auth, controllers.CreateUser)
		v1.GET("/users/me", auth, controllers.GetMe)
		v1.PATCH("/users/me", auth, controllers.UpdateMe)

		actor := v1.Group("/actor", auth)
		{
			actor.GET("/orders", controllers.ListActorOrders)
			actor.GET("/orders/:code", controllers.GetActorOrder)
			actor.POST("/orders/:code/offers", controllers.SendOffer)
			actor.POST("/orders/:code/confirm-payment", controllers.ConfirmBankReceipt)
			actor.POST("/orders/:code/deliveries", controllers.CreateDelivery)
			actor.GET("/orders/:code/messages", controllers.ListActorMessages)
			actor.POST("/orders/:code/messages", controllers.SendActorMessage)
			actor.GET("/eligibility", controllers.GetEligibility)
			actor.POST("/eligibility/request", controllers.RequestDirectPayment)
		}

		// Admin routes.
		admin := v1.Group("/admin", auth, middleware.RequireAdmin())
		{
			admin.POST("/orders/:code/confirm-payment", controllers.ConfirmAdminReceipt)
			admin.POST("/orders/:code/cancel", controllers.CancelOrder)
			admin.POST("/actors/:id/enable-direct-payment", controllers.EnableDirectPayment)
		}
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "VoxMarket API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
	})
}
