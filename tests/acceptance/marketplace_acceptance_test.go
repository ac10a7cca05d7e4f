package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voxmarket/voxmarket-api/config"
	"github.com/voxmarket/voxmarket-api/controllers"
	"github.com/voxmarket/voxmarket-api/models"
	"github.com/voxmarket/voxmarket-api/services"
	"github.com/voxmarket/voxmarket-api/tests/testutil"
	"github.com/voxmarket/voxmarket-api/utils"
)

// MarketplaceAcceptanceTestSuite runs end-to-end scenarios against a real
// HTTP server backed by a shared test database.
type MarketplaceAcceptanceTestSuite struct {
	suite.Suite
	server   *httptest.Server
	db       *gorm.DB
	cfg      *config.Config
	notifier *services.MockNotifier
	gateway  *services.MockPaymentGateway
}

// SetupSuite runs once before all tests
func (suite *MarketplaceAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	os.Setenv("GO_ENV", "test")
	os.Setenv("AUTH0_DOMAIN", "test.auth0.com")
	os.Setenv("AUTH0_AUDIENCE", "https://api.test.com")
	os.Setenv("PORT", "8080")

	cfg, err := config.Load()
	suite.NoError(err)
	suite.cfg = cfg

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	suite.NoError(err)
	suite.db = db

	err = db.AutoMigrate(
		&models.User{}, &models.Order{}, &models.Offer{},
		&models.Delivery{}, &models.Review{}, &models.Message{},
	)
	suite.NoError(err)

	config.SetDB(db)

	suite.notifier = services.NewMockNotifier()
	suite.notifier.SetAsMockForTesting()
	suite.gateway = services.NewMockPaymentGateway()
	suite.gateway.SetAsMockForTesting()
	events := services.NewMockEventPublisher()
	events.SetAsMockForTesting()
	storage := services.NewMockStorageService()
	storage.SetAsMockForTesting()

	services.InitPricingService(cfg)
	services.InitLifecycleService(services.NewLifecycleService(db, suite.notifier, suite.gateway, events))
	services.InitUnreadService(services.NewUnreadService(db, suite.notifier, cfg.UnreadReminderDelay))

	suite.server = httptest.NewServer(suite.createRouter())
}

// TearDownSuite runs once after all tests
func (suite *MarketplaceAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// SetupTest runs before each test
func (suite *MarketplaceAcceptanceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM messages")
	suite.db.Exec("DELETE FROM reviews")
	suite.db.Exec("DELETE FROM deliveries")
	suite.db.Exec("DELETE FROM offers")
	suite.db.Exec("DELETE FROM orders")
	suite.db.Exec("DELETE FROM users")
	suite.notifier.Clear()
}

// createRouter mirrors the production route table with mock authentication
func (suite *MarketplaceAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
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

		actor := v1.Group("/actor", testutil.MockAuthMiddleware("auth0|actor"))
		{
			actor.GET("/orders", controllers.ListActorOrders)
			actor.GET("/orders/:code", controllers.GetActorOrder)
			actor.POST("/orders/:code/offers", controllers.SendOffer)
			actor.POST("/orders/:code/deliveries", controllers.CreateDelivery)
			actor.GET("/orders/:code/messages", controllers.ListActorMessages)
			actor.POST("/orders/:code/messages", controllers.SendActorMessage)
			actor.GET("/eligibility", controllers.GetEligibility)
			actor.POST("/eligibility/request", controllers.RequestDirectPayment)
		}

		admin := v1.Group("/admin", testutil.MockAuthMiddleware("auth0|admin"))
		{
			admin.POST("/orders/:code/confirm-payment", controllers.ConfirmAdminReceipt)
			admin.POST("/orders/:code/cancel", controllers.CancelOrder)
			admin.POST("/actors/:id/enable-direct-payment", controllers.EnableDirectPayment)
		}
	}

	return router
}

func (suite *MarketplaceAcceptanceTestSuite) seedActor() *models.User {
	actor := models.User{
		Auth0ID:          "auth0|actor",
		Name:             "Morgan Reed",
		Email:            "actor@test.com",
		Role:             "actor",
		RevisionsAllowed: 2,
	}
	suite.NoError(suite.db.Create(&actor).Error)
	return &actor
}

func (suite *MarketplaceAcceptanceTestSuite) do(method, path string, body interface{}, asClient bool) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		suite.NoError(json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, suite.server.URL+path, &buf)
	suite.NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if asClient {
		req.Header.Set("X-Client-Email", "jamie@test.com")
	}

	resp, err := http.DefaultClient.Do(req)
	suite.NoError(err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

// TestScenario_MessagingKeepsBothSidesInformed covers the conversation
// thread: unread flags flip with the volley and clear when the recipient
// opens their order view.
func (suite *MarketplaceAcceptanceTestSuite) TestScenario_MessagingKeepsBothSidesInformed() {
	actor := suite.seedActor()

	status, response := suite.do(http.MethodPost, "/api/v1/quotes", map[string]interface{}{
		"service_type": "voice_over",
		"client_name":  "Jamie Client",
		"client_email": "jamie@test.com",
		"actor_id":     actor.ID,
		"script":       "A meditation app intro.",
	}, false)
	suite.Equal(http.StatusCreated, status)
	code := response["data"].(map[string]interface{})["order_code"].(string)

	// Client opens the conversation.
	status, _ = suite.do(http.MethodPost, fmt.Sprintf("/api/v1/client/orders/%s/messages", code), map[string]interface{}{
		"text": "What accent options do you offer?",
	}, true)
	suite.Equal(http.StatusCreated, status)

	var order models.Order
	suite.NoError(suite.db.Where("order_code = ?", code).First(&order).Error)
	suite.True(order.ActorHasUnread)

	// Actor opens their order view; the flag clears.
	status, _ = suite.do(http.MethodGet, fmt.Sprintf("/api/v1/actor/orders/%s", code), nil, false)
	suite.Equal(http.StatusOK, status)

	suite.NoError(suite.db.Where("order_code = ?", code).First(&order).Error)
	suite.False(order.ActorHasUnread)

	// Actor replies; now the client is behind.
	status, _ = suite.do(http.MethodPost, fmt.Sprintf("/api/v1/actor/orders/%s/messages", code), map[string]interface{}{
		"text": "Neutral American or RP, your pick.",
	}, false)
	suite.Equal(http.StatusCreated, status)

	suite.NoError(suite.db.Where("order_code = ?", code).First(&order).Error)
	suite.True(order.ClientHasUnread)

	// Both sides read the same thread.
	status, response = suite.do(http.MethodGet, fmt.Sprintf("/api/v1/client/orders/%s/messages", code), nil, true)
	suite.Equal(http.StatusOK, status)
	suite.Len(response["data"].([]interface{}), 2)
}

// TestScenario_ActorEarnsDirectPayment covers the eligibility ladder: a
// completed, well-reviewed order unlocks the request, and the admin flips
// the switch.
func (suite *MarketplaceAcceptanceTestSuite) TestScenario_ActorEarnsDirectPayment() {
	actor := suite.seedActor()

	// Fresh actors cannot request direct payment.
	status, response := suite.do(http.MethodPost, "/api/v1/actor/eligibility/request", nil, false)
	suite.Equal(http.StatusConflict, status)
	suite.Equal("NOT_ELIGIBLE", response["error"].(map[string]interface{})["code"])

	// A completed order with a good review changes that.
	order := models.Order{
		OrderCode:        utils.NewOrderCode(),
		ServiceType:      models.ServiceVoiceOver,
		ClientName:       "Jamie Client",
		ClientEmail:      "jamie@test.com",
		ActorID:          actor.ID,
		Status:           models.StatusCompleted,
		RevisionsAllowed: 2,
	}
	suite.NoError(suite.db.Create(&order).Error)
	suite.NoError(suite.db.Create(&models.Review{OrderID: order.ID, Rating: 5}).Error)

	status, response = suite.do(http.MethodGet, "/api/v1/actor/eligibility", nil, false)
	suite.Equal(http.StatusOK, status)
	suite.Equal("eligible_can_request", response["data"].(map[string]interface{})["status"])

	status, response = suite.do(http.MethodPost, "/api/v1/actor/eligibility/request", nil, false)
	suite.Equal(http.StatusOK, status)
	suite.Equal("requested_pending", response["data"].(map[string]interface{})["status"])

	// Admin approves.
	status, _ = suite.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/actors/%d/enable-direct-payment", actor.ID), nil, false)
	suite.Equal(http.StatusOK, status)

	var stored models.User
	suite.NoError(suite.db.First(&stored, actor.ID).Error)
	suite.True(stored.DirectPaymentEnabled)

	// Bank transfers on new orders now route straight to the actor.
	status, response = suite.do(http.MethodPost, "/api/v1/orders/voiceover", map[string]interface{}{
		"client_name":  "Jamie Client",
		"client_email": "jamie@test.com",
		"actor_id":     actor.ID,
		"script":       "A podcast sponsorship read.",
		"word_count":   600,
		"usage_rights": "web",
	}, false)
	suite.Equal(http.StatusCreated, status)
	code := response["data"].(map[string]interface{})["order"].(map[string]interface{})["order_code"].(string)

	status, response = suite.do(http.MethodPost, fmt.Sprintf("/api/v1/client/orders/%s/payments/bank", code), nil, true)
	suite.Equal(http.StatusOK, status)
	suite.Equal("awaiting_actor_confirmation", response["data"].(map[string]interface{})["status"])
}

// TestScenario_CancelledOrderStaysCancelled verifies terminality
func (suite *MarketplaceAcceptanceTestSuite) TestScenario_CancelledOrderStaysCancelled() {
	actor := suite.seedActor()

	status, response := suite.do(http.MethodPost, "/api/v1/quotes", map[string]interface{}{
		"service_type": "video_editing",
		"client_name":  "Jamie Client",
		"client_email": "jamie@test.com",
		"actor_id":     actor.ID,
		"script":       "Trim our webinar recording.",
	}, false)
	suite.Equal(http.StatusCreated, status)
	code := response["data"].(map[string]interface{})["order_code"].(string)

	status, _ = suite.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/cancel", code), nil, false)
	suite.Equal(http.StatusOK, status)

	// No offer, no payment, no un-cancel.
	status, response = suite.do(http.MethodPost, fmt.Sprintf("/api/v1/actor/orders/%s/offers", code), map[string]interface{}{
		"title": "Late offer", "price": 100.00,
	}, false)
	suite.Equal(http.StatusConflict, status)
	suite.Equal("INVALID_STATE", response["error"].(map[string]interface{})["code"])

	status, _ = suite.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/cancel", code), nil, false)
	suite.Equal(http.StatusConflict, status)
}

// TestMarketplaceAcceptanceTestSuite runs the test suite
func TestMarketplaceAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(MarketplaceAcceptanceTestSuite))
}
