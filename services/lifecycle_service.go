package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voxmarket/voxmarket-api/models"
	"github.com/voxmarket/voxmarket-api/utils"
)

// LifecycleService owns the order state machine. Every transition is a
// conditional single-row update guarded by the previously observed status;
// a guard miss surfaces as ErrConflict and mutates nothing. Change events
// and notifications fire after the commit and are best-effort.
type LifecycleService struct {
	db       *gorm.DB
	notifier Notifier
	gateway  PaymentGateway
	events   EventPublisher
}

var lifecycleServiceInstance *LifecycleService

// NewLifecycleService wires the engine to its collaborators.
func NewLifecycleService(db *gorm.DB, notifier Notifier, gateway PaymentGateway, events EventPublisher) *LifecycleService {
	return &LifecycleService{db: db, notifier: notifier, gateway: gateway, events: events}
}

// InitLifecycleService installs the lifecycle service instance.
func InitLifecycleService(s *LifecycleService) *LifecycleService {
	lifecycleServiceInstance = s
	return s
}

// GetLifecycleService returns the installed lifecycle service instance
func GetLifecycleService() *LifecycleService {
	return lifecycleServiceInstance
}

// QuoteOrderInput carries a client's quote request.
type QuoteOrderInput struct {
	ServiceType      models.ServiceType
	ClientName       string
	ClientEmail      string
	ActorID          uint
	Script           string
	WordCount        *int
	UsageRights      *models.UsageRights
	EstimatedMinutes *int
	VideoType        *string
	FootageProvided  *bool
}

// DirectOrderInput carries a voice-over direct checkout.
type DirectOrderInput struct {
	ClientName  string
	ClientEmail string
	ActorID     uint
	Script      string
	WordCount   int
	UsageRights models.UsageRights
	Rush        bool
}

// CreateQuoteOrder inserts a quote-path order in awaiting_offer with no price
// and notifies the actor.
func (s *LifecycleService) CreateQuoteOrder(in QuoteOrderInput) (*models.Order, error) {
	var actor models.User
	if err := s.db.First(&actor, in.ActorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}

	order := models.Order{
		OrderCode:        utils.NewOrderCode(),
		ServiceType:      in.ServiceType,
		ClientName:       in.ClientName,
		ClientEmail:      in.ClientEmail,
		ActorID:          actor.ID,
		Script:           in.Script,
		WordCount:        in.WordCount,
		UsageRights:      in.UsageRights,
		EstimatedMinutes: in.EstimatedMinutes,
		VideoType:        in.VideoType,
		FootageProvided:  in.FootageProvided,
		Status:           models.StatusAwaitingOffer,
		RevisionsAllowed: actor.RevisionsAllowed,
	}

	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	order.Actor = actor

	s.afterTransition(&order, "quote_requested", TemplateQuoteRequested, actor.Email, map[string]string{
		"order_code":   order.OrderCode,
		"client_name":  order.ClientName,
		"service_type": string(order.ServiceType),
	})
	return &order, nil
}

// CreateDirectOrder prices a voice-over order and inserts it in
// awaiting_payment. Both parties are notified; payment is collected
// separately through the card or bank rails.
func (s *LifecycleService) CreateDirectOrder(in DirectOrderInput, pricing *PricingService) (*models.Order, *PriceQuote, error) {
	quote, err := pricing.QuoteVoiceOver(in.WordCount, in.UsageRights, in.Rush)
	if err != nil {
		return nil, nil, err
	}

	var actor models.User
	if err := s.db.First(&actor, in.ActorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, fmt.Errorf("failed to load actor: %w", err)
	}

	usage := in.UsageRights
	wordCount := in.WordCount
	total := quote.Total
	order := models.Order{
		OrderCode:        utils.NewOrderCode(),
		ServiceType:      models.ServiceVoiceOver,
		ClientName:       in.ClientName,
		ClientEmail:      in.ClientEmail,
		ActorID:          actor.ID,
		Script:           in.Script,
		WordCount:        &wordCount,
		UsageRights:      &usage,
		TotalPrice:       &total,
		Status:           models.StatusAwaitingPayment,
		RevisionsAllowed: actor.RevisionsAllowed,
	}

	if err := s.db.Create(&order).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}
	order.Actor = actor

	params := map[string]string{
		"order_code":   order.OrderCode,
		"client_name":  order.ClientName,
		"service_type": string(order.ServiceType),
		"total_price":  formatPrice(total),
	}
	s.afterTransition(&order, "order_created", TemplateOrderReceived, actor.Email, params)
	s.notify(TemplateOrderPlaced, order.ClientEmail, params)

	return &order, quote, nil
}

// SendOffer appends a new offer while the order is awaiting one (or already
// has one, which makes this an update) and moves the order to offer_made.
func (s *LifecycleService) SendOffer(orderCode string, actorID uint, title, agreement string, price float64) (*models.Offer, error) {
	order, err := s.ActorOrder(orderCode, actorID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAwaitingOffer && order.Status != models.StatusOfferMade {
		return nil, ErrInvalidTransition
	}
	if title == "" || price <= 0 {
		return nil, fmt.Errorf("offer requires a title and a positive price")
	}

	wasUpdate := order.Status == models.StatusOfferMade

	offer := models.Offer{
		OrderID:   order.ID,
		Title:     title,
		Agreement: agreement,
		Price:     price,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&offer).Error; err != nil {
			return fmt.Errorf("failed to create offer: %w", err)
		}
		return s.transition(tx, order, []models.OrderStatus{models.StatusAwaitingOffer, models.StatusOfferMade},
			map[string]interface{}{"status": models.StatusOfferMade})
	})
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusOfferMade

	template := TemplateOfferReceived
	event := "offer_made"
	if wasUpdate {
		template = TemplateOfferUpdated
		event = "offer_updated"
	}
	s.afterTransition(order, event, template, order.ClientEmail, map[string]string{
		"order_code": order.OrderCode,
		"actor_name": order.Actor.Name,
		"price":      formatPrice(price),
	})
	return &offer, nil
}

// LatestOffer returns the offer with behavioral effect: the one with the
// greatest store-assigned ID.
func (s *LifecycleService) LatestOffer(orderID uint) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.Where("order_id = ?", orderID).Order("id DESC").First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOffer
		}
		return nil, fmt.Errorf("failed to load latest offer: %w", err)
	}
	return &offer, nil
}

// AcceptOffer copies the latest offer's price onto the order and moves it to
// awaiting_payment. The actor notification is best-effort and never rolls
// the acceptance back.
func (s *LifecycleService) AcceptOffer(orderCode, clientEmail string) (*models.Order, error) {
	order, err := s.ClientOrder(orderCode, clientEmail)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusOfferMade {
		return nil, ErrInvalidTransition
	}

	offer, err := s.LatestOffer(order.ID)
	if err != nil {
		return nil, err
	}

	err = s.transition(s.db, order, []models.OrderStatus{models.StatusOfferMade}, map[string]interface{}{
		"status":      models.StatusAwaitingPayment,
		"total_price": offer.Price,
	})
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusAwaitingPayment
	order.TotalPrice = &offer.Price

	s.afterTransition(order, "offer_accepted", TemplateOfferAccepted, order.Actor.Email, map[string]string{
		"order_code": order.OrderCode,
		"price":      formatPrice(offer.Price),
	})
	return order, nil
}

// CreateCardPayment asks the gateway for a one-time charge secret. Gateway
// failure surfaces to the caller with the order untouched in
// awaiting_payment.
func (s *LifecycleService) CreateCardPayment(orderCode, clientEmail, currency string) (*PaymentIntent, error) {
	order, err := s.ClientOrder(orderCode, clientEmail)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAwaitingPayment {
		return nil, ErrInvalidTransition
	}
	if order.TotalPrice == nil {
		return nil, ErrPriceNotSet
	}

	intent, err := s.gateway.CreateIntent(AmountCents(*order.TotalPrice), currency, order.OrderCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	return intent, nil
}

// ConfirmCardPayment verifies the client-reported charge with the gateway,
// then moves the order to in_progress with the intent recorded.
func (s *LifecycleService) ConfirmCardPayment(orderCode, clientEmail, intentID string) (*models.Order, error) {
	order, err := s.ClientOrder(orderCode, clientEmail)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAwaitingPayment {
		return nil, ErrInvalidTransition
	}
	if order.TotalPrice == nil {
		return nil, ErrPriceNotSet
	}

	succeeded, err := s.gateway.VerifyCharge(intentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if !succeeded {
		return nil, ErrPaymentNotConfirmed
	}

	err = s.transition(s.db, order, []models.OrderStatus{models.StatusAwaitingPayment}, map[string]interface{}{
		"status":            models.StatusInProgress,
		"payment_method":    models.PaymentStripe,
		"payment_intent_id": intentID,
	})
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusInProgress
	method := models.PaymentStripe
	order.PaymentMethod = &method
	order.PaymentIntentID = &intentID

	s.afterTransition(order, "payment_received", TemplatePaymentReceived, order.Actor.Email, map[string]string{
		"order_code":  order.OrderCode,
		"total_price": formatPrice(*order.TotalPrice),
	})
	return order, nil
}

// MarkAsPaid records the client's declaration of a manual bank transfer.
// Confirmation routes to the actor when they receive payments directly, to an
// admin otherwise; only the direct case fires a notification.
func (s *LifecycleService) MarkAsPaid(orderCode, clientEmail string) (*models.Order, error) {
	order, err := s.ClientOrder(orderCode, clientEmail)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAwaitingPayment {
		return nil, ErrInvalidTransition
	}
	if order.TotalPrice == nil {
		return nil, ErrPriceNotSet
	}

	target := models.StatusAwaitingAdminConfirmation
	if order.Actor.DirectPaymentEnabled {
		target = models.StatusAwaitingActorConfirmation
	}

	err = s.transition(s.db, order, []models.OrderStatus{models.StatusAwaitingPayment}, map[string]interface{}{
		"status":         target,
		"payment_method": models.PaymentBank,
	})
	if err != nil {
		return nil, err
	}
	order.Status = target
	method := models.PaymentBank
	order.PaymentMethod = &method

	if target == models.StatusAwaitingActorConfirmation {
		s.afterTransition(order, "bank_transfer_declared", TemplateBankTransferDeclared, order.Actor.Email, map[string]string{
			"order_code":  order.OrderCode,
			"total_price": formatPrice(*order.TotalPrice),
		})
	} else {
		s.afterTransition(order, "bank_transfer_declared", "", "", nil)
	}
	return order, nil
}

// ConfirmBankReceipt is the actor acknowledging the money arrived. The guard
// on awaiting_actor_confirmation makes a racing admin cancel lose cleanly.
func (s *LifecycleService) ConfirmBankReceipt(orderCode string, actorID uint) (*models.Order, error) {
	order, err := s.ActorOrder(orderCode, actorID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAwaitingActorConfirmation {
		return nil, ErrInvalidTransition
	}

	err = s.transition(s.db, order, []models.OrderStatus{models.StatusAwaitingActorConfirmation},
		map[string]interface{}{"status": models.StatusInProgress})
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusInProgress

	s.afterTransition(order, "payment_confirmed", TemplatePaymentConfirmed, order.ClientEmail, map[string]string{
		"order_code": order.OrderCode,
	})
	return order, nil
}

// ConfirmAdminReceipt is the admin counterpart for actors without direct
// payment.
func (s *LifecycleService) ConfirmAdminReceipt(orderCode string) (*models.Order, error) {
	order, err := s.orderByCode(orderCode)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAwaitingAdminConfirmation {
		return nil, ErrInvalidTransition
	}

	err = s.transition(s.db, order, []models.OrderStatus{models.StatusAwaitingAdminConfirmation},
		map[string]interface{}{"status": models.StatusInProgress})
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusInProgress

	s.afterTransition(order, "payment_confirmed", TemplatePaymentConfirmed, order.ClientEmail, map[string]string{
		"order_code": order.OrderCode,
	})
	return order, nil
}

// nonDeliverableStatuses are the states in which a delivery makes no sense:
// the engagement either has no agreed work yet or is closed. Re-delivering
// while a version is pending approval is allowed.
var nonDeliverableStatuses = []models.OrderStatus{
	models.StatusAwaitingOffer,
	models.StatusOfferMade,
	models.StatusAwaitingPayment,
	models.StatusCompleted,
	models.StatusCancelled,
}

// Deliver appends a versioned delivery and moves the order to
// pending_approval. The version number is assigned while holding a row lock
// on the parent order, so concurrent submissions cannot collide.
func (s *LifecycleService) Deliver(orderCode string, actorID uint, fileKey, fileURL *string, note string) (*models.Delivery, error) {
	order, err := s.ActorOrder(orderCode, actorID)
	if err != nil {
		return nil, err
	}
	for _, blocked := range nonDeliverableStatuses {
		if order.Status == blocked {
			return nil, ErrInvalidTransition
		}
	}
	if (fileKey == nil || *fileKey == "") && (fileURL == nil || *fileURL == "") {
		return nil, ErrDeliveryAssetRequired
	}

	var delivery models.Delivery
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Lock the parent order row; the version count is only stable while
		// we hold it.
		var locked models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", order.ID).First(&locked).Error
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		for _, blocked := range nonDeliverableStatuses {
			if locked.Status == blocked {
				return ErrConflict
			}
		}

		var count int64
		if err := tx.Model(&models.Delivery{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count deliveries: %w", err)
		}

		delivery = models.Delivery{
			OrderID:       order.ID,
			VersionNumber: int(count) + 1,
			FileKey:       fileKey,
			FileURL:       fileURL,
			Note:          note,
		}
		if err := tx.Create(&delivery).Error; err != nil {
			return fmt.Errorf("failed to create delivery: %w", err)
		}

		return s.transition(tx, order, []models.OrderStatus{locked.Status},
			map[string]interface{}{"status": models.StatusPendingApproval})
	})
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusPendingApproval

	s.afterTransition(order, "delivered", TemplateDeliveryReady, order.ClientEmail, map[string]string{
		"order_code": order.OrderCode,
		"version":    strconv.Itoa(delivery.VersionNumber),
	})
	return &delivery, nil
}

// LatestDelivery returns the delivery the client reviews: greatest ID.
func (s *LifecycleService) LatestDelivery(orderID uint) (*models.Delivery, error) {
	var delivery models.Delivery
	err := s.db.Where("order_id = ?", orderID).Order("id DESC").First(&delivery).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load latest delivery: %w", err)
	}
	return &delivery, nil
}

// AcceptDelivery completes the order. No notification is required; completion
// unlocks review eligibility.
func (s *LifecycleService) AcceptDelivery(orderCode, clientEmail string) (*models.Order, error) {
	order, err := s.ClientOrder(orderCode, clientEmail)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPendingApproval {
		return nil, ErrInvalidTransition
	}

	err = s.transition(s.db, order, []models.OrderStatus{models.StatusPendingApproval},
		map[string]interface{}{"status": models.StatusCompleted})
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusCompleted

	s.afterTransition(order, "completed", "", "", nil)
	return order, nil
}

// RequestRevision rejects the current delivery. The revision counter is part
// of the guard, so two racing requests cannot both consume the same slot.
func (s *LifecycleService) RequestRevision(orderCode, clientEmail string) (*models.Order, error) {
	order, err := s.ClientOrder(orderCode, clientEmail)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPendingApproval {
		return nil, ErrInvalidTransition
	}
	if order.RevisionsUsed >= order.RevisionsAllowed {
		return nil, ErrRevisionsExhausted
	}

	result := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ? AND revisions_used = ?", order.ID, models.StatusPendingApproval, order.RevisionsUsed).
		Updates(map[string]interface{}{
			"status":         models.StatusInProgress,
			"revisions_used": order.RevisionsUsed + 1,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to request revision: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrConflict
	}
	order.Status = models.StatusInProgress
	order.RevisionsUsed++

	s.afterTransition(order, "revision_requested", TemplateRevisionRequested, order.Actor.Email, map[string]string{
		"order_code":        order.OrderCode,
		"revisions_used":    strconv.Itoa(order.RevisionsUsed),
		"revisions_allowed": strconv.Itoa(order.RevisionsAllowed),
	})
	return order, nil
}

// SubmitReview records the client's rating on a completed order. A second
// attempt reports ErrAlreadyReviewed and leaves the store unchanged.
func (s *LifecycleService) SubmitReview(orderCode, clientEmail string, rating int, comment *string) (*models.Review, error) {
	order, err := s.ClientOrder(orderCode, clientEmail)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusCompleted {
		return nil, ErrInvalidTransition
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	var existing int64
	if err := s.db.Model(&models.Review{}).Where("order_id = ?", order.ID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check for existing review: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyReviewed
	}

	review := models.Review{
		OrderID: order.ID,
		Rating:  rating,
		Comment: comment,
	}
	if err := s.db.Create(&review).Error; err != nil {
		// Two submissions can race past the count; the unique index settles it.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return &review, nil
}

// CancelOrder is the administrative cancellation, reachable from any
// non-terminal state.
func (s *LifecycleService) CancelOrder(orderCode string) (*models.Order, error) {
	order, err := s.orderByCode(orderCode)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	err = s.transition(s.db, order, []models.OrderStatus{order.Status},
		map[string]interface{}{"status": models.StatusCancelled})
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusCancelled

	s.afterTransition(order, "cancelled", "", "", nil)
	return order, nil
}

// ClientOrder loads an order for an unauthenticated client. A wrong email is
// indistinguishable from a missing order.
func (s *LifecycleService) ClientOrder(orderCode, clientEmail string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Actor").
		Where("order_code = ? AND client_email = ?", orderCode, clientEmail).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// ActorOrder loads an order and checks it belongs to the given actor.
func (s *LifecycleService) ActorOrder(orderCode string, actorID uint) (*models.Order, error) {
	order, err := s.orderByCode(orderCode)
	if err != nil {
		return nil, err
	}
	if order.ActorID != actorID {
		return nil, ErrNotOrderActor
	}
	return order, nil
}

func (s *LifecycleService) orderByCode(orderCode string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Actor").Where("order_code = ?", orderCode).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// transition performs the optimistic conditional update: the patch applies
// only while the row still holds one of the expected statuses.
func (s *LifecycleService) transition(tx *gorm.DB, order *models.Order, expected []models.OrderStatus, patch map[string]interface{}) error {
	if target, ok := patch["status"].(models.OrderStatus); ok {
		legal := false
		for _, from := range expected {
			if from.CanTransitionTo(target) {
				legal = true
				break
			}
		}
		if !legal {
			return ErrInvalidTransition
		}
	}

	result := tx.Model(&models.Order{}).
		Where("id = ? AND status IN ?", order.ID, expected).
		Updates(patch)
	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// afterTransition runs the post-commit side effects: publish the change
// event, then fire the notification. Neither failure propagates; a provider
// who never got an email must not also lose a confirmed payment.
func (s *LifecycleService) afterTransition(order *models.Order, event string, template NotificationTemplate, to string, params map[string]string) {
	if s.events != nil {
		err := s.events.PublishOrderChange(context.Background(), OrderEvent{
			OrderCode: order.OrderCode,
			Status:    order.Status,
			Event:     event,
			ChangedAt: time.Now(),
		})
		if err != nil {
			log.WithError(err).WithField("order_code", order.OrderCode).Warn("order event publish failed")
		}
	}
	if template != "" {
		s.notify(template, to, params)
	}
}

func (s *LifecycleService) notify(template NotificationTemplate, to string, params map[string]string) {
	if s.notifier == nil || to == "" {
		return
	}
	if err := s.notifier.Send(template, to, params); err != nil {
		log.WithError(err).WithFields(log.Fields{"template": template, "to": to}).
			Warn("notification failed")
	}
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}
