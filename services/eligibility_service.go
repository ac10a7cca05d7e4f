package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/voxmarket/voxmarket-api/models"
)

// EligibilityStatus is where an actor stands on direct-to-actor payment.
type EligibilityStatus string

const (
	EligibilityNotEligible        EligibilityStatus = "not_eligible"
	EligibilityEligibleCanRequest EligibilityStatus = "eligible_can_request"
	EligibilityRequestedPending   EligibilityStatus = "requested_pending"
	EligibilityEnabled            EligibilityStatus = "enabled"
)

// Direct-payment thresholds: at least one completed order and an average
// rating strictly above 3.0.
const (
	eligibilityMinCompleted = 1
	eligibilityMinRating    = 3.0
)

// EvaluateEligibility is a pure function of the actor's aggregates and flags.
// An enabled actor stays enabled; a requested-but-not-enabled actor is
// pending regardless of how its aggregates have since moved; otherwise the
// thresholds decide. avgRating is nil when the actor has no reviews.
func EvaluateEligibility(completedOrders int64, avgRating *float64, requested, enabled bool) EligibilityStatus {
	if enabled {
		return EligibilityEnabled
	}
	if requested {
		return EligibilityRequestedPending
	}
	if completedOrders >= eligibilityMinCompleted && avgRating != nil && *avgRating > eligibilityMinRating {
		return EligibilityEligibleCanRequest
	}
	return EligibilityNotEligible
}

// ActorStats returns the aggregates the evaluator consumes: the actor's
// completed-order count and average review rating (nil with no reviews).
func ActorStats(db *gorm.DB, actorID uint) (int64, *float64, error) {
	var completed int64
	err := db.Model(&models.Order{}).
		Where("actor_id = ? AND status = ?", actorID, models.StatusCompleted).
		Count(&completed).Error
	if err != nil {
		return 0, nil, fmt.Errorf("failed to count completed orders: %w", err)
	}

	var result struct {
		Avg   float64
		Total int64
	}
	err = db.Model(&models.Review{}).
		Select("COALESCE(AVG(reviews.rating), 0) AS avg, COUNT(reviews.id) AS total").
		Joins("JOIN orders ON orders.id = reviews.order_id").
		Where("orders.actor_id = ?", actorID).
		Scan(&result).Error
	if err != nil {
		return 0, nil, fmt.Errorf("failed to compute average rating: %w", err)
	}

	if result.Total == 0 {
		return completed, nil, nil
	}
	avg := result.Avg
	return completed, &avg, nil
}

// ActorEligibility combines the aggregates with the actor's flags.
func ActorEligibility(db *gorm.DB, actor *models.User) (EligibilityStatus, error) {
	completed, avg, err := ActorStats(db, actor.ID)
	if err != nil {
		return "", err
	}
	return EvaluateEligibility(completed, avg, actor.DirectPaymentRequested, actor.DirectPaymentEnabled), nil
}

// RequestDirectPayment flips the actor's one-way request flag. The core never
// reverses it; only an external admin action sets direct_payment_enabled.
func RequestDirectPayment(db *gorm.DB, actor *models.User) (EligibilityStatus, error) {
	status, err := ActorEligibility(db, actor)
	if err != nil {
		return "", err
	}
	if status != EligibilityEligibleCanRequest {
		return status, ErrInvalidTransition
	}

	if err := db.Model(actor).Update("direct_payment_requested", true).Error; err != nil {
		return status, fmt.Errorf("failed to record direct payment request: %w", err)
	}
	actor.DirectPaymentRequested = true
	return EligibilityRequestedPending, nil
}
