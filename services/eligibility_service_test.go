package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxmarket/voxmarket-api/models"
)

func floatPtr(f float64) *float64 { return &f }

func TestEvaluateEligibility(t *testing.T) {
	tests := []struct {
		name      string
		completed int64
		avgRating *float64
		requested bool
		enabled   bool
		expected  EligibilityStatus
	}{
		{
			name:      "new actor with nothing",
			completed: 0,
			avgRating: nil,
			expected:  EligibilityNotEligible,
		},
		{
			name:      "one completed order, rating above threshold",
			completed: 1,
			avgRating: floatPtr(3.5),
			expected:  EligibilityEligibleCanRequest,
		},
		{
			name:      "rating exactly at threshold is not enough",
			completed: 1,
			avgRating: floatPtr(3.0),
			expected:  EligibilityNotEligible,
		},
		{
			name:      "completed orders but no reviews",
			completed: 5,
			avgRating: nil,
			expected:  EligibilityNotEligible,
		},
		{
			name:      "good rating without completed orders",
			completed: 0,
			avgRating: floatPtr(5.0),
			expected:  EligibilityNotEligible,
		},
		{
			name:      "requested stays pending regardless of aggregates",
			completed: 0,
			avgRating: floatPtr(1.0),
			requested: true,
			expected:  EligibilityRequestedPending,
		},
		{
			name:      "enabled wins over everything",
			completed: 0,
			avgRating: nil,
			requested: true,
			enabled:   true,
			expected:  EligibilityEnabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateEligibility(tt.completed, tt.avgRating, tt.requested, tt.enabled)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestActorStats(t *testing.T) {
	db := setupServiceTestDB(t)
	actor := seedActor(t, db, "auth0|stats-actor", "stats@example.com")

	// No orders or reviews yet.
	completed, avg, err := ActorStats(db, actor.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), completed)
	assert.Nil(t, avg)

	// Two completed orders, one still in progress.
	orderA := seedOrder(t, db, actor, models.StatusCompleted)
	orderB := seedOrder(t, db, actor, models.StatusCompleted)
	seedOrder(t, db, actor, models.StatusInProgress)

	assert.NoError(t, db.Create(&models.Review{OrderID: orderA.ID, Rating: 4}).Error)
	assert.NoError(t, db.Create(&models.Review{OrderID: orderB.ID, Rating: 5}).Error)

	completed, avg, err = ActorStats(db, actor.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), completed)
	if assert.NotNil(t, avg) {
		assert.InDelta(t, 4.5, *avg, 0.0001)
	}
}

func TestActorStats_OtherActorsExcluded(t *testing.T) {
	db := setupServiceTestDB(t)
	actor := seedActor(t, db, "auth0|actor-a", "a@example.com")
	other := seedActor(t, db, "auth0|actor-b", "b@example.com")

	otherOrder := seedOrder(t, db, other, models.StatusCompleted)
	assert.NoError(t, db.Create(&models.Review{OrderID: otherOrder.ID, Rating: 5}).Error)

	completed, avg, err := ActorStats(db, actor.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), completed)
	assert.Nil(t, avg)
}

func TestRequestDirectPayment(t *testing.T) {
	db := setupServiceTestDB(t)
	actor := seedActor(t, db, "auth0|req-actor", "req@example.com")

	// Not eligible yet: the request must be rejected and the flag untouched.
	status, err := RequestDirectPayment(db, actor)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, EligibilityNotEligible, status)
	assert.False(t, actor.DirectPaymentRequested)

	// Make the actor eligible.
	order := seedOrder(t, db, actor, models.StatusCompleted)
	assert.NoError(t, db.Create(&models.Review{OrderID: order.ID, Rating: 4}).Error)

	status, err = RequestDirectPayment(db, actor)
	assert.NoError(t, err)
	assert.Equal(t, EligibilityRequestedPending, status)
	assert.True(t, actor.DirectPaymentRequested)

	var stored models.User
	assert.NoError(t, db.First(&stored, actor.ID).Error)
	assert.True(t, stored.DirectPaymentRequested)

	// A second request stays pending but is not a valid transition.
	status, err = RequestDirectPayment(db, actor)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, EligibilityRequestedPending, status)
}
