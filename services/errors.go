package services

import "errors"

// Sentinel errors for the lifecycle engine. Controllers map these to stable
// HTTP error codes; none of them leaves any state mutated.
var (
	// ErrOrderNotFound covers both a missing order and a client email that
	// does not match the order, so callers cannot probe for codes.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition is a precondition violation: the order is not in a
	// state from which the requested action is allowed.
	ErrInvalidTransition = errors.New("action not allowed in the order's current state")

	// ErrConflict means the conditional update found the status already
	// changed by another session. Callers should re-fetch and re-present the
	// new state, never retry with stale assumptions.
	ErrConflict = errors.New("order was modified concurrently")

	// ErrNoOffer means an accept was attempted with no offer on record.
	ErrNoOffer = errors.New("no offer exists for this order")

	// ErrPriceNotSet guards payment collection on an unpriced order.
	ErrPriceNotSet = errors.New("order has no price set")

	// ErrRevisionsExhausted means the revision cap has been reached.
	ErrRevisionsExhausted = errors.New("no revisions remaining on this order")

	// ErrPaymentNotConfirmed means the gateway reports the charge as not
	// succeeded.
	ErrPaymentNotConfirmed = errors.New("payment has not been confirmed by the gateway")

	// ErrAlreadyReviewed means a review already exists for the order.
	ErrAlreadyReviewed = errors.New("order has already been reviewed")

	// ErrDeliveryAssetRequired means a delivery carried neither a file nor a
	// link.
	ErrDeliveryAssetRequired = errors.New("a delivery requires a file or a link")

	// ErrNotOrderActor means the authenticated actor does not own the order.
	ErrNotOrderActor = errors.New("order is not assigned to this actor")

	// ErrPaymentGateway wraps gateway transport failures, distinct from a
	// charge that legitimately has not succeeded.
	ErrPaymentGateway = errors.New("payment gateway unavailable")
)
