package models

// OrderStatus is the closed set of lifecycle states an order can be in.
// Any value outside this set is rejected at the store boundary (see
// Order.BeforeSave).
type OrderStatus string

const (
	StatusAwaitingOffer             OrderStatus = "awaiting_offer"
	StatusOfferMade                 OrderStatus = "offer_made"
	StatusAwaitingPayment           OrderStatus = "awaiting_payment"
	StatusAwaitingActorConfirmation OrderStatus = "awaiting_actor_confirmation"
	StatusAwaitingAdminConfirmation OrderStatus = "awaiting_admin_confirmation"
	StatusInProgress                OrderStatus = "in_progress"
	StatusPendingApproval           OrderStatus = "pending_approval"
	StatusCompleted                 OrderStatus = "completed"
	StatusCancelled                 OrderStatus = "cancelled"
)

// orderTransitions is the authoritative transition table. A status change is
// legal only if the target appears in the source's entry. Cancellation is
// additionally allowed from every non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusAwaitingOffer:             {StatusOfferMade},
	StatusOfferMade:                 {StatusOfferMade, StatusAwaitingPayment},
	StatusAwaitingPayment:           {StatusInProgress, StatusAwaitingActorConfirmation, StatusAwaitingAdminConfirmation},
	StatusAwaitingActorConfirmation: {StatusInProgress, StatusPendingApproval},
	StatusAwaitingAdminConfirmation: {StatusInProgress, StatusPendingApproval},
	StatusInProgress:                {StatusPendingApproval},
	StatusPendingApproval:           {StatusInProgress, StatusPendingApproval, StatusCompleted},
	StatusCompleted:                 {},
	StatusCancelled:                 {},
}

// IsValid reports whether s is a member of the status enum.
func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the transition table allows moving from s
// to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if target == StatusCancelled {
		return !s.IsTerminal()
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ServiceType classifies an order and decides which quote fields apply.
type ServiceType string

const (
	ServiceVoiceOver     ServiceType = "voice_over"
	ServiceScriptwriting ServiceType = "scriptwriting"
	ServiceVideoEditing  ServiceType = "video_editing"
)

// IsValid reports whether t is a known service type.
func (t ServiceType) IsValid() bool {
	switch t {
	case ServiceVoiceOver, ServiceScriptwriting, ServiceVideoEditing:
		return true
	}
	return false
}

// SenderRole identifies which side of an order sent a message.
type SenderRole string

const (
	RoleClient SenderRole = "client"
	RoleActor  SenderRole = "actor"
)

// IsValid reports whether r is a known sender role.
func (r SenderRole) IsValid() bool {
	return r == RoleClient || r == RoleActor
}

// Other returns the opposite side of the conversation.
func (r SenderRole) Other() SenderRole {
	if r == RoleClient {
		return RoleActor
	}
	return RoleClient
}

// PaymentMethod is how the client settled an order.
type PaymentMethod string

const (
	PaymentStripe PaymentMethod = "stripe"
	PaymentBank   PaymentMethod = "bank"
)

// UsageRights selects the voice-over pricing multiplier.
type UsageRights string

const (
	UsageWeb       UsageRights = "web"
	UsageBroadcast UsageRights = "broadcast"
)

// IsValid reports whether u is a known usage-rights selector.
func (u UsageRights) IsValid() bool {
	return u == UsageWeb || u == UsageBroadcast
}
