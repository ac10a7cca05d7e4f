package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Order is the central aggregate: one client/actor engagement for one
// service. The status column only ever holds values from the OrderStatus
// enum; BeforeSave rejects anything else before it reaches the store.
type Order struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OrderCode string `gorm:"uniqueIndex;not null" json:"order_code"` // client-visible, immutable

	ServiceType ServiceType `gorm:"not null" json:"service_type"` // voice_over, scriptwriting, video_editing

	// Client identity. Clients are unauthenticated; email is the durable
	// correlation key.
	ClientName  string `gorm:"not null" json:"client_name"`
	ClientEmail string `gorm:"not null;index" json:"client_email"`

	ActorID uint `gorm:"not null;index" json:"actor_id"`
	Actor   User `gorm:"foreignKey:ActorID" json:"actor"`

	// Scope payload. Script carries the script body for voice-over orders and
	// the project description for the other two service types.
	Script           string       `gorm:"type:text" json:"script"`
	WordCount        *int         `json:"word_count,omitempty"`
	UsageRights      *UsageRights `json:"usage_rights,omitempty"`
	EstimatedMinutes *int         `json:"estimated_minutes,omitempty"`
	VideoType        *string      `json:"video_type,omitempty"`
	FootageProvided  *bool        `json:"footage_provided,omitempty"`

	TotalPrice      *float64       `json:"total_price"` // nullable until an offer is accepted or a direct price is computed
	PaymentMethod   *PaymentMethod `json:"payment_method"`
	PaymentIntentID *string        `json:"payment_intent_id,omitempty"` // card payments only

	Status           OrderStatus `gorm:"not null;default:'awaiting_offer'" json:"status"`
	RevisionsUsed    int         `gorm:"not null;default:0" json:"revisions_used"`
	RevisionsAllowed int         `gorm:"not null" json:"revisions_allowed"` // snapshot of the actor's setting at creation

	// Chat/unread state, maintained by the unread tracker.
	LastMessageSenderRole *SenderRole `json:"last_message_sender_role"`
	ClientHasUnread       bool        `gorm:"not null;default:false" json:"client_has_unread"`
	ActorHasUnread        bool        `gorm:"not null;default:false" json:"actor_has_unread"`
	NotificationDueAt     *time.Time  `json:"notification_due_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeSave rejects enum values the transition table does not know about.
// Map-based Updates leave the receiver zero-valued, so empty fields are not
// checked here.
func (o *Order) BeforeSave(tx *gorm.DB) error {
	if o.Status != "" && !o.Status.IsValid() {
		return fmt.Errorf("invalid order status %q", o.Status)
	}
	if o.ServiceType != "" && !o.ServiceType.IsValid() {
		return fmt.Errorf("invalid service type %q", o.ServiceType)
	}
	return nil
}
