package models

import (
	"time"

	"gorm.io/gorm"
)

// Message represents a message in an order conversation. Senders are
// identified by role rather than account: clients have no account, so the
// order itself pins who "client" means.
type Message struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	OrderID    uint           `gorm:"not null;index" json:"order_id"`
	Order      Order          `gorm:"foreignKey:OrderID" json:"-"`
	SenderRole SenderRole     `gorm:"not null" json:"sender_role"`
	Text       string         `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}
