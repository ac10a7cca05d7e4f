package models

import (
	"time"
)

// Offer is an immutable price/terms proposal from the actor. Offers are an
// append-only log per order: an "updated" offer is a new row, never an edit.
// The latest offer (greatest ID, store-assigned) is the only one with any
// behavioral effect.
type Offer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Order     Order     `gorm:"foreignKey:OrderID" json:"-"`
	Title     string    `gorm:"not null" json:"title"`
	Agreement string    `gorm:"type:text" json:"agreement"`
	Price     float64   `gorm:"not null;check:price > 0" json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Offer model
func (Offer) TableName() string {
	return "offers"
}
