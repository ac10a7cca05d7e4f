package models

import (
	"time"
)

// Review is the client's rating of a completed order. At most one review
// exists per order; the unique index makes a duplicate insert fail, which the
// lifecycle service reports as "already reviewed" rather than an error.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	Order     Order     `gorm:"foreignKey:OrderID" json:"-"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}
