package models

import (
	"time"
)

// Delivery is an immutable, versioned work-product submission. Exactly one of
// FileKey (platform storage) or FileURL (external link) is set. Version
// numbers are assigned under a row lock on the parent order, so they are
// unique and increasing per order even under concurrent submissions; the
// composite unique index is a backstop for that invariant.
type Delivery struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	OrderID       uint    `gorm:"not null;index;uniqueIndex:idx_deliveries_order_version" json:"order_id"`
	Order         Order   `gorm:"foreignKey:OrderID" json:"-"`
	VersionNumber int     `gorm:"not null;uniqueIndex:idx_deliveries_order_version" json:"version_number"`
	FileKey       *string `json:"file_key,omitempty"` // storage key for uploaded files
	FileURL       *string `json:"file_url,omitempty"` // external link deliveries
	Note          string  `gorm:"type:text" json:"note"`

	DownloadURL string `gorm:"-" json:"download_url,omitempty"` // computed, presigned

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Delivery model
func (Delivery) TableName() string {
	return "deliveries"
}
