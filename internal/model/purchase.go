package model

import "time"

// Purchase grants a user access to a dataset. At most one exists per
// (user, dataset) pair, enforced by the composite unique index.
type Purchase struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_purchase_user_dataset"`
	DatasetID   uint      `json:"dataset_id" gorm:"not null;uniqueIndex:idx_purchase_user_dataset;index"`
	PurchasedAt time.Time `json:"purchased_at" gorm:"not null;index"`

	User    User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Dataset Dataset `json:"-" gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`
}

// PurchasedDataset is a dataset row joined with the time it was bought.
type PurchasedDataset struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// PurchaseRecord is the admin view of a purchase.
type PurchaseRecord struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	Email        string    `json:"email"`
	BuyerName    string    `json:"buyer_name"`
	DatasetID    uint      `json:"dataset_id"`
	DatasetTitle string    `json:"dataset_title"`
	PurchasedAt  time.Time `json:"purchased_at"`
}

// DailyCount is one bucket of the uploads-by-date series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
