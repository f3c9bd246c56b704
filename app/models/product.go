package models

import "time"

// Product is one purchasable coffee from the fixed catalog. Products are
// never deleted; a product with zero stock is simply excluded from the
// public listing.
type Product struct {
	ID            uint      `gorm:"primaryKey"                     json:"id"`
	Name          string    `gorm:"size:255;not null;uniqueIndex"  json:"name"`
	Price         float64   `gorm:"not null"                       json:"price"`
	Description   string    `gorm:"type:text"                      json:"description"`
	ImagePath     string    `gorm:"size:255"                       json:"image_path"`
	StockQuantity int       `gorm:"not null;default:100"           json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}
