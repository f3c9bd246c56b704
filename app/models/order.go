package models

import "time"

// OrderStatus is the lifecycle state of an order. There are exactly two:
// pending orders hold no stock and await payment verification; completed
// orders have had payment confirmed and stock decremented atomically.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

// Order is one customer purchase. OrderID is the public identifier handed
// back to the front end; the numeric primary key never leaves the API.
type Order struct {
	ID               uint        `gorm:"primaryKey"                        json:"-"`
	OrderID          string      `gorm:"size:36;not null;uniqueIndex"      json:"order_id"`
	CustomerEmail    string      `gorm:"size:255;not null"                 json:"customer_email"`
	CustomerName     string      `gorm:"size:100;not null"                 json:"customer_name"`
	TotalAmount      float64     `gorm:"not null"                          json:"total_amount"`
	ShippingAmount   float64     `gorm:"not null;default:5"                json:"shipping_amount"`
	Status           OrderStatus `gorm:"size:20;not null;default:pending"  json:"status"`
	PaymentReference *string     `gorm:"size:64;uniqueIndex"               json:"payment_reference,omitempty"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderRef;references:ID" json:"items,omitempty"`
}

// OrderItem is one line of an order. UnitPrice is captured at purchase time
// so later catalog price changes never rewrite history.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"          json:"-"`
	OrderRef  uint    `gorm:"index;not null"      json:"-"`
	ProductID uint    `gorm:"not null"            json:"product_id"`
	Name      string  `gorm:"size:255;not null"   json:"name"`
	Quantity  int     `gorm:"not null"            json:"quantity"`
	UnitPrice float64 `gorm:"not null"            json:"unit_price"`
}

// Subtotal is the items total excluding shipping.
func (o *Order) Subtotal() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += it.UnitPrice * float64(it.Quantity)
	}
	return sum
}
