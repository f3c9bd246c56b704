package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
)

// OrderRepository handles database operations for Order and OrderItem.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create persists a new order record.
func (r *OrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// CreateItems persists the line items for an order.
func (r *OrderRepository) CreateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// FindByOrderID looks up an order by its public identifier. Returns
// (nil, nil) when no such order exists.
func (r *OrderRepository) FindByOrderID(orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("order_id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ItemsFor returns the line items belonging to an order.
func (r *OrderRepository) ItemsFor(order *models.Order) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.Where("order_ref = ?", order.ID).Find(&items).Error
	return items, err
}

// MarkCompleted transitions an order from pending to completed, recording
// the payment reference and completion time. The conditional status check
// makes verification idempotent: a second call affects zero rows, so stock
// is never decremented twice for the same order.
func (r *OrderRepository) MarkCompleted(orderID, paymentRef string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Order{}).
		Where("order_id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]any{
			"status":            models.OrderStatusCompleted,
			"payment_reference": paymentRef,
			"completed_at":      now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
