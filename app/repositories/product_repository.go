package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
)

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// ListAvailable returns all products with stock remaining, in catalog
// order.
func (r *ProductRepository) ListAvailable() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("stock_quantity > 0").Order("id asc").Find(&products).Error
	return products, err
}

// All returns the full catalog regardless of stock.
func (r *ProductRepository) All() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Order("id asc").Find(&products).Error
	return products, err
}

// FindByID looks up a product by primary key. Returns (nil, nil) when the
// product does not exist.
func (r *ProductRepository) FindByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByName looks up a product by its exact catalog name. Returns
// (nil, nil) when no such product exists.
func (r *ProductRepository) FindByName(name string) (*models.Product, error) {
	var product models.Product
	err := r.db.Where("name = ?", name).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SetStock overwrites a product's stock level. Returns false when the
// product does not exist.
func (r *ProductRepository) SetStock(id uint, quantity int) (bool, error) {
	res := r.db.Model(&models.Product{}).Where("id = ?", id).
		Update("stock_quantity", quantity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecrementStock atomically reserves quantity units of a product. The
// conditional WHERE guarantees stock never goes negative even under
// concurrent checkouts: zero rows affected means insufficient stock.
func (r *ProductRepository) DecrementStock(id uint, quantity int) (bool, error) {
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
