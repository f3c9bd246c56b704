package migrations

import (
	"gorm.io/gorm"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/migration"
)

func init() {
	migration.Register("20260301000000_create_products_table", &CreateProductsTable{})
	migration.Register("20260301000001_create_orders_table", &CreateOrdersTable{})
	migration.Register("20260301000002_create_order_items_table", &CreateOrderItemsTable{})
	migration.Register("20260510000000_add_shipping_amount_to_orders", &AddShippingAmountToOrders{})
	migration.Register("20260601000000_create_admin_users_table", &CreateAdminUsersTable{})
}

// -------- 0001: products --------

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products")
}

// -------- 0002: orders --------

type CreateOrdersTable struct{}

func (m *CreateOrdersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{})
}

func (m *CreateOrdersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("orders")
}

// -------- 0003: order_items --------

type CreateOrderItemsTable struct{}

func (m *CreateOrderItemsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.OrderItem{})
}

func (m *CreateOrderItemsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("order_items")
}

// -------- 0004: shipping_amount --------

// AddShippingAmountToOrders backfills the shipping column on deployments
// created before shipping was itemized. Orders from that era were all
// charged the flat default, so the backfill uses it.
type AddShippingAmountToOrders struct{}

func (m *AddShippingAmountToOrders) Up(db *gorm.DB) error {
	// Safe to re-run: AutoMigrate elsewhere may already have added the
	// column.
	if db.Migrator().HasColumn(&models.Order{}, "shipping_amount") {
		return nil
	}
	if err := db.Migrator().AddColumn(&models.Order{}, "ShippingAmount"); err != nil {
		return err
	}
	return db.Model(&models.Order{}).Where("shipping_amount IS NULL OR shipping_amount = 0").
		Update("shipping_amount", 5.0).Error
}

func (m *AddShippingAmountToOrders) Down(db *gorm.DB) error {
	if !db.Migrator().HasColumn(&models.Order{}, "shipping_amount") {
		return nil
	}
	return db.Migrator().DropColumn(&models.Order{}, "ShippingAmount")
}

// -------- 0005: admin_users --------

type CreateAdminUsersTable struct{}

func (m *CreateAdminUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.AdminUser{})
}

func (m *CreateAdminUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("admin_users")
}
