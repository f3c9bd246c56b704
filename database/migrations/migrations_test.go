package migrations_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/database/migrations"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/database"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/migration"
)

func TestMigrationsAreRepeatable(t *testing.T) {
	db, err := database.OpenWith("sqlite", filepath.Join(t.TempDir(), "mig.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	runner := migration.New(db)
	require.NoError(t, runner.Run())

	for _, table := range []string{"products", "orders", "order_items", "admin_users"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}
	assert.True(t, db.Migrator().HasColumn(&models.Order{}, "shipping_amount"))

	// A second run is a no-op: everything is recorded as applied.
	require.NoError(t, runner.Run())

	entries, err := runner.Status()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.True(t, e.Ran, "migration %s should be recorded", e.Name)
	}
}

func TestShippingColumnMigrationIsIdempotent(t *testing.T) {
	db, err := database.OpenWith("sqlite", filepath.Join(t.TempDir(), "ship.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	// An orders table from before shipping was itemized, with one row.
	require.NoError(t, db.Exec(`CREATE TABLE orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		total_amount REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_reference TEXT,
		completed_at DATETIME,
		created_at DATETIME
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO orders
		(order_id, customer_email, customer_name, total_amount, status)
		VALUES ('b7e9c9f4-54d3-4c19-bb52-0a9e1cfb4a01', 'jo@example.com', 'Jo Miller', 49.0, 'pending')`).Error)

	m := &migrations.AddShippingAmountToOrders{}
	require.NoError(t, m.Up(db))
	require.True(t, db.Migrator().HasColumn(&models.Order{}, "shipping_amount"))

	// Pre-existing rows pick up the flat shipping rate.
	var order models.Order
	require.NoError(t, db.First(&order).Error)
	assert.Equal(t, 5.0, order.ShippingAmount)

	// Running it again against the migrated schema is a clean no-op.
	require.NoError(t, m.Up(db))
	require.NoError(t, m.Up(db))
	assert.True(t, db.Migrator().HasColumn(&models.Order{}, "shipping_amount"))
}

func TestRollbackDropsLastBatch(t *testing.T) {
	db, err := database.OpenWith("sqlite", filepath.Join(t.TempDir(), "mig.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	runner := migration.New(db)
	require.NoError(t, runner.Run())
	require.NoError(t, runner.Rollback())

	// Everything ran in one batch, so rollback undoes the whole schema.
	entries, err := runner.Status()
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.Ran, "migration %s should be rolled back", e.Name)
	}
}
