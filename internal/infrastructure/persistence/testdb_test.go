package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
// Tables are created with raw DDL because SQLite cannot auto-increment the
// non-key sequence columns; tests that need deterministic tie-breaks set
// Sequence explicitly.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE material_rolls (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			material_id TEXT NOT NULL,
			batch_code TEXT NOT NULL,
			total_quantity NUMERIC NOT NULL,
			consumed_quantity NUMERIC NOT NULL,
			status TEXT NOT NULL,
			gsm INTEGER NOT NULL DEFAULT 0,
			shade TEXT,
			width_cm NUMERIC,
			source_bill_id TEXT,
			sequence INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE production_batches (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			code TEXT NOT NULL UNIQUE,
			machine_id TEXT NOT NULL,
			status TEXT NOT NULL,
			allocation_date DATETIME NOT NULL,
			completion_date DATETIME,
			total_input_quantity NUMERIC NOT NULL,
			consumed_input_quantity NUMERIC NOT NULL,
			output_quantity NUMERIC NOT NULL,
			loss_quantity NUMERIC NOT NULL,
			loss_percentage NUMERIC NOT NULL,
			sequence INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE batch_inputs (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			production_batch_id TEXT NOT NULL,
			material_id TEXT NOT NULL,
			roll_id TEXT NOT NULL,
			roll_batch_code TEXT NOT NULL,
			quantity NUMERIC NOT NULL
		)`,
		`CREATE TABLE batch_outputs (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			production_batch_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			target_description TEXT,
			actual_quantity NUMERIC NOT NULL
		)`,
		`CREATE TABLE product_stocks (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			product_id TEXT NOT NULL UNIQUE,
			quantity NUMERIC NOT NULL,
			reorder_level NUMERIC NOT NULL
		)`,
		`CREATE TABLE stock_movements (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			product_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			balance_before NUMERIC NOT NULL,
			balance_after NUMERIC NOT NULL,
			reason TEXT NOT NULL,
			reference_code TEXT,
			note TEXT,
			movement_date DATETIME NOT NULL
		)`,
		`CREATE TABLE bale_batches (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			code TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			total_weight NUMERIC NOT NULL
		)`,
		`CREATE TABLE bale_items (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			bale_batch_id TEXT NOT NULL,
			code TEXT NOT NULL UNIQUE,
			product_id TEXT NOT NULL,
			gross_weight NUMERIC NOT NULL,
			weight_loss_grams NUMERIC NOT NULL,
			net_weight NUMERIC NOT NULL,
			piece_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			issue_reference TEXT
		)`,
		`CREATE TABLE invoices (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			code TEXT NOT NULL UNIQUE,
			customer_id TEXT NOT NULL,
			total_amount NUMERIC NOT NULL,
			outstanding_amount NUMERIC NOT NULL,
			invoice_date DATETIME NOT NULL,
			sequence INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE receipts (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			code TEXT NOT NULL UNIQUE,
			customer_id TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			unallocated_amount NUMERIC NOT NULL,
			status TEXT NOT NULL,
			reversal_reason TEXT,
			receipt_date DATETIME NOT NULL
		)`,
		`CREATE TABLE receipt_allocations (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			receipt_id TEXT NOT NULL,
			invoice_id TEXT NOT NULL,
			invoice_code TEXT NOT NULL,
			amount NUMERIC NOT NULL
		)`,
	}

	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}
