package persistence

import (
	"context"

	appinv "github.com/loomerp/backend/internal/application/inventory"
	"github.com/loomerp/backend/internal/domain/bale"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormInventoryTransactionScope implements the inventory TransactionScope
// using GORM transactions. Bale mutations and their paired stock movements
// commit or roll back together.
type GormInventoryTransactionScope struct {
	db *gorm.DB
}

// NewGormInventoryTransactionScope creates a new GormInventoryTransactionScope
func NewGormInventoryTransactionScope(db *gorm.DB) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormInventoryRepositories{tx: tx}
		return fn(repos)
	})
}

// gormInventoryRepositories hands out locked repositories: every read
// inside the transaction takes a row lock so the checked state cannot move
// before the mutation commits.
type gormInventoryRepositories struct {
	tx *gorm.DB
}

// Stocks returns the product stock repository scoped to the current transaction
func (r *gormInventoryRepositories) Stocks() stock.ProductStockRepository {
	return NewGormProductStockRepositoryForUpdate(r.tx)
}

// Movements returns the stock movement repository scoped to the current transaction
func (r *gormInventoryRepositories) Movements() stock.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// Bales returns the bale batch repository scoped to the current transaction
func (r *gormInventoryRepositories) Bales() bale.BaleBatchRepository {
	return NewGormBaleBatchRepositoryForUpdate(r.tx)
}

// Rolls returns the material roll repository scoped to the current transaction
func (r *gormInventoryRepositories) Rolls() material.MaterialRollRepository {
	return NewGormMaterialRollRepositoryForUpdate(r.tx)
}

// Ensure GormInventoryTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormInventoryTransactionScope)(nil)

// Ensure gormInventoryRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormInventoryRepositories)(nil)
