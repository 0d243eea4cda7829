package persistence

import (
	"context"

	appprod "github.com/loomerp/backend/internal/application/production"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/production"
	"github.com/loomerp/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormProductionTransactionScope implements the production TransactionScope
// using GORM transactions. Roll consumption, batch mutation and stock
// crediting commit or roll back together.
type GormProductionTransactionScope struct {
	db *gorm.DB
}

// NewGormProductionTransactionScope creates a new GormProductionTransactionScope
func NewGormProductionTransactionScope(db *gorm.DB) *GormProductionTransactionScope {
	return &GormProductionTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormProductionTransactionScope) Execute(ctx context.Context, fn func(repos appprod.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormProductionRepositories{tx: tx}
		return fn(repos)
	})
}

// gormProductionRepositories hands out locked repositories: every read
// inside the transaction takes a row lock so the checked state cannot move
// before the mutation commits.
type gormProductionRepositories struct {
	tx *gorm.DB
}

// Rolls returns the material roll repository scoped to the current transaction
func (r *gormProductionRepositories) Rolls() material.MaterialRollRepository {
	return NewGormMaterialRollRepositoryForUpdate(r.tx)
}

// Batches returns the production batch repository scoped to the current transaction
func (r *gormProductionRepositories) Batches() production.ProductionBatchRepository {
	return NewGormProductionBatchRepositoryForUpdate(r.tx)
}

// Stocks returns the product stock repository scoped to the current transaction
func (r *gormProductionRepositories) Stocks() stock.ProductStockRepository {
	return NewGormProductStockRepositoryForUpdate(r.tx)
}

// Movements returns the stock movement repository scoped to the current transaction
func (r *gormProductionRepositories) Movements() stock.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// Ensure GormProductionTransactionScope implements TransactionScope
var _ appprod.TransactionScope = (*GormProductionTransactionScope)(nil)

// Ensure gormProductionRepositories implements TransactionalRepositories
var _ appprod.TransactionalRepositories = (*gormProductionRepositories)(nil)
