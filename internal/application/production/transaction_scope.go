package production

import (
	"context"

	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/production"
	"github.com/loomerp/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the repositories a
// production operation touches. Allocation, completion and reversal each
// mutate several ledgers; running them inside one scope keeps the mutation
// all-or-nothing.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories scoped to
// the current transaction.
type TransactionalRepositories interface {
	// Rolls returns the material roll repository
	Rolls() material.MaterialRollRepository
	// Batches returns the production batch repository
	Batches() production.ProductionBatchRepository
	// Stocks returns the product stock repository
	Stocks() stock.ProductStockRepository
	// Movements returns the stock movement repository
	Movements() stock.StockMovementRepository
}
