package inventory

import (
	"context"

	"github.com/loomerp/backend/internal/domain/bale"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to inventory repositories.
// Bale creation and deletion mutate the bale aggregate and the product stock
// ledger together; the scope keeps the pair atomic.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories scoped to
// the current transaction.
type TransactionalRepositories interface {
	// Stocks returns the product stock repository
	Stocks() stock.ProductStockRepository
	// Movements returns the stock movement repository
	Movements() stock.StockMovementRepository
	// Bales returns the bale batch repository
	Bales() bale.BaleBatchRepository
	// Rolls returns the material roll repository
	Rolls() material.MaterialRollRepository
}
