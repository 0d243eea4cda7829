package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
)

// ProductStockRepository defines persistence operations for product balances
type ProductStockRepository interface {
	// FindByProduct finds the stock row for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) (*ProductStock, error)
	// GetOrCreate returns the stock row, creating a zero balance if missing
	GetOrCreate(ctx context.Context, productID uuid.UUID) (*ProductStock, error)
	// FindByProducts finds stock rows for multiple products
	FindByProducts(ctx context.Context, productIDs []uuid.UUID) ([]ProductStock, error)
	// FindBelowReorder returns products whose balance is under their reorder level
	FindBelowReorder(ctx context.Context, filter shared.Filter) ([]ProductStock, error)
	// FindAll lists stock rows with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]ProductStock, error)
	// Save creates or updates a stock row
	Save(ctx context.Context, stock *ProductStock) error
	// Count counts stock rows matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// StockMovementRepository is the append-only movement ledger
type StockMovementRepository interface {
	// Append writes a movement record. Movements are never updated or deleted.
	Append(ctx context.Context, movement *StockMovement) error
	// FindByProduct lists movements for a product, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	// CountByProduct counts movements for a product
	CountByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (int64, error)
}
