package bale

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
)

// BaleBatchRepository defines persistence operations for bale batches.
// Items are children of the batch aggregate and are loaded and saved with it.
type BaleBatchRepository interface {
	// FindByID finds a batch with its items
	FindByID(ctx context.Context, id uuid.UUID) (*BaleBatch, error)
	// FindByItemID finds the batch that owns the given item
	FindByItemID(ctx context.Context, itemID uuid.UUID) (*BaleBatch, error)
	// FindAll lists batches with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]BaleBatch, error)
	// Save creates or updates a batch with its items
	Save(ctx context.Context, batch *BaleBatch) error
	// Count counts batches matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
