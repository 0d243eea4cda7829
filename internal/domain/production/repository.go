package production

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
)

// ProductionBatchRepository defines persistence operations for production
// batches. Implementations must load and save the Inputs and Outputs child
// entities together with the batch aggregate.
type ProductionBatchRepository interface {
	// FindByID finds a batch with its inputs and outputs
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionBatch, error)
	// FindByCode finds a batch by its human-readable code
	FindByCode(ctx context.Context, code string) (*ProductionBatch, error)
	// FindOpenByMachine returns batches on a machine with unconsumed input,
	// oldest allocation first (allocation_date asc, sequence asc)
	FindOpenByMachine(ctx context.Context, machineID uuid.UUID) ([]ProductionBatch, error)
	// FindReversibleByProduct returns batches with recorded output of the
	// product, oldest completion first (completion_date asc, sequence asc)
	FindReversibleByProduct(ctx context.Context, productID uuid.UUID) ([]ProductionBatch, error)
	// FindAll lists batches with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]ProductionBatch, error)
	// Save creates or updates a batch with its children
	Save(ctx context.Context, batch *ProductionBatch) error
	// SaveAll persists multiple batches
	SaveAll(ctx context.Context, batches []*ProductionBatch) error
	// Count counts batches matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
