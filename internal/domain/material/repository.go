package material

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
)

// MaterialRollRepository defines persistence operations for material rolls
type MaterialRollRepository interface {
	// FindByID finds a roll by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*MaterialRoll, error)
	// FindInStockByMaterial returns rolls with remaining quantity for a
	// material, in FIFO order (created_at asc, sequence asc)
	FindInStockByMaterial(ctx context.Context, materialID uuid.UUID) ([]MaterialRoll, error)
	// FindByMaterial returns all rolls for a material with filtering
	FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]MaterialRoll, error)
	// FindByIDs finds multiple rolls by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]MaterialRoll, error)
	// Save creates or updates a roll
	Save(ctx context.Context, roll *MaterialRoll) error
	// SaveAll persists multiple rolls
	SaveAll(ctx context.Context, rolls []*MaterialRoll) error
	// CountByMaterial counts rolls for a material
	CountByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) (int64, error)
}
