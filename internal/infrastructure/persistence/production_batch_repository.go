package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/production"
	"github.com/loomerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductionBatchRepository implements ProductionBatchRepository using GORM
type GormProductionBatchRepository struct {
	db     *gorm.DB
	locked bool
}

// NewGormProductionBatchRepository creates a new GormProductionBatchRepository
func NewGormProductionBatchRepository(db *gorm.DB) *GormProductionBatchRepository {
	return &GormProductionBatchRepository{db: db}
}

// NewGormProductionBatchRepositoryForUpdate creates a repository whose reads
// take a FOR UPDATE row lock, so a batch read for completion or reversal
// cannot be mutated by a concurrent transaction mid-flight.
func NewGormProductionBatchRepositoryForUpdate(db *gorm.DB) *GormProductionBatchRepository {
	return &GormProductionBatchRepository{db: db, locked: true}
}

// session returns the query root, locking matched rows when the repository
// was built for update
func (r *GormProductionBatchRepository) session(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx)
	if r.locked {
		query = forUpdate(query)
	}
	return query
}

// FindByID finds a batch with its inputs and outputs
func (r *GormProductionBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProductionBatch, error) {
	var batch production.ProductionBatch
	if err := r.session(ctx).
		Preload("Inputs").
		Preload("Outputs").
		First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByCode finds a batch by its human-readable code
func (r *GormProductionBatchRepository) FindByCode(ctx context.Context, code string) (*production.ProductionBatch, error) {
	var batch production.ProductionBatch
	if err := r.db.WithContext(ctx).
		Preload("Inputs").
		Preload("Outputs").
		First(&batch, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindOpenByMachine returns batches on a machine with unconsumed input,
// oldest allocation first. The sequence column breaks same-day ties so
// pooled consumption walks batches deterministically.
func (r *GormProductionBatchRepository) FindOpenByMachine(ctx context.Context, machineID uuid.UUID) ([]production.ProductionBatch, error) {
	var batches []production.ProductionBatch
	if err := r.session(ctx).
		Preload("Inputs").
		Preload("Outputs").
		Where("machine_id = ? AND status IN ? AND consumed_input_quantity < total_input_quantity",
			machineID,
			[]production.BatchStatus{production.BatchStatusInProgress, production.BatchStatusPartiallyCompleted}).
		Order("allocation_date ASC, sequence ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindReversibleByProduct returns batches with recorded output of the product,
// oldest completion first. Membership goes through a subquery on batch_outputs
// instead of a join with GROUP BY; PostgreSQL rejects FOR UPDATE on grouped
// queries, and the locked variant of this read must be lockable.
func (r *GormProductionBatchRepository) FindReversibleByProduct(ctx context.Context, productID uuid.UUID) ([]production.ProductionBatch, error) {
	withOutput := r.db.Model(&production.BatchOutput{}).
		Select("production_batch_id").
		Where("product_id = ? AND actual_quantity > 0", productID)

	var batches []production.ProductionBatch
	if err := r.session(ctx).
		Preload("Inputs").
		Preload("Outputs").
		Where("id IN (?)", withOutput).
		Where("completion_date IS NOT NULL").
		Order("completion_date ASC, sequence ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindAll lists batches with filtering
func (r *GormProductionBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]production.ProductionBatch, error) {
	var batches []production.ProductionBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&production.ProductionBatch{}).
			Preload("Inputs").
			Preload("Outputs"),
		filter,
	)
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Save creates or updates a batch with its children. FullSaveAssociations is
// required so edits to existing inputs and outputs are written back.
func (r *GormProductionBatchRepository) Save(ctx context.Context, batch *production.ProductionBatch) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(batch).Error
}

// SaveAll persists multiple batches
func (r *GormProductionBatchRepository) SaveAll(ctx context.Context, batches []*production.ProductionBatch) error {
	for _, batch := range batches {
		if err := r.Save(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// Count counts batches matching the filter
func (r *GormProductionBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&production.ProductionBatch{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormProductionBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("allocation_date DESC, sequence DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormProductionBatchRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "machine_id":
			query = query.Where("machine_id = ?", value)
		case "open":
			if value == true {
				query = query.Where("consumed_input_quantity < total_input_quantity")
			}
		}
	}
	return query
}

// Ensure GormProductionBatchRepository implements ProductionBatchRepository
var _ production.ProductionBatchRepository = (*GormProductionBatchRepository)(nil)
