package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/bale"
	"github.com/loomerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBaleBatchRepository implements BaleBatchRepository using GORM.
// Items are loaded and saved with the batch aggregate.
type GormBaleBatchRepository struct {
	db     *gorm.DB
	locked bool
}

// NewGormBaleBatchRepository creates a new GormBaleBatchRepository
func NewGormBaleBatchRepository(db *gorm.DB) *GormBaleBatchRepository {
	return &GormBaleBatchRepository{db: db}
}

// NewGormBaleBatchRepositoryForUpdate creates a repository whose reads take
// a FOR UPDATE row lock, so a batch read for issue, edit or deletion cannot
// be mutated by a concurrent transaction mid-flight.
func NewGormBaleBatchRepositoryForUpdate(db *gorm.DB) *GormBaleBatchRepository {
	return &GormBaleBatchRepository{db: db, locked: true}
}

// session returns the query root, locking matched rows when the repository
// was built for update
func (r *GormBaleBatchRepository) session(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx)
	if r.locked {
		query = forUpdate(query)
	}
	return query
}

// FindByID finds a batch with its items
func (r *GormBaleBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*bale.BaleBatch, error) {
	var batch bale.BaleBatch
	if err := r.session(ctx).
		Preload("Items").
		First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByItemID finds the batch that owns the given item
func (r *GormBaleBatchRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*bale.BaleBatch, error) {
	var item bale.BaleItem
	if err := r.session(ctx).
		First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, item.BaleBatchID)
}

// FindAll lists batches with filtering
func (r *GormBaleBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]bale.BaleBatch, error) {
	var batches []bale.BaleBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&bale.BaleBatch{}).Preload("Items"),
		filter,
	)
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Save creates or updates a batch with its items. FullSaveAssociations is
// required so status and weight edits on existing items are written back.
func (r *GormBaleBatchRepository) Save(ctx context.Context, batch *bale.BaleBatch) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(batch).Error
}

// Count counts batches matching the filter
func (r *GormBaleBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&bale.BaleBatch{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormBaleBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormBaleBatchRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "code":
			query = query.Where("code = ?", value)
		}
	}
	return query
}

// Ensure GormBaleBatchRepository implements BaleBatchRepository
var _ bale.BaleBatchRepository = (*GormBaleBatchRepository)(nil)
