package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMaterialRollRepository implements MaterialRollRepository using GORM
type GormMaterialRollRepository struct {
	db     *gorm.DB
	locked bool
}

// NewGormMaterialRollRepository creates a new GormMaterialRollRepository
func NewGormMaterialRollRepository(db *gorm.DB) *GormMaterialRollRepository {
	return &GormMaterialRollRepository{db: db}
}

// NewGormMaterialRollRepositoryForUpdate creates a repository whose reads
// take a FOR UPDATE row lock, so rolls picked by the FIFO allocator cannot
// be consumed by a concurrent transaction before the debit lands.
func NewGormMaterialRollRepositoryForUpdate(db *gorm.DB) *GormMaterialRollRepository {
	return &GormMaterialRollRepository{db: db, locked: true}
}

// session returns the query root, locking matched rows when the repository
// was built for update
func (r *GormMaterialRollRepository) session(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx)
	if r.locked {
		query = forUpdate(query)
	}
	return query
}

// FindByID finds a roll by its ID
func (r *GormMaterialRollRepository) FindByID(ctx context.Context, id uuid.UUID) (*material.MaterialRoll, error) {
	var roll material.MaterialRoll
	if err := r.session(ctx).First(&roll, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &roll, nil
}

// FindInStockByMaterial returns rolls with remaining quantity for a material
// in arrival order. The sequence column breaks ties between rolls created in
// the same instant.
func (r *GormMaterialRollRepository) FindInStockByMaterial(ctx context.Context, materialID uuid.UUID) ([]material.MaterialRoll, error) {
	var rolls []material.MaterialRoll
	if err := r.session(ctx).
		Where("material_id = ? AND status = ? AND consumed_quantity < total_quantity",
			materialID, material.RollStatusInStock).
		Order("created_at ASC, sequence ASC").
		Find(&rolls).Error; err != nil {
		return nil, err
	}
	return rolls, nil
}

// FindByMaterial returns all rolls for a material with filtering
func (r *GormMaterialRollRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]material.MaterialRoll, error) {
	var rolls []material.MaterialRoll
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&material.MaterialRoll{}).
			Where("material_id = ?", materialID),
		filter,
	)
	if err := query.Find(&rolls).Error; err != nil {
		return nil, err
	}
	return rolls, nil
}

// FindByIDs finds multiple rolls by their IDs
func (r *GormMaterialRollRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]material.MaterialRoll, error) {
	if len(ids) == 0 {
		return []material.MaterialRoll{}, nil
	}
	var rolls []material.MaterialRoll
	if err := r.session(ctx).
		Where("id IN ?", ids).
		Find(&rolls).Error; err != nil {
		return nil, err
	}
	return rolls, nil
}

// Save creates or updates a roll
func (r *GormMaterialRollRepository) Save(ctx context.Context, roll *material.MaterialRoll) error {
	return r.db.WithContext(ctx).Save(roll).Error
}

// SaveAll persists multiple rolls
func (r *GormMaterialRollRepository) SaveAll(ctx context.Context, rolls []*material.MaterialRoll) error {
	if len(rolls) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(rolls).Error
}

// CountByMaterial counts rolls for a material
func (r *GormMaterialRollRepository) CountByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&material.MaterialRoll{}).
			Where("material_id = ?", materialID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormMaterialRollRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
		query = query.Order("created_at ASC, sequence ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormMaterialRollRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "batch_code":
			query = query.Where("batch_code = ?", value)
		case "in_stock":
			if value == true {
				query = query.Where("status = ? AND consumed_quantity < total_quantity", material.RollStatusInStock)
			}
		case "source_bill_id":
			query = query.Where("source_bill_id = ?", value)
		}
	}
	return query
}

// Ensure GormMaterialRollRepository implements MaterialRollRepository
var _ material.MaterialRollRepository = (*GormMaterialRollRepository)(nil)
