package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/domain/stock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductStockRepository implements ProductStockRepository using GORM
type GormProductStockRepository struct {
	db     *gorm.DB
	locked bool
}

// NewGormProductStockRepository creates a new GormProductStockRepository
func NewGormProductStockRepository(db *gorm.DB) *GormProductStockRepository {
	return &GormProductStockRepository{db: db}
}

// NewGormProductStockRepositoryForUpdate creates a repository whose balance
// reads take a FOR UPDATE row lock. Transaction scopes use it so a balance
// read before a debit or credit cannot be changed by a concurrent writer
// between the check and the mutation.
func NewGormProductStockRepositoryForUpdate(db *gorm.DB) *GormProductStockRepository {
	return &GormProductStockRepository{db: db, locked: true}
}

// session returns the query root, locking matched rows when the repository
// was built for update
func (r *GormProductStockRepository) session(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx)
	if r.locked {
		query = forUpdate(query)
	}
	return query
}

// FindByProduct finds the stock row for a product
func (r *GormProductStockRepository) FindByProduct(ctx context.Context, productID uuid.UUID) (*stock.ProductStock, error) {
	var row stock.ProductStock
	if err := r.session(ctx).
		First(&row, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// GetOrCreate returns the stock row, creating a zero balance if missing
func (r *GormProductStockRepository) GetOrCreate(ctx context.Context, productID uuid.UUID) (*stock.ProductStock, error) {
	row, err := r.FindByProduct(ctx, productID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	row, err = stock.NewProductStock(productID)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT handles the race where two transactions create the same row
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	return r.FindByProduct(ctx, productID)
}

// FindByProducts finds stock rows for multiple products
func (r *GormProductStockRepository) FindByProducts(ctx context.Context, productIDs []uuid.UUID) ([]stock.ProductStock, error) {
	if len(productIDs) == 0 {
		return []stock.ProductStock{}, nil
	}
	var rows []stock.ProductStock
	if err := r.session(ctx).
		Where("product_id IN ?", productIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindBelowReorder returns products whose balance is under their reorder level
func (r *GormProductStockRepository) FindBelowReorder(ctx context.Context, filter shared.Filter) ([]stock.ProductStock, error) {
	var rows []stock.ProductStock
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.ProductStock{}).
			Where("reorder_level > 0 AND quantity < reorder_level"),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindAll lists stock rows with filtering
func (r *GormProductStockRepository) FindAll(ctx context.Context, filter shared.Filter) ([]stock.ProductStock, error) {
	var rows []stock.ProductStock
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.ProductStock{}),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save creates or updates a stock row
func (r *GormProductStockRepository) Save(ctx context.Context, row *stock.ProductStock) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// Count counts stock rows matching the filter
func (r *GormProductStockRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&stock.ProductStock{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormProductStockRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
		query = query.Order("updated_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormProductStockRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "has_stock":
			if value == true {
				query = query.Where("quantity > 0")
			}
		case "below_reorder":
			if value == true {
				query = query.Where("reorder_level > 0 AND quantity < reorder_level")
			}
		}
	}
	return query
}

// Ensure GormProductStockRepository implements ProductStockRepository
var _ stock.ProductStockRepository = (*GormProductStockRepository)(nil)
