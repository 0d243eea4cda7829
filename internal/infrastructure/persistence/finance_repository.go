package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/finance"
	"github.com/loomerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db     *gorm.DB
	locked bool
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// NewGormInvoiceRepositoryForUpdate creates a repository whose reads take a
// FOR UPDATE row lock, so outstanding balances read before an allocation or
// reversal cannot change under the transaction.
func NewGormInvoiceRepositoryForUpdate(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db, locked: true}
}

// session returns the query root, locking matched rows when the repository
// was built for update
func (r *GormInvoiceRepository) session(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx)
	if r.locked {
		query = forUpdate(query)
	}
	return query
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	var invoice finance.Invoice
	if err := r.session(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindOutstandingByCustomer returns unsettled invoices for a customer,
// oldest first. The sequence column breaks same-day ties so allocation
// order is deterministic.
func (r *GormInvoiceRepository) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]finance.Invoice, error) {
	var invoices []finance.Invoice
	if err := r.session(ctx).
		Where("customer_id = ? AND outstanding_amount > 0", customerID).
		Order("invoice_date ASC, sequence ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByIDs finds multiple invoices
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]finance.Invoice, error) {
	if len(ids) == 0 {
		return []finance.Invoice{}, nil
	}
	var invoices []finance.Invoice
	if err := r.session(ctx).
		Where("id IN ?", ids).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *finance.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

// SaveAll persists multiple invoices
func (r *GormInvoiceRepository) SaveAll(ctx context.Context, invoices []*finance.Invoice) error {
	for _, invoice := range invoices {
		if err := r.db.WithContext(ctx).Save(invoice).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)

// GormReceiptRepository implements ReceiptRepository using GORM.
// Allocations are children of the receipt aggregate.
type GormReceiptRepository struct {
	db     *gorm.DB
	locked bool
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// NewGormReceiptRepositoryForUpdate creates a repository whose reads take a
// FOR UPDATE row lock, so a receipt read for reversal cannot be reversed
// twice by concurrent transactions.
func NewGormReceiptRepositoryForUpdate(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db, locked: true}
}

// session returns the query root, locking matched rows when the repository
// was built for update
func (r *GormReceiptRepository) session(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx)
	if r.locked {
		query = forUpdate(query)
	}
	return query
}

// FindByID finds a receipt with its allocations
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Receipt, error) {
	var receipt finance.Receipt
	if err := r.session(ctx).
		Preload("Allocations").
		First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindAll lists receipts with filtering
func (r *GormReceiptRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.Receipt, error) {
	var receipts []finance.Receipt
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&finance.Receipt{}).Preload("Allocations"),
		filter,
	)
	if err := query.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// Save creates or updates a receipt with its allocations
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *finance.Receipt) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(receipt).Error
}

// Count counts receipts matching the filter
func (r *GormReceiptRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&finance.Receipt{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormReceiptRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
		query = query.Order("receipt_date DESC, created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormReceiptRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	return query
}

// Ensure GormReceiptRepository implements ReceiptRepository
var _ finance.ReceiptRepository = (*GormReceiptRepository)(nil)
