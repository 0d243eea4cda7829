package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
)

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindOutstandingByCustomer returns unsettled invoices for a customer,
	// oldest first (invoice_date asc, sequence asc)
	FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]Invoice, error)
	// FindByIDs finds multiple invoices
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Invoice, error)
	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error
	// SaveAll persists multiple invoices
	SaveAll(ctx context.Context, invoices []*Invoice) error
}

// ReceiptRepository defines persistence operations for receipts.
// Allocations are children of the receipt aggregate.
type ReceiptRepository interface {
	// FindByID finds a receipt with its allocations
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	// FindAll lists receipts with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Receipt, error)
	// Save creates or updates a receipt with its allocations
	Save(ctx context.Context, receipt *Receipt) error
	// Count counts receipts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
