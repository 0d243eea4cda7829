package finance

import (
	"context"

	"github.com/loomerp/backend/internal/domain/finance"
)

// TransactionScope provides transactional access to finance repositories.
// Receipt allocation touches the receipt and every invoice it settles; the
// scope keeps the group atomic.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories scoped to
// the current transaction.
type TransactionalRepositories interface {
	// Invoices returns the invoice repository
	Invoices() finance.InvoiceRepository
	// Receipts returns the receipt repository
	Receipts() finance.ReceiptRepository
}
