package persistence

import (
	"context"

	appfin "github.com/loomerp/backend/internal/application/finance"
	"github.com/loomerp/backend/internal/domain/finance"
	"gorm.io/gorm"
)

// GormFinanceTransactionScope implements the finance TransactionScope using
// GORM transactions. A receipt and every invoice it settles or reopens
// commit or roll back together.
type GormFinanceTransactionScope struct {
	db *gorm.DB
}

// NewGormFinanceTransactionScope creates a new GormFinanceTransactionScope
func NewGormFinanceTransactionScope(db *gorm.DB) *GormFinanceTransactionScope {
	return &GormFinanceTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormFinanceTransactionScope) Execute(ctx context.Context, fn func(repos appfin.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormFinanceRepositories{tx: tx}
		return fn(repos)
	})
}

// gormFinanceRepositories hands out locked repositories: every read inside
// the transaction takes a row lock so the checked state cannot move before
// the mutation commits.
type gormFinanceRepositories struct {
	tx *gorm.DB
}

// Invoices returns the invoice repository scoped to the current transaction
func (r *gormFinanceRepositories) Invoices() finance.InvoiceRepository {
	return NewGormInvoiceRepositoryForUpdate(r.tx)
}

// Receipts returns the receipt repository scoped to the current transaction
func (r *gormFinanceRepositories) Receipts() finance.ReceiptRepository {
	return NewGormReceiptRepositoryForUpdate(r.tx)
}

// Ensure GormFinanceTransactionScope implements TransactionScope
var _ appfin.TransactionScope = (*GormFinanceTransactionScope)(nil)

// Ensure gormFinanceRepositories implements TransactionalRepositories
var _ appfin.TransactionalRepositories = (*gormFinanceRepositories)(nil)
