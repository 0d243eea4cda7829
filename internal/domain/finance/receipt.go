package finance

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Invoice is a customer invoice tracked for settlement. Only the amounts
// relevant to receipt allocation live here; rendering and tax breakdowns
// belong to the invoicing collaborators.
type Invoice struct {
	shared.BaseEntity
	Code              string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	OutstandingAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	InvoiceDate       time.Time       `gorm:"not null;index"`
	Sequence          int64           `gorm:"autoIncrement;uniqueIndex"`
}

// NewInvoice creates an unpaid invoice
func NewInvoice(code string, customerID uuid.UUID, totalAmount decimal.Decimal, invoiceDate time.Time) (*Invoice, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Invoice code is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID is required")
	}
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount must be positive")
	}
	return &Invoice{
		BaseEntity:        shared.NewBaseEntity(),
		Code:              code,
		CustomerID:        customerID,
		TotalAmount:       totalAmount,
		OutstandingAmount: totalAmount,
		InvoiceDate:       invoiceDate,
	}, nil
}

// ApplyPayment reduces the outstanding balance
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(inv.OutstandingAmount) {
		return shared.NewDomainErrorf("PAYMENT_EXCEEDS_OUTSTANDING",
			"Invoice %s has %s outstanding, cannot apply %s",
			inv.Code, inv.OutstandingAmount, amount)
	}
	inv.OutstandingAmount = inv.OutstandingAmount.Sub(amount)
	inv.Touch()
	return nil
}

// Reopen restores outstanding balance when a receipt allocation is reversed
func (inv *Invoice) Reopen(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Reopen amount must be positive")
	}
	if inv.OutstandingAmount.Add(amount).GreaterThan(inv.TotalAmount) {
		return shared.NewDomainErrorf("REOPEN_EXCEEDS_TOTAL",
			"Reopening %s on invoice %s would exceed its total %s",
			amount, inv.Code, inv.TotalAmount)
	}
	inv.OutstandingAmount = inv.OutstandingAmount.Add(amount)
	inv.Touch()
	return nil
}

// IsSettled returns true when nothing is outstanding
func (inv *Invoice) IsSettled() bool {
	return inv.OutstandingAmount.IsZero()
}

// ReceiptStatus is the state of a customer receipt
type ReceiptStatus string

const (
	// ReceiptStatusActive means the receipt's allocations are in force
	ReceiptStatusActive ReceiptStatus = "ACTIVE"
	// ReceiptStatusReversed means the receipt was undone and its invoices reopened
	ReceiptStatusReversed ReceiptStatus = "REVERSED"
)

// ReceiptAllocation ties part of a receipt amount to one invoice. The record
// is what makes the reversal exact: each invoice is reopened by precisely
// the amount allocated against it.
type ReceiptAllocation struct {
	shared.BaseEntity
	ReceiptID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_receipt_alloc_receipt"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceCode string          `gorm:"type:varchar(30);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// Receipt is a customer payment allocated against outstanding invoices
type Receipt struct {
	shared.BaseEntity
	Code              string              `gorm:"type:varchar(30);not null;uniqueIndex"`
	CustomerID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	UnallocatedAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Status            ReceiptStatus       `gorm:"type:varchar(15);not null;index"`
	ReversalReason    string              `gorm:"type:varchar(255)"`
	ReceiptDate       time.Time           `gorm:"not null"`
	Allocations       []ReceiptAllocation `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
}

// NewReceipt creates an active receipt with no allocations yet
func NewReceipt(code string, customerID uuid.UUID, amount decimal.Decimal, receiptDate time.Time) (*Receipt, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Receipt code is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Receipt amount must be positive")
	}
	return &Receipt{
		BaseEntity:        shared.NewBaseEntity(),
		Code:              code,
		CustomerID:        customerID,
		Amount:            amount,
		UnallocatedAmount: amount,
		Status:            ReceiptStatusActive,
		ReceiptDate:       receiptDate,
	}, nil
}

// AllocateAgainst settles the receipt against outstanding invoices oldest
// first (invoice date, then sequence), mutating the invoices as it goes.
// Any remainder stays on the receipt as an unallocated advance.
func (r *Receipt) AllocateAgainst(invoices []*Invoice) error {
	if r.Status != ReceiptStatusActive {
		return shared.ErrInvalidState
	}

	sorted := make([]*Invoice, len(invoices))
	copy(sorted, invoices)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].InvoiceDate.Equal(sorted[j].InvoiceDate) {
			return sorted[i].InvoiceDate.Before(sorted[j].InvoiceDate)
		}
		return sorted[i].Sequence < sorted[j].Sequence
	})

	for _, inv := range sorted {
		if r.UnallocatedAmount.IsZero() {
			break
		}
		if inv.OutstandingAmount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		applied := decimal.Min(r.UnallocatedAmount, inv.OutstandingAmount)
		if err := inv.ApplyPayment(applied); err != nil {
			return err
		}
		r.Allocations = append(r.Allocations, ReceiptAllocation{
			BaseEntity:  shared.NewBaseEntity(),
			ReceiptID:   r.ID,
			InvoiceID:   inv.ID,
			InvoiceCode: inv.Code,
			Amount:      applied,
		})
		r.UnallocatedAmount = r.UnallocatedAmount.Sub(applied)
	}
	r.Touch()
	return nil
}

// MarkReversed flags the receipt as undone. The reason is mandatory; a
// receipt is never silently reversible.
func (r *Receipt) MarkReversed(reason string) error {
	if r.Status == ReceiptStatusReversed {
		return shared.NewDomainErrorf("INVALID_STATE", "Receipt %s is already reversed", r.Code)
	}
	if reason == "" {
		return shared.NewDomainError("REASON_REQUIRED", "A reversal reason is required")
	}
	r.Status = ReceiptStatusReversed
	r.ReversalReason = reason
	r.Touch()
	return nil
}
