package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest registers a customer invoice for settlement tracking
type CreateInvoiceRequest struct {
	CustomerID  uuid.UUID       `validate:"required"`
	TotalAmount decimal.Decimal `validate:"required"`
	InvoiceDate time.Time       `validate:"required"`
}

// CreateReceiptRequest records a customer payment and allocates it against
// the customer's outstanding invoices, oldest first
type CreateReceiptRequest struct {
	CustomerID  uuid.UUID       `validate:"required"`
	Amount      decimal.Decimal `validate:"required"`
	ReceiptDate time.Time       `validate:"required"`
}

// ReverseReceiptRequest undoes a receipt and reopens its invoices
type ReverseReceiptRequest struct {
	ReceiptID uuid.UUID `validate:"required"`
	Reason    string    `validate:"required,min=1,max=255"`
}

// InvoiceResponse is the API view of an invoice
type InvoiceResponse struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	Settled           bool            `json:"settled"`
	InvoiceDate       time.Time       `json:"invoice_date"`
}

// AllocationResponse is one receipt-to-invoice allocation
type AllocationResponse struct {
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	InvoiceCode string          `json:"invoice_code"`
	Amount      decimal.Decimal `json:"amount"`
}

// ReceiptResponse is the API view of a receipt
type ReceiptResponse struct {
	ID                uuid.UUID            `json:"id"`
	Code              string               `json:"code"`
	CustomerID        uuid.UUID            `json:"customer_id"`
	Amount            decimal.Decimal      `json:"amount"`
	UnallocatedAmount decimal.Decimal      `json:"unallocated_amount"`
	Status            string               `json:"status"`
	ReversalReason    string               `json:"reversal_reason,omitempty"`
	ReceiptDate       time.Time            `json:"receipt_date"`
	Allocations       []AllocationResponse `json:"allocations"`
}

// ReversalResponse confirms which invoices a receipt reversal reopened
type ReversalResponse struct {
	Receipt          ReceiptResponse  `json:"receipt"`
	ReopenedInvoices []InvoiceResponse `json:"reopened_invoices"`
}

// ToInvoiceResponse maps an invoice to its API view
func ToInvoiceResponse(inv *finance.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                inv.ID,
		Code:              inv.Code,
		CustomerID:        inv.CustomerID,
		TotalAmount:       inv.TotalAmount,
		OutstandingAmount: inv.OutstandingAmount,
		Settled:           inv.IsSettled(),
		InvoiceDate:       inv.InvoiceDate,
	}
}

// ToReceiptResponse maps a receipt to its API view
func ToReceiptResponse(r *finance.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:                r.ID,
		Code:              r.Code,
		CustomerID:        r.CustomerID,
		Amount:            r.Amount,
		UnallocatedAmount: r.UnallocatedAmount,
		Status:            string(r.Status),
		ReversalReason:    r.ReversalReason,
		ReceiptDate:       r.ReceiptDate,
		Allocations:       []AllocationResponse{},
	}
	for _, alloc := range r.Allocations {
		resp.Allocations = append(resp.Allocations, AllocationResponse{
			InvoiceID:   alloc.InvoiceID,
			InvoiceCode: alloc.InvoiceCode,
			Amount:      alloc.Amount,
		})
	}
	return resp
}
