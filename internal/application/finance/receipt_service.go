package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/finance"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptService records customer receipts and allocates them against
// outstanding invoices
type ReceiptService struct {
	scope       TransactionScope
	receiptRepo finance.ReceiptRepository
	invoiceRepo finance.InvoiceRepository
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewReceiptService creates a ReceiptService
func NewReceiptService(
	scope TransactionScope,
	receiptRepo finance.ReceiptRepository,
	invoiceRepo finance.InvoiceRepository,
	logger *zap.Logger,
) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{
		scope:       scope,
		receiptRepo: receiptRepo,
		invoiceRepo: invoiceRepo,
		validate:    validator.New(),
		logger:      logger,
	}
}

// CreateInvoice registers an invoice for settlement tracking
func (s *ReceiptService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	var response InvoiceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := finance.NewInvoice(generateCode("INV"), req.CustomerID, req.TotalAmount, req.InvoiceDate)
		if err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoice_code", response.Code),
		zap.String("customer_id", req.CustomerID.String()),
		zap.String("total_amount", req.TotalAmount.String()),
	)
	return &response, nil
}

// CreateReceipt records a payment and settles the customer's outstanding
// invoices oldest first. Whatever the invoices cannot absorb stays on the
// receipt as an unallocated advance.
func (s *ReceiptService) CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*ReceiptResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Receipt amount must be positive")
	}

	var response ReceiptResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receipt, err := finance.NewReceipt(generateCode("RCT"), req.CustomerID, req.Amount, req.ReceiptDate)
		if err != nil {
			return err
		}

		outstanding, err := repos.Invoices().FindOutstandingByCustomer(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		invoices := make([]*finance.Invoice, len(outstanding))
		for i := range outstanding {
			invoices[i] = &outstanding[i]
		}

		if err := receipt.AllocateAgainst(invoices); err != nil {
			return err
		}

		touched := make([]*finance.Invoice, 0, len(receipt.Allocations))
		for _, alloc := range receipt.Allocations {
			for _, inv := range invoices {
				if inv.ID == alloc.InvoiceID {
					touched = append(touched, inv)
					break
				}
			}
		}
		if len(touched) > 0 {
			if err := repos.Invoices().SaveAll(ctx, touched); err != nil {
				return err
			}
		}
		if err := repos.Receipts().Save(ctx, receipt); err != nil {
			return err
		}
		response = ToReceiptResponse(receipt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("receipt created",
		zap.String("receipt_code", response.Code),
		zap.String("customer_id", req.CustomerID.String()),
		zap.String("amount", req.Amount.String()),
		zap.Int("invoices_settled", len(response.Allocations)),
		zap.String("unallocated", response.UnallocatedAmount.String()),
	)
	return &response, nil
}

// ReverseReceipt undoes a receipt, reopening each invoice by exactly the
// amount the receipt allocated against it. The reason is mandatory.
func (s *ReceiptService) ReverseReceipt(ctx context.Context, req ReverseReceiptRequest) (*ReversalResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	var response ReversalResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receipt, err := repos.Receipts().FindByID(ctx, req.ReceiptID)
		if err != nil {
			return err
		}
		if err := receipt.MarkReversed(req.Reason); err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(receipt.Allocations))
		for _, alloc := range receipt.Allocations {
			ids = append(ids, alloc.InvoiceID)
		}

		var reopened []InvoiceResponse
		if len(ids) > 0 {
			rows, err := repos.Invoices().FindByIDs(ctx, ids)
			if err != nil {
				return err
			}
			byID := make(map[uuid.UUID]*finance.Invoice, len(rows))
			for i := range rows {
				byID[rows[i].ID] = &rows[i]
			}
			touched := make([]*finance.Invoice, 0, len(receipt.Allocations))
			for _, alloc := range receipt.Allocations {
				inv, ok := byID[alloc.InvoiceID]
				if !ok {
					return shared.NewDomainErrorf("NOT_FOUND", "Invoice %s not found", alloc.InvoiceCode)
				}
				if err := inv.Reopen(alloc.Amount); err != nil {
					return err
				}
				touched = append(touched, inv)
				reopened = append(reopened, ToInvoiceResponse(inv))
			}
			if err := repos.Invoices().SaveAll(ctx, touched); err != nil {
				return err
			}
		}

		if err := repos.Receipts().Save(ctx, receipt); err != nil {
			return err
		}
		response = ReversalResponse{
			Receipt:          ToReceiptResponse(receipt),
			ReopenedInvoices: reopened,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("receipt reversed",
		zap.String("receipt_code", response.Receipt.Code),
		zap.String("reason", req.Reason),
		zap.Int("invoices_reopened", len(response.ReopenedInvoices)),
	)
	return &response, nil
}

// GetReceipt returns one receipt with its allocations
func (s *ReceiptService) GetReceipt(ctx context.Context, receiptID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	response := ToReceiptResponse(receipt)
	return &response, nil
}

// ListReceipts lists receipts with pagination
func (s *ReceiptService) ListReceipts(ctx context.Context, filter shared.Filter) ([]ReceiptResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	receipts, err := s.receiptRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.receiptRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		responses = append(responses, ToReceiptResponse(&receipts[i]))
	}
	return responses, total, nil
}

// ListOutstandingInvoices returns a customer's unsettled invoices oldest first
func (s *ReceiptService) ListOutstandingInvoices(ctx context.Context, customerID uuid.UUID) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindOutstandingByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, ToInvoiceResponse(&invoices[i]))
	}
	return responses, nil
}

// generateCode builds a human-readable document code
func generateCode(prefix string) string {
	return fmt.Sprintf("%s-%s-%s",
		prefix,
		time.Now().Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]),
	)
}
