package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfin "github.com/loomerp/backend/internal/application/finance"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// FinanceService is the application-layer surface the handler depends on
type FinanceService interface {
	CreateInvoice(ctx context.Context, req appfin.CreateInvoiceRequest) (*appfin.InvoiceResponse, error)
	CreateReceipt(ctx context.Context, req appfin.CreateReceiptRequest) (*appfin.ReceiptResponse, error)
	ReverseReceipt(ctx context.Context, req appfin.ReverseReceiptRequest) (*appfin.ReversalResponse, error)
	GetReceipt(ctx context.Context, receiptID uuid.UUID) (*appfin.ReceiptResponse, error)
	ListReceipts(ctx context.Context, filter shared.Filter) ([]appfin.ReceiptResponse, int64, error)
	ListOutstandingInvoices(ctx context.Context, customerID uuid.UUID) ([]appfin.InvoiceResponse, error)
}

// FinanceHandler handles invoice and receipt endpoints
type FinanceHandler struct {
	BaseHandler
	service FinanceService
}

// NewFinanceHandler creates a FinanceHandler
func NewFinanceHandler(service FinanceService) *FinanceHandler {
	return &FinanceHandler{service: service}
}

// RegisterRoutes registers finance routes
func (h *FinanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/finance")
	{
		group.POST("/invoices", h.CreateInvoice)
		group.GET("/customers/:customer_id/outstanding-invoices", h.ListOutstandingInvoices)
		group.POST("/receipts", h.CreateReceipt)
		group.GET("/receipts", h.ListReceipts)
		group.GET("/receipts/:id", h.GetReceipt)
		group.POST("/receipts/:id/reverse", h.ReverseReceipt)
	}
}

type createInvoiceBody struct {
	CustomerID  uuid.UUID       `json:"customer_id" binding:"required"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"required"`
	InvoiceDate time.Time       `json:"invoice_date" binding:"required"`
}

// CreateInvoice creates an unpaid invoice
func (h *FinanceHandler) CreateInvoice(c *gin.Context) {
	var body createInvoiceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.CreateInvoice(c.Request.Context(), appfin.CreateInvoiceRequest{
		CustomerID:  body.CustomerID,
		TotalAmount: body.TotalAmount,
		InvoiceDate: body.InvoiceDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

type createReceiptBody struct {
	CustomerID  uuid.UUID       `json:"customer_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	ReceiptDate time.Time       `json:"receipt_date" binding:"required"`
}

// CreateReceipt records a payment and allocates it oldest-invoice-first
func (h *FinanceHandler) CreateReceipt(c *gin.Context) {
	var body createReceiptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.CreateReceipt(c.Request.Context(), appfin.CreateReceiptRequest{
		CustomerID:  body.CustomerID,
		Amount:      body.Amount,
		ReceiptDate: body.ReceiptDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

type reverseReceiptBody struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}

// ReverseReceipt undoes a receipt, reopening each invoice by its allocation
func (h *FinanceHandler) ReverseReceipt(c *gin.Context) {
	receiptID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var body reverseReceiptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.ReverseReceipt(c.Request.Context(), appfin.ReverseReceiptRequest{
		ReceiptID: receiptID,
		Reason:    body.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetReceipt returns one receipt with its allocations
func (h *FinanceHandler) GetReceipt(c *gin.Context) {
	receiptID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetReceipt(c.Request.Context(), receiptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListReceipts lists receipts with pagination
func (h *FinanceHandler) ListReceipts(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]any{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		id, err := uuid.Parse(customerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id parameter")
			return
		}
		filters["customer_id"] = id
	}

	filter := buildFilter(listReq, filters)
	receipts, total, err := h.service.ListReceipts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, receipts, total, filter.Page, filter.PageSize)
}

// ListOutstandingInvoices returns unsettled invoices for a customer, oldest first
func (h *FinanceHandler) ListOutstandingInvoices(c *gin.Context) {
	customerID, ok := parseUUIDParam(c, "customer_id")
	if !ok {
		return
	}
	invoices, err := h.service.ListOutstandingInvoices(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}
