package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfin "github.com/loomerp/backend/internal/application/finance"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinanceService struct {
	invoiceResp  *appfin.InvoiceResponse
	receiptResp  *appfin.ReceiptResponse
	reversalResp *appfin.ReversalResponse
	listResp     []appfin.ReceiptResponse
	outstanding  []appfin.InvoiceResponse
	total        int64
	err          error

	lastReceipt appfin.CreateReceiptRequest
	lastReverse appfin.ReverseReceiptRequest
}

func (f *fakeFinanceService) CreateInvoice(_ context.Context, _ appfin.CreateInvoiceRequest) (*appfin.InvoiceResponse, error) {
	return f.invoiceResp, f.err
}

func (f *fakeFinanceService) CreateReceipt(_ context.Context, req appfin.CreateReceiptRequest) (*appfin.ReceiptResponse, error) {
	f.lastReceipt = req
	return f.receiptResp, f.err
}

func (f *fakeFinanceService) ReverseReceipt(_ context.Context, req appfin.ReverseReceiptRequest) (*appfin.ReversalResponse, error) {
	f.lastReverse = req
	return f.reversalResp, f.err
}

func (f *fakeFinanceService) GetReceipt(_ context.Context, _ uuid.UUID) (*appfin.ReceiptResponse, error) {
	return f.receiptResp, f.err
}

func (f *fakeFinanceService) ListReceipts(_ context.Context, _ shared.Filter) ([]appfin.ReceiptResponse, int64, error) {
	return f.listResp, f.total, f.err
}

func (f *fakeFinanceService) ListOutstandingInvoices(_ context.Context, _ uuid.UUID) ([]appfin.InvoiceResponse, error) {
	return f.outstanding, f.err
}

func setupFinanceRouter(svc FinanceService) *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1")
	NewFinanceHandler(svc).RegisterRoutes(api)
	return r
}

func TestFinanceHandler_CreateReceipt(t *testing.T) {
	customerID := uuid.New()
	svc := &fakeFinanceService{
		receiptResp: &appfin.ReceiptResponse{ID: uuid.New(), Code: "RCT-20260301-ABCD1234"},
	}
	r := setupFinanceRouter(svc)

	body := fmt.Sprintf(`{"customer_id": %q, "amount": "500", "receipt_date": "2026-03-01T00:00:00Z"}`, customerID)
	w := performRequest(r, http.MethodPost, "/api/v1/finance/receipts", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, customerID, svc.lastReceipt.CustomerID)
	assert.True(t, svc.lastReceipt.Amount.Equal(decimal.NewFromInt(500)))
}

func TestFinanceHandler_CreateReceipt_NegativeAmount(t *testing.T) {
	svc := &fakeFinanceService{
		err: shared.NewDomainError("INVALID_AMOUNT", "Receipt amount must be positive"),
	}
	r := setupFinanceRouter(svc)

	body := fmt.Sprintf(`{"customer_id": %q, "amount": "-5", "receipt_date": "2026-03-01T00:00:00Z"}`, uuid.New())
	w := performRequest(r, http.MethodPost, "/api/v1/finance/receipts", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinanceHandler_ReverseReceipt(t *testing.T) {
	receiptID := uuid.New()
	svc := &fakeFinanceService{
		reversalResp: &appfin.ReversalResponse{},
	}
	r := setupFinanceRouter(svc)

	w := performRequest(r, http.MethodPost, "/api/v1/finance/receipts/"+receiptID.String()+"/reverse",
		`{"reason": "bounced cheque"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, receiptID, svc.lastReverse.ReceiptID)
	assert.Equal(t, "bounced cheque", svc.lastReverse.Reason)
}

func TestFinanceHandler_ReverseReceipt_ReasonRequired(t *testing.T) {
	r := setupFinanceRouter(&fakeFinanceService{})

	w := performRequest(r, http.MethodPost, "/api/v1/finance/receipts/"+uuid.NewString()+"/reverse", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinanceHandler_ReverseReceipt_AlreadyReversed(t *testing.T) {
	svc := &fakeFinanceService{
		err: shared.NewDomainError("INVALID_STATE", "Receipt RCT-1 is already reversed"),
	}
	r := setupFinanceRouter(svc)

	w := performRequest(r, http.MethodPost, "/api/v1/finance/receipts/"+uuid.NewString()+"/reverse",
		`{"reason": "duplicate"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestFinanceHandler_ListOutstandingInvoices(t *testing.T) {
	svc := &fakeFinanceService{
		outstanding: []appfin.InvoiceResponse{{Code: "INV-1"}, {Code: "INV-2"}},
	}
	r := setupFinanceRouter(svc)

	w := performRequest(r, http.MethodGet,
		"/api/v1/finance/customers/"+uuid.NewString()+"/outstanding-invoices", "")
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
}

func TestFinanceHandler_ListReceipts_BadCustomerFilter(t *testing.T) {
	r := setupFinanceRouter(&fakeFinanceService{})

	w := performRequest(r, http.MethodGet, "/api/v1/finance/receipts?customer_id=nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
