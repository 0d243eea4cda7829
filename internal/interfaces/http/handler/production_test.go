package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appprod "github.com/loomerp/backend/internal/application/production"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductionService struct {
	allocateResp *appprod.BatchResponse
	completeResp *appprod.CompleteResponse
	quickResp    *appprod.QuickCompleteResponse
	returnResp   *appprod.ReturnResponse
	getResp      *appprod.BatchResponse
	listResp     []appprod.BatchResponse
	listTotal    int64
	err          error

	lastAllocate appprod.AllocateRequest
	lastComplete appprod.CompleteRequest
	lastReturn   appprod.ReturnRequest
}

func (f *fakeProductionService) Allocate(_ context.Context, req appprod.AllocateRequest) (*appprod.BatchResponse, error) {
	f.lastAllocate = req
	return f.allocateResp, f.err
}

func (f *fakeProductionService) Complete(_ context.Context, req appprod.CompleteRequest) (*appprod.CompleteResponse, error) {
	f.lastComplete = req
	return f.completeResp, f.err
}

func (f *fakeProductionService) QuickComplete(_ context.Context, req appprod.QuickCompleteRequest) (*appprod.QuickCompleteResponse, error) {
	return f.quickResp, f.err
}

func (f *fakeProductionService) Return(_ context.Context, req appprod.ReturnRequest) (*appprod.ReturnResponse, error) {
	f.lastReturn = req
	return f.returnResp, f.err
}

func (f *fakeProductionService) GetBatch(_ context.Context, _ uuid.UUID) (*appprod.BatchResponse, error) {
	return f.getResp, f.err
}

func (f *fakeProductionService) ListBatches(_ context.Context, _ shared.Filter) ([]appprod.BatchResponse, int64, error) {
	return f.listResp, f.listTotal, f.err
}

func setupProductionRouter(svc ProductionService) *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1")
	NewProductionHandler(svc).RegisterRoutes(api)
	return r
}

func TestProductionHandler_Allocate(t *testing.T) {
	machineID := uuid.New()
	materialID := uuid.New()
	productID := uuid.New()
	svc := &fakeProductionService{
		allocateResp: &appprod.BatchResponse{ID: uuid.New(), Code: "PB-20260301-ABCD1234"},
	}
	r := setupProductionRouter(svc)

	body := fmt.Sprintf(`{
		"allocation_date": "2026-03-01T08:00:00Z",
		"machine_id": %q,
		"inputs": [{"material_id": %q, "quantity": "80"}],
		"output_targets": [{"product_id": %q, "target_description": "40s combed"}]
	}`, machineID, materialID, productID)

	w := performRequest(r, http.MethodPost, "/api/v1/production/batches", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.Len(t, svc.lastAllocate.Inputs, 1)
	assert.True(t, svc.lastAllocate.Inputs[0].Quantity.Equal(decimal.NewFromInt(80)))
	assert.Nil(t, svc.lastAllocate.Inputs[0].RollID)
}

func TestProductionHandler_Allocate_MissingInputs(t *testing.T) {
	r := setupProductionRouter(&fakeProductionService{})

	body := fmt.Sprintf(`{"allocation_date": "2026-03-01T08:00:00Z", "machine_id": %q, "inputs": [], "output_targets": []}`,
		uuid.New())
	w := performRequest(r, http.MethodPost, "/api/v1/production/batches", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductionHandler_Allocate_InsufficientMaterial(t *testing.T) {
	svc := &fakeProductionService{
		err: shared.NewDomainError(shared.CodeInsufficientMaterialStock, "only 60 kg in stock"),
	}
	r := setupProductionRouter(svc)

	body := fmt.Sprintf(`{
		"allocation_date": "2026-03-01T08:00:00Z",
		"machine_id": %q,
		"inputs": [{"material_id": %q, "quantity": "100"}],
		"output_targets": [{"product_id": %q}]
	}`, uuid.New(), uuid.New(), uuid.New())

	w := performRequest(r, http.MethodPost, "/api/v1/production/batches", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.CodeInsufficientMaterialStock, resp.Error.Code)
}

func TestProductionHandler_Complete(t *testing.T) {
	batchID := uuid.New()
	productID := uuid.New()
	svc := &fakeProductionService{
		completeResp: &appprod.CompleteResponse{
			BatchID:        batchID,
			LossQuantity:   decimal.NewFromInt(5),
			LossPercentage: decimal.NewFromInt(5),
		},
	}
	r := setupProductionRouter(svc)

	body := fmt.Sprintf(`{"outputs": {%q: "95"}}`, productID)
	w := performRequest(r, http.MethodPost, "/api/v1/production/batches/"+batchID.String()+"/complete", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, batchID, svc.lastComplete.BatchID)
	require.Contains(t, svc.lastComplete.Outputs, productID)
	assert.True(t, svc.lastComplete.Outputs[productID].Equal(decimal.NewFromInt(95)))
}

func TestProductionHandler_Complete_InvalidBatchID(t *testing.T) {
	r := setupProductionRouter(&fakeProductionService{})
	w := performRequest(r, http.MethodPost, "/api/v1/production/batches/not-a-uuid/complete", `{"outputs": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductionHandler_Return(t *testing.T) {
	productID := uuid.New()
	svc := &fakeProductionService{
		returnResp: &appprod.ReturnResponse{
			ProductID:        productID,
			QuantityReturned: decimal.NewFromInt(20),
		},
	}
	r := setupProductionRouter(svc)

	body := fmt.Sprintf(`{"product_id": %q, "quantity": "20", "reason": "quality rejection"}`, productID)
	w := performRequest(r, http.MethodPost, "/api/v1/production/returns", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quality rejection", svc.lastReturn.Reason)
}

func TestProductionHandler_Return_ReasonRequired(t *testing.T) {
	r := setupProductionRouter(&fakeProductionService{})

	body := fmt.Sprintf(`{"product_id": %q, "quantity": "20"}`, uuid.New())
	w := performRequest(r, http.MethodPost, "/api/v1/production/returns", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductionHandler_GetBatch_NotFound(t *testing.T) {
	svc := &fakeProductionService{err: shared.ErrNotFound}
	r := setupProductionRouter(svc)

	w := performRequest(r, http.MethodGet, "/api/v1/production/batches/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductionHandler_ListBatches_Meta(t *testing.T) {
	svc := &fakeProductionService{
		listResp:  []appprod.BatchResponse{{Code: "PB-1"}, {Code: "PB-2"}},
		listTotal: 42,
	}
	r := setupProductionRouter(svc)

	w := performRequest(r, http.MethodGet, "/api/v1/production/batches?page=2&page_size=2", "")
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 21, resp.Meta.TotalPages)
}
