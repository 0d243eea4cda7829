package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appprod "github.com/loomerp/backend/internal/application/production"
	"github.com/loomerp/backend/internal/domain/production"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// ProductionService is the application-layer surface the handler depends on
type ProductionService interface {
	Allocate(ctx context.Context, req appprod.AllocateRequest) (*appprod.BatchResponse, error)
	Complete(ctx context.Context, req appprod.CompleteRequest) (*appprod.CompleteResponse, error)
	QuickComplete(ctx context.Context, req appprod.QuickCompleteRequest) (*appprod.QuickCompleteResponse, error)
	Return(ctx context.Context, req appprod.ReturnRequest) (*appprod.ReturnResponse, error)
	GetBatch(ctx context.Context, batchID uuid.UUID) (*appprod.BatchResponse, error)
	ListBatches(ctx context.Context, filter shared.Filter) ([]appprod.BatchResponse, int64, error)
}

// ProductionHandler handles production batch endpoints
type ProductionHandler struct {
	BaseHandler
	service ProductionService
}

// NewProductionHandler creates a ProductionHandler
func NewProductionHandler(service ProductionService) *ProductionHandler {
	return &ProductionHandler{service: service}
}

// RegisterRoutes registers production routes
func (h *ProductionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/production")
	{
		group.POST("/batches", h.Allocate)
		group.GET("/batches", h.ListBatches)
		group.GET("/batches/:id", h.GetBatch)
		group.POST("/batches/:id/complete", h.Complete)
		group.POST("/quick-complete", h.QuickComplete)
		group.POST("/returns", h.Return)
	}
}

type allocationInputBody struct {
	MaterialID uuid.UUID       `json:"material_id" binding:"required"`
	RollID     *uuid.UUID      `json:"roll_id"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
}

type outputTargetBody struct {
	ProductID         uuid.UUID `json:"product_id" binding:"required"`
	TargetDescription string    `json:"target_description"`
}

type allocateBatchBody struct {
	AllocationDate time.Time             `json:"allocation_date" binding:"required"`
	MachineID      uuid.UUID             `json:"machine_id" binding:"required"`
	Inputs         []allocationInputBody `json:"inputs" binding:"required,min=1,dive"`
	OutputTargets  []outputTargetBody    `json:"output_targets" binding:"required,min=1,dive"`
}

// Allocate creates a production batch, debiting raw-material rolls
func (h *ProductionHandler) Allocate(c *gin.Context) {
	var body allocateBatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	req := appprod.AllocateRequest{
		AllocationDate: body.AllocationDate,
		MachineID:      body.MachineID,
	}
	for _, input := range body.Inputs {
		req.Inputs = append(req.Inputs, appprod.AllocationInput{
			MaterialID: input.MaterialID,
			RollID:     input.RollID,
			Quantity:   input.Quantity,
		})
	}
	for _, target := range body.OutputTargets {
		req.OutputTargets = append(req.OutputTargets, production.OutputTarget{
			ProductID:         target.ProductID,
			TargetDescription: target.TargetDescription,
		})
	}

	resp, err := h.service.Allocate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

type completeBatchBody struct {
	Outputs map[uuid.UUID]decimal.Decimal `json:"outputs" binding:"required"`
}

// Complete records actual output for a batch
func (h *ProductionHandler) Complete(c *gin.Context) {
	batchID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var body completeBatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Complete(c.Request.Context(), appprod.CompleteRequest{
		BatchID: batchID,
		Outputs: body.Outputs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

type quickCompleteBody struct {
	MachineID         uuid.UUID       `json:"machine_id" binding:"required"`
	ProductID         uuid.UUID       `json:"product_id" binding:"required"`
	OutputWeight      decimal.Decimal `json:"output_weight" binding:"required"`
	WeightLossPercent decimal.Decimal `json:"weight_loss_percent"`
}

// QuickComplete completes against the pooled input of a machine
func (h *ProductionHandler) QuickComplete(c *gin.Context) {
	var body quickCompleteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.QuickComplete(c.Request.Context(), appprod.QuickCompleteRequest{
		MachineID:         body.MachineID,
		ProductID:         body.ProductID,
		OutputWeight:      body.OutputWeight,
		WeightLossPercent: body.WeightLossPercent,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

type returnToProductionBody struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Reason    string          `json:"reason" binding:"required,min=1,max=255"`
}

// Return sends finished goods back into open production batches
func (h *ProductionHandler) Return(c *gin.Context) {
	var body returnToProductionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Return(c.Request.Context(), appprod.ReturnRequest{
		ProductID: body.ProductID,
		Quantity:  body.Quantity,
		Reason:    body.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetBatch returns one batch with its inputs and outputs
func (h *ProductionHandler) GetBatch(c *gin.Context) {
	batchID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListBatches lists batches with pagination and optional status/machine filters
func (h *ProductionHandler) ListBatches(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]any{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if machineID := c.Query("machine_id"); machineID != "" {
		id, err := uuid.Parse(machineID)
		if err != nil {
			h.BadRequest(c, "Invalid machine_id parameter")
			return
		}
		filters["machine_id"] = id
	}
	if c.Query("open") == "true" {
		filters["open"] = true
	}

	filter := buildFilter(listReq, filters)
	batches, total, err := h.service.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}
