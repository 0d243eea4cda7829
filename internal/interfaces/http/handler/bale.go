package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinv "github.com/loomerp/backend/internal/application/inventory"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// BaleService is the application-layer surface the handler depends on
type BaleService interface {
	Create(ctx context.Context, req appinv.CreateBaleBatchRequest) (*appinv.BaleBatchResponse, error)
	DeleteBatch(ctx context.Context, batchID uuid.UUID) ([]appinv.StockRestoration, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) (*appinv.StockRestoration, error)
	UpdateItem(ctx context.Context, req appinv.UpdateBaleItemRequest) (*appinv.BaleBatchResponse, error)
	IssueItem(ctx context.Context, itemID uuid.UUID, reference string) error
	GetBatch(ctx context.Context, batchID uuid.UUID) (*appinv.BaleBatchResponse, error)
	ListBatches(ctx context.Context, filter shared.Filter) ([]appinv.BaleBatchResponse, int64, error)
}

// BaleHandler handles bale batch endpoints
type BaleHandler struct {
	BaseHandler
	service BaleService
}

// NewBaleHandler creates a BaleHandler
func NewBaleHandler(service BaleService) *BaleHandler {
	return &BaleHandler{service: service}
}

// RegisterRoutes registers bale routes
func (h *BaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/bales")
	{
		group.POST("/batches", h.Create)
		group.GET("/batches", h.ListBatches)
		group.GET("/batches/:id", h.GetBatch)
		group.DELETE("/batches/:id", h.DeleteBatch)
		group.PUT("/items/:id", h.UpdateItem)
		group.DELETE("/items/:id", h.DeleteItem)
		group.POST("/items/:id/issue", h.IssueItem)
	}
}

type baleItemBody struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	GrossWeight     decimal.Decimal `json:"gross_weight" binding:"required"`
	WeightLossGrams decimal.Decimal `json:"weight_loss_grams"`
	PieceCount      int             `json:"piece_count" binding:"required,min=1"`
}

type createBaleBatchBody struct {
	Items []baleItemBody `json:"items" binding:"required,min=1,dive"`
}

// Create builds a bale batch, debiting finished-goods stock per product
func (h *BaleHandler) Create(c *gin.Context) {
	var body createBaleBatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	req := appinv.CreateBaleBatchRequest{}
	for _, item := range body.Items {
		req.Items = append(req.Items, appinv.BaleItemRequest{
			ProductID:       item.ProductID,
			GrossWeight:     item.GrossWeight,
			WeightLossGrams: item.WeightLossGrams,
			PieceCount:      item.PieceCount,
		})
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// DeleteBatch soft-deletes a bale batch and restores its Available items
func (h *BaleHandler) DeleteBatch(c *gin.Context) {
	batchID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	restorations, err := h.service.DeleteBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"restorations": restorations})
}

type updateBaleItemBody struct {
	PieceCount      int             `json:"piece_count" binding:"required,min=1"`
	GrossWeight     decimal.Decimal `json:"gross_weight" binding:"required"`
	WeightLossGrams decimal.Decimal `json:"weight_loss_grams"`
}

// UpdateItem edits piece count and weights of an Available bale item
func (h *BaleHandler) UpdateItem(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var body updateBaleItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.UpdateItem(c.Request.Context(), appinv.UpdateBaleItemRequest{
		ItemID:          itemID,
		PieceCount:      body.PieceCount,
		GrossWeight:     body.GrossWeight,
		WeightLossGrams: body.WeightLossGrams,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteItem soft-deletes one Available bale item
func (h *BaleHandler) DeleteItem(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	restoration, err := h.service.DeleteItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, restoration)
}

type issueBaleItemBody struct {
	Reference string `json:"reference" binding:"required"`
}

// IssueItem marks a bale as consumed by a sales invoice
func (h *BaleHandler) IssueItem(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var body issueBaleItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.service.IssueItem(c.Request.Context(), itemID, body.Reference); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetBatch returns one bale batch with its items
func (h *BaleHandler) GetBatch(c *gin.Context) {
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

// ListBatches lists bale batches with pagination
func (h *BaleHandler) ListBatches(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]any{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if code := c.Query("code"); code != "" {
		filters["code"] = code
	}

	filter := buildFilter(listReq, filters)
	batches, total, err := h.service.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}
