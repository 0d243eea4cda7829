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

// StockService is the application-layer surface the handler depends on
type StockService interface {
	Adjust(ctx context.Context, req appinv.AdjustStockRequest) (*appinv.AdjustStockResponse, error)
	IntakeRolls(ctx context.Context, req appinv.IntakeRollsRequest) ([]appinv.RollResponse, error)
	GetByProduct(ctx context.Context, productID uuid.UUID) (*appinv.StockResponse, error)
	SetReorderLevel(ctx context.Context, productID uuid.UUID, level decimal.Decimal) (*appinv.StockResponse, error)
	ListBelowReorder(ctx context.Context, filter shared.Filter) ([]appinv.StockResponse, error)
	ListMovements(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]appinv.MovementResponse, int64, error)
	ListRolls(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]appinv.RollResponse, int64, error)
}

// StockHandler handles finished-goods stock and raw-material roll endpoints
type StockHandler struct {
	BaseHandler
	service StockService
}

// NewStockHandler creates a StockHandler
func NewStockHandler(service StockService) *StockHandler {
	return &StockHandler{service: service}
}

// RegisterRoutes registers stock and roll routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stocks := rg.Group("/stocks")
	{
		stocks.GET("/below-reorder", h.ListBelowReorder)
		stocks.GET("/:product_id", h.GetByProduct)
		stocks.GET("/:product_id/movements", h.ListMovements)
		stocks.PUT("/:product_id/reorder-level", h.SetReorderLevel)
		stocks.POST("/adjustments", h.Adjust)
	}
	rolls := rg.Group("/rolls")
	{
		rolls.POST("/intake", h.IntakeRolls)
		rolls.GET("", h.ListRolls)
	}
}

type adjustStockBody struct {
	ItemType string          `json:"item_type" binding:"required,oneof=PRODUCT MATERIAL_ROLL"`
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Reason   string          `json:"reason" binding:"required,min=1,max=255"`
}

// Adjust applies a signed manual correction to a product balance or a
// material roll
func (h *StockHandler) Adjust(c *gin.Context) {
	var body adjustStockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Adjust(c.Request.Context(), appinv.AdjustStockRequest{
		ItemType: appinv.AdjustItemType(body.ItemType),
		ItemID:   body.ItemID,
		Quantity: body.Quantity,
		Reason:   body.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

type rollIntakeLineBody struct {
	MaterialID uuid.UUID       `json:"material_id" binding:"required"`
	BatchCode  string          `json:"batch_code" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	GSM        int             `json:"gsm"`
	Shade      string          `json:"shade"`
	WidthCM    decimal.Decimal `json:"width_cm"`
}

type intakeRollsBody struct {
	SourceBillID uuid.UUID            `json:"source_bill_id" binding:"required"`
	Rolls        []rollIntakeLineBody `json:"rolls" binding:"required,min=1,dive"`
}

// IntakeRolls creates rolls from a confirmed purchase bill
func (h *StockHandler) IntakeRolls(c *gin.Context) {
	var body intakeRollsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	req := appinv.IntakeRollsRequest{SourceBillID: body.SourceBillID}
	for _, line := range body.Rolls {
		req.Rolls = append(req.Rolls, appinv.RollIntakeLine{
			MaterialID: line.MaterialID,
			BatchCode:  line.BatchCode,
			Quantity:   line.Quantity,
			GSM:        line.GSM,
			Shade:      line.Shade,
			WidthCM:    line.WidthCM,
		})
	}

	rolls, err := h.service.IntakeRolls(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rolls)
}

// GetByProduct returns the stock balance for one product
func (h *StockHandler) GetByProduct(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "product_id")
	if !ok {
		return
	}
	resp, err := h.service.GetByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

type reorderLevelBody struct {
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}

// SetReorderLevel updates the reorder threshold for a product
func (h *StockHandler) SetReorderLevel(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "product_id")
	if !ok {
		return
	}
	var body reorderLevelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.SetReorderLevel(c.Request.Context(), productID, body.ReorderLevel)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListBelowReorder returns products whose balance is under the reorder level
func (h *StockHandler) ListBelowReorder(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rows, err := h.service.ListBelowReorder(c.Request.Context(), buildFilter(listReq, nil))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// ListMovements returns the movement ledger for one product, newest first
func (h *StockHandler) ListMovements(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "product_id")
	if !ok {
		return
	}
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]any{}
	if direction := c.Query("direction"); direction != "" {
		filters["direction"] = direction
	}
	if reason := c.Query("reason"); reason != "" {
		filters["reason"] = reason
	}
	if reference := c.Query("reference_code"); reference != "" {
		filters["reference_code"] = reference
	}

	filter := buildFilter(listReq, filters)
	movements, total, err := h.service.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

// ListRolls lists rolls of a material. The material_id query parameter is
// required; rolls are only ever browsed per material.
func (h *StockHandler) ListRolls(c *gin.Context) {
	materialID, err := uuid.Parse(c.Query("material_id"))
	if err != nil {
		h.BadRequest(c, "Invalid material_id parameter")
		return
	}
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]any{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if c.Query("in_stock") == "true" {
		filters["in_stock"] = true
	}

	filter := buildFilter(listReq, filters)
	rolls, total, err := h.service.ListRolls(c.Request.Context(), materialID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, rolls, total, filter.Page, filter.PageSize)
}
