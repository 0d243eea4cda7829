package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/bale"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// BaleItemRequest is one bale in a creation submission
type BaleItemRequest struct {
	ProductID       uuid.UUID       `validate:"required"`
	GrossWeight     decimal.Decimal `validate:"required"`
	WeightLossGrams decimal.Decimal
	PieceCount      int `validate:"required,min=1"`
}

// CreateBaleBatchRequest creates a bale batch with one or more items,
// possibly spanning multiple products
type CreateBaleBatchRequest struct {
	Items []BaleItemRequest `validate:"required,min=1,dive"`
}

// UpdateBaleItemRequest edits an Available bale item
type UpdateBaleItemRequest struct {
	ItemID          uuid.UUID       `validate:"required"`
	PieceCount      int             `validate:"required,min=1"`
	GrossWeight     decimal.Decimal `validate:"required"`
	WeightLossGrams decimal.Decimal
}

// AdjustItemType selects what a manual stock adjustment targets
type AdjustItemType string

const (
	// AdjustItemProduct corrects a finished-goods balance
	AdjustItemProduct AdjustItemType = "PRODUCT"
	// AdjustItemMaterialRoll corrects a raw-material roll's total quantity
	AdjustItemMaterialRoll AdjustItemType = "MATERIAL_ROLL"
)

// AdjustStockRequest is a signed manual correction of a finished-goods
// balance or a material roll, selected by ItemType
type AdjustStockRequest struct {
	ItemType AdjustItemType  `validate:"required,oneof=PRODUCT MATERIAL_ROLL"`
	ItemID   uuid.UUID       `validate:"required"`
	Quantity decimal.Decimal `validate:"required"`
	Reason   string          `validate:"required,min=1,max=255"`
}

// AdjustStockResponse reports the balance left after a manual adjustment.
// For a product the balance is the stock quantity; for a roll it is the
// remaining unconsumed quantity.
type AdjustStockResponse struct {
	ItemType   AdjustItemType  `json:"item_type"`
	ItemID     uuid.UUID       `json:"item_id"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// RollIntakeLine is one roll created from a purchase bill line
type RollIntakeLine struct {
	MaterialID uuid.UUID       `validate:"required"`
	BatchCode  string          `validate:"required"`
	Quantity   decimal.Decimal `validate:"required"`
	GSM        int
	Shade      string
	WidthCM    decimal.Decimal
}

// IntakeRollsRequest creates rolls on purchase-bill confirmation
type IntakeRollsRequest struct {
	SourceBillID uuid.UUID        `validate:"required"`
	Rolls        []RollIntakeLine `validate:"required,min=1,dive"`
}

// BaleItemResponse is the API view of a bale item
type BaleItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	ProductID       uuid.UUID       `json:"product_id"`
	GrossWeight     decimal.Decimal `json:"gross_weight"`
	WeightLossGrams decimal.Decimal `json:"weight_loss_grams"`
	NetWeight       decimal.Decimal `json:"net_weight"`
	PieceCount      int             `json:"piece_count"`
	Status          string          `json:"status"`
}

// ProductUsage summarizes the net weight drawn from one product
type ProductUsage struct {
	ProductID  uuid.UUID       `json:"product_id"`
	NetWeight  decimal.Decimal `json:"net_weight"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// BaleBatchResponse is the API view of a bale batch
type BaleBatchResponse struct {
	ID          uuid.UUID          `json:"id"`
	Code        string             `json:"code"`
	Status      string             `json:"status"`
	TotalWeight decimal.Decimal    `json:"total_weight"`
	Items       []BaleItemResponse `json:"items"`
	Usage       []ProductUsage     `json:"usage,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// StockRestoration confirms what a deletion credited back
type StockRestoration struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Restored   decimal.Decimal `json:"restored"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// StockResponse is the API view of a product balance
type StockResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	BelowReorder bool            `json:"below_reorder"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MovementResponse is the API view of a stock movement
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Direction     string          `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Reason        string          `json:"reason"`
	ReferenceCode string          `json:"reference_code"`
	Note          string          `json:"note,omitempty"`
	MovementDate  time.Time       `json:"movement_date"`
}

// RollResponse is the API view of a material roll
type RollResponse struct {
	ID               uuid.UUID       `json:"id"`
	MaterialID       uuid.UUID       `json:"material_id"`
	BatchCode        string          `json:"batch_code"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	ConsumedQuantity decimal.Decimal `json:"consumed_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	Status           string          `json:"status"`
	GSM              int             `json:"gsm,omitempty"`
	Shade            string          `json:"shade,omitempty"`
	WidthCM          decimal.Decimal `json:"width_cm,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToBaleBatchResponse maps a bale batch to its API view
func ToBaleBatchResponse(batch *bale.BaleBatch) BaleBatchResponse {
	resp := BaleBatchResponse{
		ID:          batch.ID,
		Code:        batch.Code,
		Status:      string(batch.Status),
		TotalWeight: batch.TotalWeight,
		CreatedAt:   batch.CreatedAt,
	}
	for _, item := range batch.Items {
		resp.Items = append(resp.Items, BaleItemResponse{
			ID:              item.ID,
			Code:            item.Code,
			ProductID:       item.ProductID,
			GrossWeight:     item.GrossWeight,
			WeightLossGrams: item.WeightLossGrams,
			NetWeight:       item.NetWeight,
			PieceCount:      item.PieceCount,
			Status:          string(item.Status),
		})
	}
	return resp
}

// ToStockResponse maps a product stock row to its API view
func ToStockResponse(row *stock.ProductStock) StockResponse {
	return StockResponse{
		ProductID:    row.ProductID,
		Quantity:     row.Quantity,
		ReorderLevel: row.ReorderLevel,
		BelowReorder: row.IsBelowReorder(),
		UpdatedAt:    row.UpdatedAt,
	}
}

// ToMovementResponse maps a movement to its API view
func ToMovementResponse(m *stock.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Direction:     m.Direction.String(),
		Quantity:      m.Quantity,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Reason:        string(m.Reason),
		ReferenceCode: m.ReferenceCode,
		Note:          m.Note,
		MovementDate:  m.MovementDate,
	}
}

// ToRollResponse maps a material roll to its API view
func ToRollResponse(r *material.MaterialRoll) RollResponse {
	return RollResponse{
		ID:                r.ID,
		MaterialID:        r.MaterialID,
		BatchCode:         r.BatchCode,
		TotalQuantity:     r.TotalQuantity,
		ConsumedQuantity:  r.ConsumedQuantity,
		RemainingQuantity: r.RemainingQuantity(),
		Status:            r.Status.String(),
		GSM:               r.GSM,
		Shade:             r.Shade,
		WidthCM:           r.WidthCM,
		CreatedAt:         r.CreatedAt,
	}
}
