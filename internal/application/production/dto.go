package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/production"
	"github.com/shopspring/decimal"
)

// AllocationInput is one raw-material draw for a new batch. RollID pins the
// consumption to a specific roll; when nil the allocator picks oldest-first.
type AllocationInput struct {
	MaterialID uuid.UUID       `validate:"required"`
	RollID     *uuid.UUID      `validate:"omitempty"`
	Quantity   decimal.Decimal `validate:"required"`
}

// AllocateRequest creates a production batch
type AllocateRequest struct {
	AllocationDate time.Time                 `validate:"required"`
	MachineID      uuid.UUID                 `validate:"required"`
	Inputs         []AllocationInput         `validate:"required,min=1,dive"`
	OutputTargets  []production.OutputTarget `validate:"required,min=1"`
}

// CompleteRequest records actual output for an in-progress batch
type CompleteRequest struct {
	BatchID uuid.UUID                     `validate:"required"`
	Outputs map[uuid.UUID]decimal.Decimal `validate:"required,min=1"`
}

// QuickCompleteRequest completes against the pooled input of a machine
type QuickCompleteRequest struct {
	MachineID         uuid.UUID       `validate:"required"`
	ProductID         uuid.UUID       `validate:"required"`
	OutputWeight      decimal.Decimal `validate:"required"`
	WeightLossPercent decimal.Decimal
}

// ReturnRequest sends finished goods back into open production batches
type ReturnRequest struct {
	ProductID uuid.UUID       `validate:"required"`
	Quantity  decimal.Decimal `validate:"required"`
	Reason    string          `validate:"required,min=1,max=255"`
}

// BatchInputResponse describes one roll allocation on a batch
type BatchInputResponse struct {
	MaterialID    uuid.UUID       `json:"material_id"`
	RollID        uuid.UUID       `json:"roll_id"`
	RollBatchCode string          `json:"roll_batch_code"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// BatchOutputResponse describes one product output of a batch
type BatchOutputResponse struct {
	ProductID         uuid.UUID       `json:"product_id"`
	TargetDescription string          `json:"target_description,omitempty"`
	ActualQuantity    decimal.Decimal `json:"actual_quantity"`
}

// BatchResponse is the API view of a production batch
type BatchResponse struct {
	ID                    uuid.UUID             `json:"id"`
	Code                  string                `json:"code"`
	MachineID             uuid.UUID             `json:"machine_id"`
	Status                string                `json:"status"`
	AllocationDate        time.Time             `json:"allocation_date"`
	CompletionDate        *time.Time            `json:"completion_date,omitempty"`
	Inputs                []BatchInputResponse  `json:"inputs"`
	Outputs               []BatchOutputResponse `json:"outputs"`
	TotalInputQuantity    decimal.Decimal       `json:"total_input_quantity"`
	ConsumedInputQuantity decimal.Decimal       `json:"consumed_input_quantity"`
	OutputQuantity        decimal.Decimal       `json:"output_quantity"`
	LossQuantity          decimal.Decimal       `json:"loss_quantity"`
	LossPercentage        decimal.Decimal       `json:"loss_percentage"`
}

// CompleteResponse reports a completion with its loss accounting
type CompleteResponse struct {
	BatchID        uuid.UUID                      `json:"batch_id"`
	LossQuantity   decimal.Decimal                `json:"loss_quantity"`
	LossPercentage decimal.Decimal                `json:"loss_percentage"`
	Warning        *production.EfficiencyWarning  `json:"warning,omitempty"`
}

// QuickCompleteResponse reports a machine-pool completion. OutputWeight is
// the quantity credited to stock, summed from what the touched batches
// recorded; it can sit a rounding step away from the requested scale weight.
type QuickCompleteResponse struct {
	ConsumedQuantity decimal.Decimal               `json:"consumed_quantity"`
	OutputWeight     decimal.Decimal               `json:"output_weight"`
	BatchesTouched   []uuid.UUID                   `json:"batches_touched"`
	Warning          *production.EfficiencyWarning `json:"warning,omitempty"`
}

// ReturnResponse reports a return-to-production with per-batch deltas.
// The delta list is part of the operation's contract, not telemetry.
type ReturnResponse struct {
	ProductID        uuid.UUID                  `json:"product_id"`
	QuantityReturned decimal.Decimal            `json:"quantity_returned"`
	NewStockBalance  decimal.Decimal            `json:"new_stock_balance"`
	AffectedBatches  []production.ReversalDelta `json:"affected_batches"`
}

// ToBatchResponse maps a domain batch to its API view
func ToBatchResponse(batch *production.ProductionBatch) BatchResponse {
	resp := BatchResponse{
		ID:                    batch.ID,
		Code:                  batch.Code,
		MachineID:             batch.MachineID,
		Status:                batch.Status.String(),
		AllocationDate:        batch.AllocationDate,
		CompletionDate:        batch.CompletionDate,
		TotalInputQuantity:    batch.TotalInputQuantity,
		ConsumedInputQuantity: batch.ConsumedInputQuantity,
		OutputQuantity:        batch.OutputQuantity,
		LossQuantity:          batch.LossQuantity,
		LossPercentage:        batch.LossPercentage,
	}
	for _, input := range batch.Inputs {
		resp.Inputs = append(resp.Inputs, BatchInputResponse{
			MaterialID:    input.MaterialID,
			RollID:        input.RollID,
			RollBatchCode: input.RollBatchCode,
			Quantity:      input.Quantity,
		})
	}
	for _, output := range batch.Outputs {
		resp.Outputs = append(resp.Outputs, BatchOutputResponse{
			ProductID:         output.ProductID,
			TargetDescription: output.TargetDescription,
			ActualQuantity:    output.ActualQuantity,
		})
	}
	return resp
}
