package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BatchStatus represents the state of a production batch
type BatchStatus string

const (
	// BatchStatusInProgress means raw material is allocated and output is pending
	BatchStatusInProgress BatchStatus = "IN_PROGRESS"
	// BatchStatusPartiallyCompleted means part of the allocated input has produced output
	BatchStatusPartiallyCompleted BatchStatus = "PARTIALLY_COMPLETED"
	// BatchStatusCompleted means all allocated input is accounted for as output plus loss
	BatchStatusCompleted BatchStatus = "COMPLETED"
)

// String returns the string representation
func (s BatchStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusInProgress, BatchStatusPartiallyCompleted, BatchStatusCompleted:
		return true
	}
	return false
}

// BatchInput records raw material allocated to a batch from one roll.
// The roll attribution makes the consumption reversible.
type BatchInput struct {
	shared.BaseEntity
	ProductionBatchID uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_input_batch"`
	MaterialID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	RollID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	RollBatchCode     string          `gorm:"type:varchar(50);not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// BatchOutput records a target product of a batch and, after completion,
// the actual quantity produced.
type BatchOutput struct {
	shared.BaseEntity
	ProductionBatchID uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_output_batch"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	TargetDescription string          `gorm:"type:varchar(255)"`
	ActualQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// ProductionBatch represents one production run on a machine. It is created
// InProgress with its input fixed for life; completion converts consumed
// input into finished-goods output with loss accounting; reversal walks the
// same quantities backwards.
type ProductionBatch struct {
	shared.BaseEntity
	Code                  string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	MachineID             uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_machine"`
	Status                BatchStatus     `gorm:"type:varchar(25);not null;index"`
	AllocationDate        time.Time       `gorm:"not null;index"`
	CompletionDate        *time.Time      `gorm:"index"`
	Inputs                []BatchInput    `gorm:"foreignKey:ProductionBatchID;constraint:OnDelete:CASCADE"`
	Outputs               []BatchOutput   `gorm:"foreignKey:ProductionBatchID;constraint:OnDelete:CASCADE"`
	TotalInputQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ConsumedInputQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OutputQuantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LossQuantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LossPercentage        decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	// Sequence breaks FIFO ties between batches allocated at the same instant
	Sequence int64 `gorm:"autoIncrement;uniqueIndex"`
}

// OutputTarget declares a product a batch is expected to produce
type OutputTarget struct {
	ProductID         uuid.UUID
	TargetDescription string
}

// CompletionResult reports the outcome of completing a batch
type CompletionResult struct {
	BatchID        uuid.UUID         `json:"batch_id"`
	LossQuantity   decimal.Decimal   `json:"loss_quantity"`
	LossPercentage decimal.Decimal   `json:"loss_percentage"`
	Warning        *EfficiencyWarning `json:"warning,omitempty"`
}

// EfficiencyWarning flags a loss percentage above the configured threshold.
// Loss is expected in manufacturing, so the completion still succeeds; the
// warning travels with the success result and is never raised as an error.
type EfficiencyWarning struct {
	LossPercentage decimal.Decimal `json:"loss_percentage"`
	Threshold      decimal.Decimal `json:"threshold"`
	Message        string          `json:"message"`
}

// ReversalDelta reports what a reversal changed on one batch
type ReversalDelta struct {
	BatchID        uuid.UUID       `json:"batch_id"`
	BatchCode      string          `json:"batch_code"`
	OutputReversed decimal.Decimal `json:"output_reversed"`
	LossRestored   decimal.Decimal `json:"loss_restored"`
	InputRestored  decimal.Decimal `json:"input_restored"`
	NewStatus      BatchStatus     `json:"new_status"`
}

// NewProductionBatch creates a batch in InProgress with its input allocations
// already planned. Total input is fixed for the life of the batch.
func NewProductionBatch(
	code string,
	machineID uuid.UUID,
	allocationDate time.Time,
	targets []OutputTarget,
) (*ProductionBatch, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Batch code is required")
	}
	if machineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MACHINE", "Machine ID is required")
	}
	if len(targets) == 0 {
		return nil, shared.NewDomainError("NO_OUTPUT_TARGETS", "At least one output product is required")
	}

	batch := &ProductionBatch{
		BaseEntity:            shared.NewBaseEntity(),
		Code:                  code,
		MachineID:             machineID,
		Status:                BatchStatusInProgress,
		AllocationDate:        allocationDate,
		TotalInputQuantity:    decimal.Zero,
		ConsumedInputQuantity: decimal.Zero,
		OutputQuantity:        decimal.Zero,
		LossQuantity:          decimal.Zero,
		LossPercentage:        decimal.Zero,
	}

	seen := make(map[uuid.UUID]bool, len(targets))
	for _, target := range targets {
		if target.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Output product ID is required")
		}
		if seen[target.ProductID] {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Output product listed more than once")
		}
		seen[target.ProductID] = true
		batch.Outputs = append(batch.Outputs, BatchOutput{
			BaseEntity:        shared.NewBaseEntity(),
			ProductionBatchID: batch.ID,
			ProductID:         target.ProductID,
			TargetDescription: target.TargetDescription,
			ActualQuantity:    decimal.Zero,
		})
	}

	return batch, nil
}

// AddInput attaches a planned roll allocation to the batch
func (b *ProductionBatch) AddInput(materialID uuid.UUID, alloc material.RollAllocation) error {
	if b.Status != BatchStatusInProgress {
		return shared.ErrInvalidState
	}
	if alloc.QuantityTaken.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Input quantity must be positive")
	}
	b.Inputs = append(b.Inputs, BatchInput{
		BaseEntity:        shared.NewBaseEntity(),
		ProductionBatchID: b.ID,
		MaterialID:        materialID,
		RollID:            alloc.RollID,
		RollBatchCode:     alloc.BatchCode,
		Quantity:          alloc.QuantityTaken,
	})
	b.TotalInputQuantity = b.TotalInputQuantity.Add(alloc.QuantityTaken)
	b.Touch()
	return nil
}

// RemainingInputQuantity returns allocated input not yet converted to
// output plus loss. Used by the machine-pool quick completion path.
func (b *ProductionBatch) RemainingInputQuantity() decimal.Decimal {
	return b.TotalInputQuantity.Sub(b.ConsumedInputQuantity)
}

// HasRemainingInput returns true if the batch can still produce output
func (b *ProductionBatch) HasRemainingInput() bool {
	return b.Status != BatchStatusCompleted && b.RemainingInputQuantity().GreaterThan(decimal.Zero)
}

// Complete records actual output per product and transitions the batch to
// Completed. Output exceeding input violates mass conservation and is
// rejected with LOSS_EXCEEDS_INPUT; loss above the threshold only warns.
func (b *ProductionBatch) Complete(outputQuantities map[uuid.UUID]decimal.Decimal, lossWarnThreshold decimal.Decimal) (*CompletionResult, error) {
	if b.Status != BatchStatusInProgress {
		return nil, shared.NewDomainErrorf("INVALID_STATE",
			"Batch %s is %s, only in-progress batches can be completed", b.Code, b.Status)
	}

	totalOutput := decimal.Zero
	for productID, qty := range outputQuantities {
		if qty.LessThan(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Output quantity cannot be negative")
		}
		if b.findOutput(productID) == nil {
			return nil, shared.NewDomainErrorf("UNKNOWN_PRODUCT",
				"Product %s is not an output target of batch %s", productID, b.Code)
		}
		totalOutput = totalOutput.Add(qty)
	}
	if totalOutput.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Total output must be positive")
	}
	if totalOutput.GreaterThan(b.TotalInputQuantity) {
		return nil, shared.NewDomainErrorf(shared.CodeLossExceedsInput,
			"Output %s kg exceeds input %s kg on batch %s",
			totalOutput, b.TotalInputQuantity, b.Code)
	}

	for productID, qty := range outputQuantities {
		output := b.findOutput(productID)
		output.ActualQuantity = qty
		output.Touch()
	}

	now := time.Now()
	b.OutputQuantity = totalOutput
	b.LossQuantity = b.TotalInputQuantity.Sub(totalOutput)
	b.LossPercentage = lossPercent(b.LossQuantity, b.TotalInputQuantity)
	b.ConsumedInputQuantity = b.TotalInputQuantity
	b.Status = BatchStatusCompleted
	b.CompletionDate = &now
	b.Touch()

	result := &CompletionResult{
		BatchID:        b.ID,
		LossQuantity:   b.LossQuantity,
		LossPercentage: b.LossPercentage,
	}
	if lossWarnThreshold.GreaterThan(decimal.Zero) && b.LossPercentage.GreaterThan(lossWarnThreshold) {
		result.Warning = &EfficiencyWarning{
			LossPercentage: b.LossPercentage,
			Threshold:      lossWarnThreshold,
			Message:        "Loss percentage exceeds the configured threshold",
		}
	}
	return result, nil
}

// ConsumeFromPool converts part of the batch's remaining input into output
// for one product, splitting the consumed amount into produced weight and
// loss by the given loss percentage. Used by quick completion, where the
// operator knows output weight and loss before per-batch attribution.
// Returns the produced quantity recorded on the batch, which the caller
// credits to stock so the ledger matches the batch records exactly even
// when per-batch loss rounding drifts off the operator's scale weight.
func (b *ProductionBatch) ConsumeFromPool(consumed decimal.Decimal, productID uuid.UUID, lossPct decimal.Decimal) (decimal.Decimal, error) {
	if b.Status == BatchStatusCompleted {
		return decimal.Zero, shared.ErrInvalidState
	}
	if consumed.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Consumed quantity must be positive")
	}
	if consumed.GreaterThan(b.RemainingInputQuantity()) {
		return decimal.Zero, shared.NewDomainErrorf(shared.CodeInsufficientMachineCapacity,
			"Batch %s has %s kg unconsumed input, cannot consume %s kg",
			b.Code, b.RemainingInputQuantity(), consumed)
	}

	loss := consumed.Mul(lossPct).Div(decimal.NewFromInt(100)).Round(4)
	produced := consumed.Sub(loss)

	output := b.findOutput(productID)
	if output == nil {
		b.Outputs = append(b.Outputs, BatchOutput{
			BaseEntity:        shared.NewBaseEntity(),
			ProductionBatchID: b.ID,
			ProductID:         productID,
			ActualQuantity:    produced,
		})
	} else {
		output.ActualQuantity = output.ActualQuantity.Add(produced)
		output.Touch()
	}

	b.ConsumedInputQuantity = b.ConsumedInputQuantity.Add(consumed)
	b.OutputQuantity = b.OutputQuantity.Add(produced)
	b.LossQuantity = b.LossQuantity.Add(loss)
	b.LossPercentage = lossPercent(b.LossQuantity, b.ConsumedInputQuantity)

	now := time.Now()
	if b.RemainingInputQuantity().IsZero() {
		b.Status = BatchStatusCompleted
	} else {
		b.Status = BatchStatusPartiallyCompleted
	}
	b.CompletionDate = &now
	b.Touch()
	return produced, nil
}

// ReverseOutput takes back up to maxQuantity of recorded output for a product
// when finished goods are returned to production. Loss is restored
// proportionally to the reversed output, the consumed input capacity is
// freed by output plus loss, and the status regresses accordingly.
// Returns the delta applied, with OutputReversed zero when the batch has no
// output of the product left to reverse.
func (b *ProductionBatch) ReverseOutput(productID uuid.UUID, maxQuantity decimal.Decimal) (ReversalDelta, error) {
	delta := ReversalDelta{BatchID: b.ID, BatchCode: b.Code, NewStatus: b.Status}

	if maxQuantity.LessThanOrEqual(decimal.Zero) {
		return delta, shared.NewDomainError("INVALID_QUANTITY", "Reversal quantity must be positive")
	}
	if b.Status == BatchStatusInProgress {
		return delta, shared.NewDomainErrorf("INVALID_STATE",
			"Batch %s has no recorded output to reverse", b.Code)
	}

	output := b.findOutput(productID)
	if output == nil || output.ActualQuantity.LessThanOrEqual(decimal.Zero) {
		return delta, nil
	}

	reversed := decimal.Min(maxQuantity, output.ActualQuantity)

	// Loss restored proportionally: reversed × (batch loss / batch output)
	lossRestored := decimal.Zero
	if b.OutputQuantity.GreaterThan(decimal.Zero) && b.LossQuantity.GreaterThan(decimal.Zero) {
		lossRestored = reversed.Mul(b.LossQuantity).Div(b.OutputQuantity).Round(4)
		if lossRestored.GreaterThan(b.LossQuantity) {
			lossRestored = b.LossQuantity
		}
	}
	inputRestored := reversed.Add(lossRestored)

	output.ActualQuantity = output.ActualQuantity.Sub(reversed)
	output.Touch()

	b.OutputQuantity = b.OutputQuantity.Sub(reversed)
	b.LossQuantity = b.LossQuantity.Sub(lossRestored)
	b.ConsumedInputQuantity = b.ConsumedInputQuantity.Sub(inputRestored)
	if b.ConsumedInputQuantity.LessThan(decimal.Zero) {
		b.ConsumedInputQuantity = decimal.Zero
	}

	if b.OutputQuantity.LessThanOrEqual(decimal.Zero) {
		b.OutputQuantity = decimal.Zero
		b.LossQuantity = decimal.Zero
		b.ConsumedInputQuantity = decimal.Zero
		b.LossPercentage = decimal.Zero
		b.Status = BatchStatusInProgress
		b.CompletionDate = nil
	} else {
		b.LossPercentage = lossPercent(b.LossQuantity, b.ConsumedInputQuantity)
		b.Status = BatchStatusPartiallyCompleted
	}
	b.Touch()

	delta.OutputReversed = reversed
	delta.LossRestored = lossRestored
	delta.InputRestored = inputRestored
	delta.NewStatus = b.Status
	return delta, nil
}

// OutputQuantityFor returns the recorded actual output for a product
func (b *ProductionBatch) OutputQuantityFor(productID uuid.UUID) decimal.Decimal {
	if output := b.findOutput(productID); output != nil {
		return output.ActualQuantity
	}
	return decimal.Zero
}

func (b *ProductionBatch) findOutput(productID uuid.UUID) *BatchOutput {
	for i := range b.Outputs {
		if b.Outputs[i].ProductID == productID {
			return &b.Outputs[i]
		}
	}
	return nil
}

// lossPercent computes loss as a percentage of the consumed input,
// rounded to 2 decimal places
func lossPercent(loss, base decimal.Decimal) decimal.Decimal {
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return loss.Div(base).Mul(decimal.NewFromInt(100)).Round(2)
}
