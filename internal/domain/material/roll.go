package material

import (
	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RollStatus represents the lifecycle state of a material roll
type RollStatus string

const (
	// RollStatusInStock means the roll has remaining quantity available for allocation
	RollStatusInStock RollStatus = "IN_STOCK"
	// RollStatusReserved means the roll is held for a planned production run
	RollStatusReserved RollStatus = "RESERVED"
	// RollStatusConsumed means the roll is fully consumed
	RollStatusConsumed RollStatus = "CONSUMED"
)

// String returns the string representation
func (s RollStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s RollStatus) IsValid() bool {
	switch s {
	case RollStatusInStock, RollStatusReserved, RollStatusConsumed:
		return true
	}
	return false
}

// MaterialRoll represents one physical roll/lot of raw material, tracked
// individually so consumption can be attributed and reversed per roll.
// ConsumedQuantity only increases on allocation; it decreases solely through
// an explicit reversal of a recorded allocation.
type MaterialRoll struct {
	shared.BaseEntity
	MaterialID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_roll_material"`
	BatchCode        string          `gorm:"type:varchar(50);not null;index"`
	TotalQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ConsumedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status           RollStatus      `gorm:"type:varchar(20);not null;index"`
	GSM              int             `gorm:"not null;default:0"`
	Shade            string          `gorm:"type:varchar(30)"`
	WidthCM          decimal.Decimal `gorm:"type:decimal(10,2)"`
	SourceBillID     *uuid.UUID      `gorm:"type:uuid;index"`
	// Sequence breaks FIFO ties between rolls created at the same instant
	Sequence int64 `gorm:"autoIncrement;uniqueIndex"`
}

// NewMaterialRoll creates a roll from a confirmed purchase bill line
func NewMaterialRoll(materialID uuid.UUID, batchCode string, totalQuantity decimal.Decimal) (*MaterialRoll, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID is required")
	}
	if batchCode == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_CODE", "Batch code is required")
	}
	if totalQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Roll quantity must be positive")
	}
	return &MaterialRoll{
		BaseEntity:       shared.NewBaseEntity(),
		MaterialID:       materialID,
		BatchCode:        batchCode,
		TotalQuantity:    totalQuantity,
		ConsumedQuantity: decimal.Zero,
		Status:           RollStatusInStock,
	}, nil
}

// RemainingQuantity returns the unconsumed quantity on the roll
func (r *MaterialRoll) RemainingQuantity() decimal.Decimal {
	return r.TotalQuantity.Sub(r.ConsumedQuantity)
}

// IsAvailable returns true if the roll can be allocated from
func (r *MaterialRoll) IsAvailable() bool {
	return r.Status == RollStatusInStock && r.RemainingQuantity().GreaterThan(decimal.Zero)
}

// Consume increases ConsumedQuantity by the given amount.
// The roll flips to Consumed exactly when consumed == total.
func (r *MaterialRoll) Consume(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Consumption quantity must be positive")
	}
	if quantity.GreaterThan(r.RemainingQuantity()) {
		return shared.NewDomainErrorf(shared.CodeInsufficientRollQuantity,
			"Roll %s has %s kg remaining, requested %s kg",
			r.BatchCode, r.RemainingQuantity(), quantity)
	}
	r.ConsumedQuantity = r.ConsumedQuantity.Add(quantity)
	if r.ConsumedQuantity.Equal(r.TotalQuantity) {
		r.Status = RollStatusConsumed
	}
	r.Touch()
	return nil
}

// Restore decreases ConsumedQuantity when a recorded allocation is reversed.
// It is the only path by which consumption goes down.
func (r *MaterialRoll) Restore(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Restore quantity must be positive")
	}
	if quantity.GreaterThan(r.ConsumedQuantity) {
		return shared.NewDomainErrorf("RESTORE_EXCEEDS_CONSUMED",
			"Roll %s has %s kg consumed, cannot restore %s kg",
			r.BatchCode, r.ConsumedQuantity, quantity)
	}
	r.ConsumedQuantity = r.ConsumedQuantity.Sub(quantity)
	if r.Status == RollStatusConsumed {
		r.Status = RollStatusInStock
	}
	r.Touch()
	return nil
}

// AdjustTotal applies a signed correction to the roll's total quantity,
// typically after a re-weigh. The total cannot drop below what is already
// consumed; the status tracks the corrected remainder.
func (r *MaterialRoll) AdjustTotal(delta decimal.Decimal) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
	}
	newTotal := r.TotalQuantity.Add(delta)
	if newTotal.LessThan(r.ConsumedQuantity) {
		return shared.NewDomainErrorf(shared.CodeInsufficientRollQuantity,
			"Roll %s has %s kg consumed, total cannot drop to %s kg",
			r.BatchCode, r.ConsumedQuantity, newTotal)
	}
	r.TotalQuantity = newTotal
	if r.Status != RollStatusReserved {
		if r.ConsumedQuantity.Equal(r.TotalQuantity) {
			r.Status = RollStatusConsumed
		} else if r.Status == RollStatusConsumed {
			r.Status = RollStatusInStock
		}
	}
	r.Touch()
	return nil
}

// Reserve marks the roll as held for a planned production run
func (r *MaterialRoll) Reserve() error {
	if r.Status != RollStatusInStock {
		return shared.ErrInvalidState
	}
	r.Status = RollStatusReserved
	r.Touch()
	return nil
}

// Release returns a reserved roll to stock
func (r *MaterialRoll) Release() error {
	if r.Status != RollStatusReserved {
		return shared.ErrInvalidState
	}
	r.Status = RollStatusInStock
	r.Touch()
	return nil
}
