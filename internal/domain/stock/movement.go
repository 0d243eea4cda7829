package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementDirection is the direction of a stock movement
type MovementDirection string

const (
	// MovementIn credits the product balance
	MovementIn MovementDirection = "IN"
	// MovementOut debits the product balance
	MovementOut MovementDirection = "OUT"
)

// String returns the string representation
func (d MovementDirection) String() string {
	return string(d)
}

// IsValid returns true if the direction is valid
func (d MovementDirection) IsValid() bool {
	return d == MovementIn || d == MovementOut
}

// MovementReason categorizes what caused a movement
type MovementReason string

const (
	// ReasonBatchCompletion is output credited by a completed production batch
	ReasonBatchCompletion MovementReason = "BATCH_COMPLETION"
	// ReasonBaleCreation is stock bundled into a bale
	ReasonBaleCreation MovementReason = "BALE_CREATION"
	// ReasonBaleDeletion is stock restored from a deleted bale
	ReasonBaleDeletion MovementReason = "BALE_DELETION"
	// ReasonSalesInvoice is stock shipped on a confirmed sales invoice
	ReasonSalesInvoice MovementReason = "SALES_INVOICE"
	// ReasonReturnToProduction is stock sent back into open batches
	ReasonReturnToProduction MovementReason = "RETURN_TO_PRODUCTION"
	// ReasonManualAdjustment is an operator correction
	ReasonManualAdjustment MovementReason = "MANUAL_ADJUSTMENT"
)

// StockMovement is an immutable record of one balance change. Movements are
// append-only; corrections are made with new movements, never by editing.
type StockMovement struct {
	shared.BaseEntity
	ProductID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_movement_product"`
	Direction     MovementDirection `gorm:"type:varchar(5);not null"`
	Quantity      decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	BalanceBefore decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Reason        MovementReason    `gorm:"type:varchar(30);not null;index"`
	ReferenceCode string            `gorm:"type:varchar(50);not null;index"`
	Note          string            `gorm:"type:varchar(255)"`
	MovementDate  time.Time         `gorm:"not null;index"`
}

// NewStockMovement records one balance change. Quantity is always positive;
// the direction carries the sign.
func NewStockMovement(
	productID uuid.UUID,
	direction MovementDirection,
	quantity, balanceBefore, balanceAfter decimal.Decimal,
	reason MovementReason,
	referenceCode, note string,
) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID is required")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Movement direction must be IN or OUT")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity must be positive")
	}
	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     productID,
		Direction:     direction,
		Quantity:      quantity,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Reason:        reason,
		ReferenceCode: referenceCode,
		Note:          note,
		MovementDate:  time.Now(),
	}, nil
}
