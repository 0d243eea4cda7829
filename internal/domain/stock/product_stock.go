package stock

import (
	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStock is the aggregate sellable balance for one finished product.
// The balance is a cached total: every mutation must be paired with a
// StockMovement written in the same transaction, so the cached value never
// drifts from the movement ledger.
type ProductStock struct {
	shared.BaseEntity
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReorderLevel decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// NewProductStock creates a zero-balance stock row for a product
func NewProductStock(productID uuid.UUID) (*ProductStock, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID is required")
	}
	return &ProductStock{
		BaseEntity:   shared.NewBaseEntity(),
		ProductID:    productID,
		Quantity:     decimal.Zero,
		ReorderLevel: decimal.Zero,
	}, nil
}

// Credit increases the balance
func (s *ProductStock) Credit(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Credit quantity must be positive")
	}
	s.Quantity = s.Quantity.Add(quantity)
	s.Touch()
	return nil
}

// Debit decreases the balance. The balance can never go negative; the
// sufficiency check and the mutation happen together so a failed debit
// leaves the row untouched.
func (s *ProductStock) Debit(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Debit quantity must be positive")
	}
	if quantity.GreaterThan(s.Quantity) {
		return shared.NewDomainErrorf(shared.CodeInsufficientStock,
			"Product %s has %s kg in stock, requested %s kg",
			s.ProductID, s.Quantity, quantity)
	}
	s.Quantity = s.Quantity.Sub(quantity)
	s.Touch()
	return nil
}

// SetReorderLevel updates the reorder threshold
func (s *ProductStock) SetReorderLevel(level decimal.Decimal) error {
	if level.LessThan(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Reorder level cannot be negative")
	}
	s.ReorderLevel = level
	s.Touch()
	return nil
}

// IsBelowReorder returns true if the balance is below the reorder level
func (s *ProductStock) IsBelowReorder() bool {
	return s.ReorderLevel.GreaterThan(decimal.Zero) && s.Quantity.LessThan(s.ReorderLevel)
}
