package stock

import (
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ApplyMovement mutates the balance and produces the paired movement record
// in one step, so callers cannot change one without the other. The caller is
// responsible for persisting both inside a single transaction.
func ApplyMovement(
	s *ProductStock,
	direction MovementDirection,
	quantity decimal.Decimal,
	reason MovementReason,
	referenceCode, note string,
) (*StockMovement, error) {
	before := s.Quantity

	var err error
	switch direction {
	case MovementIn:
		err = s.Credit(quantity)
	case MovementOut:
		err = s.Debit(quantity)
	default:
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Movement direction must be IN or OUT")
	}
	if err != nil {
		return nil, err
	}

	return NewStockMovement(s.ProductID, direction, quantity, before, s.Quantity, reason, referenceCode, note)
}
