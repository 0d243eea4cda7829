package inventory

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockService handles finished-goods balances, the movement ledger and
// raw-material roll intake
type StockService struct {
	scope        TransactionScope
	stockRepo    stock.ProductStockRepository
	movementRepo stock.StockMovementRepository
	rollRepo     material.MaterialRollRepository
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewStockService creates a StockService
func NewStockService(
	scope TransactionScope,
	stockRepo stock.ProductStockRepository,
	movementRepo stock.StockMovementRepository,
	rollRepo material.MaterialRollRepository,
	logger *zap.Logger,
) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		scope:        scope,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		rollRepo:     rollRepo,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Adjust applies a signed manual correction to a finished-goods balance or
// a material roll, selected by the item type. The reason is mandatory; a
// correction that would drive the balance below zero, or a roll's total
// below its consumed quantity, fails without touching anything.
func (s *StockService) Adjust(ctx context.Context, req AdjustStockRequest) (*AdjustStockResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if req.Quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
	}

	var response *AdjustStockResponse
	var err error
	switch req.ItemType {
	case AdjustItemProduct:
		response, err = s.adjustProduct(ctx, req)
	case AdjustItemMaterialRoll:
		response, err = s.adjustRoll(ctx, req)
	default:
		return nil, shared.NewDomainError("INVALID_ITEM_TYPE", "Unknown adjustment item type")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("item_type", string(req.ItemType)),
		zap.String("item_id", req.ItemID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("reason", req.Reason),
	)
	return response, nil
}

// adjustProduct corrects a product balance and records the paired movement
func (s *StockService) adjustProduct(ctx context.Context, req AdjustStockRequest) (*AdjustStockResponse, error) {
	direction := stock.MovementIn
	quantity := req.Quantity
	if req.Quantity.IsNegative() {
		direction = stock.MovementOut
		quantity = req.Quantity.Neg()
	}

	var response AdjustStockResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		row, err := repos.Stocks().GetOrCreate(ctx, req.ItemID)
		if err != nil {
			return err
		}
		movement, err := stock.ApplyMovement(row, direction, quantity,
			stock.ReasonManualAdjustment, "ADJ", req.Reason)
		if err != nil {
			return err
		}
		if err := repos.Stocks().Save(ctx, row); err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, movement); err != nil {
			return err
		}
		response = AdjustStockResponse{
			ItemType:   AdjustItemProduct,
			ItemID:     req.ItemID,
			NewBalance: row.Quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// adjustRoll corrects a roll's total quantity, typically after a re-weigh.
// Rolls have no movement ledger; the reason lands in the log only.
func (s *StockService) adjustRoll(ctx context.Context, req AdjustStockRequest) (*AdjustStockResponse, error) {
	var response AdjustStockResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		roll, err := repos.Rolls().FindByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if err := roll.AdjustTotal(req.Quantity); err != nil {
			return err
		}
		if err := repos.Rolls().Save(ctx, roll); err != nil {
			return err
		}
		response = AdjustStockResponse{
			ItemType:   AdjustItemMaterialRoll,
			ItemID:     req.ItemID,
			NewBalance: roll.RemainingQuantity(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// IntakeRolls creates material rolls from a confirmed purchase bill
func (s *StockService) IntakeRolls(ctx context.Context, req IntakeRollsRequest) ([]RollResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	var responses []RollResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		rolls := make([]*material.MaterialRoll, 0, len(req.Rolls))
		for _, line := range req.Rolls {
			roll, err := material.NewMaterialRoll(line.MaterialID, line.BatchCode, line.Quantity)
			if err != nil {
				return err
			}
			roll.GSM = line.GSM
			roll.Shade = line.Shade
			roll.WidthCM = line.WidthCM
			billID := req.SourceBillID
			roll.SourceBillID = &billID
			rolls = append(rolls, roll)
		}
		if err := repos.Rolls().SaveAll(ctx, rolls); err != nil {
			return err
		}
		responses = make([]RollResponse, 0, len(rolls))
		for _, roll := range rolls {
			responses = append(responses, ToRollResponse(roll))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("material rolls received",
		zap.String("source_bill_id", req.SourceBillID.String()),
		zap.Int("rolls", len(responses)),
	)
	return responses, nil
}

// GetByProduct returns the balance for one product
func (s *StockService) GetByProduct(ctx context.Context, productID uuid.UUID) (*StockResponse, error) {
	row, err := s.stockRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToStockResponse(row)
	return &response, nil
}

// SetReorderLevel updates the reorder threshold for a product
func (s *StockService) SetReorderLevel(ctx context.Context, productID uuid.UUID, level decimal.Decimal) (*StockResponse, error) {
	var response StockResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		row, err := repos.Stocks().GetOrCreate(ctx, productID)
		if err != nil {
			return err
		}
		if err := row.SetReorderLevel(level); err != nil {
			return err
		}
		if err := repos.Stocks().Save(ctx, row); err != nil {
			return err
		}
		response = ToStockResponse(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ListBelowReorder returns products under their reorder level
func (s *StockService) ListBelowReorder(ctx context.Context, filter shared.Filter) ([]StockResponse, error) {
	rows, err := s.stockRepo.FindBelowReorder(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]StockResponse, 0, len(rows))
	for i := range rows {
		responses = append(responses, ToStockResponse(&rows[i]))
	}
	return responses, nil
}

// ListMovements returns the movement history for a product, newest first
func (s *StockService) ListMovements(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]MovementResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	movements, err := s.movementRepo.FindByProduct(ctx, productID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.movementRepo.CountByProduct(ctx, productID, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, ToMovementResponse(&movements[i]))
	}
	return responses, total, nil
}

// ListRolls returns rolls for a material with pagination
func (s *StockService) ListRolls(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]RollResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rolls, err := s.rollRepo.FindByMaterial(ctx, materialID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.rollRepo.CountByMaterial(ctx, materialID, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]RollResponse, 0, len(rolls))
	for i := range rolls {
		responses = append(responses, ToRollResponse(&rolls[i]))
	}
	return responses, total, nil
}
