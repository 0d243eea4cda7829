package production

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/production"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultLossWarnThreshold is the loss percentage above which completions
// carry an efficiency warning. It is a policy knob, not a law of the domain,
// and can be overridden through configuration.
var DefaultLossWarnThreshold = decimal.NewFromInt(5)

var oneHundred = decimal.NewFromInt(100)

// Service orchestrates production batch allocation, completion and reversal
type Service struct {
	scope             TransactionScope
	batchRepo         production.ProductionBatchRepository
	validate          *validator.Validate
	logger            *zap.Logger
	lossWarnThreshold decimal.Decimal
}

// NewService creates a production Service
func NewService(
	scope TransactionScope,
	batchRepo production.ProductionBatchRepository,
	lossWarnThreshold decimal.Decimal,
	logger *zap.Logger,
) *Service {
	if lossWarnThreshold.LessThanOrEqual(decimal.Zero) {
		lossWarnThreshold = DefaultLossWarnThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scope:             scope,
		batchRepo:         batchRepo,
		validate:          validator.New(),
		logger:            logger,
		lossWarnThreshold: lossWarnThreshold,
	}
}

// Allocate creates a production batch, debiting raw-material rolls through
// the FIFO allocator. Each input is allocated independently; any shortfall
// aborts the whole creation with no partial debit.
func (s *Service) Allocate(ctx context.Context, req AllocateRequest) (*BatchResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	for _, input := range req.Inputs {
		if input.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Input quantity must be positive")
		}
	}

	var response BatchResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := production.NewProductionBatch(
			generateCode("PB"), req.MachineID, req.AllocationDate, req.OutputTargets)
		if err != nil {
			return err
		}

		for _, input := range req.Inputs {
			rolls, err := repos.Rolls().FindInStockByMaterial(ctx, input.MaterialID)
			if err != nil {
				return err
			}
			plan, err := material.PlanConsumption(input.Quantity, rolls, input.RollID)
			if err != nil {
				return err
			}

			touched := make([]*material.MaterialRoll, 0, len(plan.Allocations))
			byID := make(map[uuid.UUID]*material.MaterialRoll, len(rolls))
			for i := range rolls {
				byID[rolls[i].ID] = &rolls[i]
			}
			for _, alloc := range plan.Allocations {
				touched = append(touched, byID[alloc.RollID])
			}
			if err := material.ApplyConsumptionPlan(touched, plan); err != nil {
				return err
			}
			if err := repos.Rolls().SaveAll(ctx, touched); err != nil {
				return err
			}

			for _, alloc := range plan.Allocations {
				if err := batch.AddInput(input.MaterialID, alloc); err != nil {
					return err
				}
			}
		}

		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}
		response = ToBatchResponse(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("production batch allocated",
		zap.String("batch_code", response.Code),
		zap.String("machine_id", req.MachineID.String()),
		zap.String("total_input", response.TotalInputQuantity.String()),
	)
	return &response, nil
}

// Complete records actual output for a batch and credits finished-goods
// stock per product. Loss above the threshold warns; output above input is
// rejected outright.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	var response CompleteResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, req.BatchID)
		if err != nil {
			return err
		}

		result, err := batch.Complete(req.Outputs, s.lossWarnThreshold)
		if err != nil {
			return err
		}

		for productID, qty := range req.Outputs {
			if qty.IsZero() {
				continue
			}
			if err := s.creditStock(ctx, repos, productID, qty,
				stock.ReasonBatchCompletion, batch.Code, ""); err != nil {
				return err
			}
		}

		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}
		response = CompleteResponse{
			BatchID:        batch.ID,
			LossQuantity:   result.LossQuantity,
			LossPercentage: result.LossPercentage,
			Warning:        result.Warning,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("production batch completed",
		zap.String("batch_id", req.BatchID.String()),
		zap.String("loss_percentage", response.LossPercentage.String()),
		zap.Bool("efficiency_warning", response.Warning != nil),
	)
	return &response, nil
}

// QuickComplete converts output weight plus a known loss percentage into raw
// consumption spread across the machine's open batches, oldest first.
// Operators often know the scale weight and the loss before they know which
// batch produced what; this path does the attribution for them.
func (s *Service) QuickComplete(ctx context.Context, req QuickCompleteRequest) (*QuickCompleteResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if req.OutputWeight.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Output weight must be positive")
	}
	if req.WeightLossPercent.LessThan(decimal.Zero) || req.WeightLossPercent.GreaterThanOrEqual(oneHundred) {
		return nil, shared.NewDomainError("INVALID_LOSS_PERCENT", "Weight loss percent must be in [0, 100)")
	}

	// totalConsumption = output / (1 - loss%/100)
	totalConsumption := req.OutputWeight.
		Div(decimal.NewFromInt(1).Sub(req.WeightLossPercent.Div(oneHundred))).
		Round(4)

	var response QuickCompleteResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batches, err := repos.Batches().FindOpenByMachine(ctx, req.MachineID)
		if err != nil {
			return err
		}

		poolRemaining := decimal.Zero
		for i := range batches {
			poolRemaining = poolRemaining.Add(batches[i].RemainingInputQuantity())
		}
		if totalConsumption.GreaterThan(poolRemaining) {
			return shared.NewDomainErrorf(shared.CodeInsufficientMachineCapacity,
				"Machine pool has %s kg unconsumed input, completion needs %s kg",
				poolRemaining, totalConsumption)
		}

		need := totalConsumption
		producedTotal := decimal.Zero
		touched := make([]*production.ProductionBatch, 0)
		touchedIDs := make([]uuid.UUID, 0)
		for i := range batches {
			if need.IsZero() {
				break
			}
			batch := &batches[i]
			take := decimal.Min(need, batch.RemainingInputQuantity())
			if take.LessThanOrEqual(decimal.Zero) {
				continue
			}
			produced, err := batch.ConsumeFromPool(take, req.ProductID, req.WeightLossPercent)
			if err != nil {
				return err
			}
			need = need.Sub(take)
			producedTotal = producedTotal.Add(produced)
			touched = append(touched, batch)
			touchedIDs = append(touchedIDs, batch.ID)
		}

		if err := repos.Batches().SaveAll(ctx, touched); err != nil {
			return err
		}
		// Credit what the batches recorded, not the requested scale weight:
		// per-batch loss rounding can leave the two a fraction of a gram
		// apart, and the ledger must match the batch records.
		if err := s.creditStock(ctx, repos, req.ProductID, producedTotal,
			stock.ReasonBatchCompletion, generateCode("QC"), ""); err != nil {
			return err
		}

		response = QuickCompleteResponse{
			ConsumedQuantity: totalConsumption,
			OutputWeight:     producedTotal,
			BatchesTouched:   touchedIDs,
		}
		if req.WeightLossPercent.GreaterThan(s.lossWarnThreshold) {
			response.Warning = &production.EfficiencyWarning{
				LossPercentage: req.WeightLossPercent,
				Threshold:      s.lossWarnThreshold,
				Message:        "Loss percentage exceeds the configured threshold",
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("machine pool quick-completed",
		zap.String("machine_id", req.MachineID.String()),
		zap.String("consumed", response.ConsumedQuantity.String()),
		zap.Int("batches_touched", len(response.BatchesTouched)),
	)
	return &response, nil
}

// Return sends finished goods back into production. Stock is debited, then
// completed batches for the product are reversed oldest-completion-first:
// output reduced, loss restored proportionally, input capacity freed, status
// regressed. The per-batch deltas are returned to the caller for audit.
func (s *Service) Return(ctx context.Context, req ReturnRequest) (*ReturnResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}

	var response ReturnResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		stockRow, err := repos.Stocks().FindByProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if req.Quantity.GreaterThan(stockRow.Quantity) {
			return shared.NewDomainErrorf(shared.CodeInsufficientStockToReturn,
				"Product %s has %s kg in stock, cannot return %s kg to production",
				req.ProductID, stockRow.Quantity, req.Quantity)
		}

		batches, err := repos.Batches().FindReversibleByProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}

		remaining := req.Quantity
		deltas := make([]production.ReversalDelta, 0)
		touched := make([]*production.ProductionBatch, 0)
		for i := range batches {
			if remaining.IsZero() {
				break
			}
			batch := &batches[i]
			delta, err := batch.ReverseOutput(req.ProductID, remaining)
			if err != nil {
				return err
			}
			if delta.OutputReversed.IsZero() {
				continue
			}
			remaining = remaining.Sub(delta.OutputReversed)
			deltas = append(deltas, delta)
			touched = append(touched, batch)
		}
		if remaining.GreaterThan(decimal.Zero) {
			return shared.NewDomainErrorf(shared.CodeInsufficientStockToReturn,
				"Only %s of %s kg is attributable to completed batches of product %s",
				req.Quantity.Sub(remaining), req.Quantity, req.ProductID)
		}

		movement, err := stock.ApplyMovement(stockRow, stock.MovementOut, req.Quantity,
			stock.ReasonReturnToProduction, generateCode("RTP"), req.Reason)
		if err != nil {
			return err
		}
		if err := repos.Stocks().Save(ctx, stockRow); err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, movement); err != nil {
			return err
		}
		if err := repos.Batches().SaveAll(ctx, touched); err != nil {
			return err
		}

		response = ReturnResponse{
			ProductID:        req.ProductID,
			QuantityReturned: req.Quantity,
			NewStockBalance:  stockRow.Quantity,
			AffectedBatches:  deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("finished goods returned to production",
		zap.String("product_id", req.ProductID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.Int("affected_batches", len(response.AffectedBatches)),
	)
	return &response, nil
}

// GetBatch returns one batch with its inputs and outputs
func (s *Service) GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}

// ListBatches lists batches with pagination
func (s *Service) ListBatches(ctx context.Context, filter shared.Filter) ([]BatchResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	batches, err := s.batchRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.batchRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, ToBatchResponse(&batches[i]))
	}
	return responses, total, nil
}

// creditStock credits the product balance and appends the paired movement
func (s *Service) creditStock(
	ctx context.Context,
	repos TransactionalRepositories,
	productID uuid.UUID,
	quantity decimal.Decimal,
	reason stock.MovementReason,
	referenceCode, note string,
) error {
	stockRow, err := repos.Stocks().GetOrCreate(ctx, productID)
	if err != nil {
		return err
	}
	movement, err := stock.ApplyMovement(stockRow, stock.MovementIn, quantity, reason, referenceCode, note)
	if err != nil {
		return err
	}
	if err := repos.Stocks().Save(ctx, stockRow); err != nil {
		return err
	}
	return repos.Movements().Append(ctx, movement)
}

// generateCode builds a human-readable reference code
func generateCode(prefix string) string {
	return fmt.Sprintf("%s-%s-%s",
		prefix,
		time.Now().Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]),
	)
}
