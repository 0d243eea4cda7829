package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/bale"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BaleService handles bale batching against the finished-goods ledger
type BaleService struct {
	scope    TransactionScope
	baleRepo bale.BaleBatchRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBaleService creates a BaleService
func NewBaleService(scope TransactionScope, baleRepo bale.BaleBatchRepository, logger *zap.Logger) *BaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaleService{
		scope:    scope,
		baleRepo: baleRepo,
		validate: validator.New(),
		logger:   logger,
	}
}

// Create builds a bale batch from one submission. Every item is validated
// and the aggregate net weight per product is checked against current stock
// before any debit happens; a failure on any item leaves every product's
// balance untouched.
func (s *BaleService) Create(ctx context.Context, req CreateBaleBatchRequest) (*BaleBatchResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	var response BaleBatchResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := bale.NewBaleBatch(generateBaleCode("BB"))
		if err != nil {
			return err
		}

		required := make(map[uuid.UUID]decimal.Decimal)
		for idx, line := range req.Items {
			item, err := bale.NewBaleItem(
				batch.ID,
				fmt.Sprintf("%s-%02d", batch.Code, idx+1),
				line.ProductID,
				line.GrossWeight,
				line.WeightLossGrams,
				line.PieceCount,
			)
			if err != nil {
				return err
			}
			batch.AddItem(item)
			required[line.ProductID] = required[line.ProductID].Add(item.NetWeight)
		}

		// Pre-flight every product before debiting any of them
		rows := make(map[uuid.UUID]*stock.ProductStock, len(required))
		for productID, needed := range required {
			row, err := repos.Stocks().GetOrCreate(ctx, productID)
			if err != nil {
				return err
			}
			if needed.GreaterThan(row.Quantity) {
				return shared.NewDomainErrorf(shared.CodeInsufficientStock,
					"Product %s has %s kg in stock, bale batch needs %s kg",
					productID, row.Quantity, needed)
			}
			rows[productID] = row
		}

		usage := make([]ProductUsage, 0, len(required))
		for productID, needed := range required {
			row := rows[productID]
			movement, err := stock.ApplyMovement(row, stock.MovementOut, needed,
				stock.ReasonBaleCreation, batch.Code, "")
			if err != nil {
				return err
			}
			if err := repos.Stocks().Save(ctx, row); err != nil {
				return err
			}
			if err := repos.Movements().Append(ctx, movement); err != nil {
				return err
			}
			usage = append(usage, ProductUsage{
				ProductID:  productID,
				NetWeight:  needed,
				NewBalance: row.Quantity,
			})
		}

		if err := repos.Bales().Save(ctx, batch); err != nil {
			return err
		}
		response = ToBaleBatchResponse(batch)
		response.Usage = usage
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bale batch created",
		zap.String("batch_code", response.Code),
		zap.Int("items", len(response.Items)),
		zap.String("total_weight", response.TotalWeight.String()),
	)
	return &response, nil
}

// DeleteBatch soft-deletes a bale batch and credits back the net weight of
// its Available items. Issued items stay consumed.
func (s *BaleService) DeleteBatch(ctx context.Context, batchID uuid.UUID) ([]StockRestoration, error) {
	var restorations []StockRestoration
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Bales().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		restore, err := batch.MarkDeleted()
		if err != nil {
			return err
		}

		restorations = make([]StockRestoration, 0, len(restore))
		for productID, qty := range restore {
			row, err := repos.Stocks().GetOrCreate(ctx, productID)
			if err != nil {
				return err
			}
			movement, err := stock.ApplyMovement(row, stock.MovementIn, qty,
				stock.ReasonBaleDeletion, batch.Code, "")
			if err != nil {
				return err
			}
			if err := repos.Stocks().Save(ctx, row); err != nil {
				return err
			}
			if err := repos.Movements().Append(ctx, movement); err != nil {
				return err
			}
			restorations = append(restorations, StockRestoration{
				ProductID:  productID,
				Restored:   qty,
				NewBalance: row.Quantity,
			})
		}

		return repos.Bales().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bale batch deleted",
		zap.String("batch_id", batchID.String()),
		zap.Int("products_restored", len(restorations)),
	)
	return restorations, nil
}

// DeleteItem soft-deletes one Available bale item and restores its net weight
func (s *BaleService) DeleteItem(ctx context.Context, itemID uuid.UUID) (*StockRestoration, error) {
	var restoration StockRestoration
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Bales().FindByItemID(ctx, itemID)
		if err != nil {
			return err
		}
		productID, netWeight, err := batch.DeleteItem(itemID)
		if err != nil {
			return err
		}

		row, err := repos.Stocks().GetOrCreate(ctx, productID)
		if err != nil {
			return err
		}
		movement, err := stock.ApplyMovement(row, stock.MovementIn, netWeight,
			stock.ReasonBaleDeletion, batch.Code, "")
		if err != nil {
			return err
		}
		if err := repos.Stocks().Save(ctx, row); err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, movement); err != nil {
			return err
		}
		if err := repos.Bales().Save(ctx, batch); err != nil {
			return err
		}

		restoration = StockRestoration{
			ProductID:  productID,
			Restored:   netWeight,
			NewBalance: row.Quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &restoration, nil
}

// UpdateItem edits piece count and weights of an Available bale item.
// The original stock debit is trusted; the edit does not re-validate
// sufficiency against other batches.
func (s *BaleService) UpdateItem(ctx context.Context, req UpdateBaleItemRequest) (*BaleBatchResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	var response BaleBatchResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Bales().FindByItemID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		for idx := range batch.Items {
			item := &batch.Items[idx]
			if item.ID != req.ItemID {
				continue
			}
			oldNet := item.NetWeight
			if err := item.Update(req.PieceCount, req.GrossWeight, req.WeightLossGrams); err != nil {
				return err
			}
			batch.TotalWeight = batch.TotalWeight.Sub(oldNet).Add(item.NetWeight)
			batch.Touch()
			if err := repos.Bales().Save(ctx, batch); err != nil {
				return err
			}
			response = ToBaleBatchResponse(batch)
			return nil
		}
		return shared.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// IssueItem marks an Available bale as consumed by a sales invoice. Stock
// was debited when the bale was created, so issuing moves no quantity.
func (s *BaleService) IssueItem(ctx context.Context, itemID uuid.UUID, reference string) error {
	if reference == "" {
		return shared.NewDomainError("INVALID_INPUT", "Issue reference is required")
	}
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Bales().FindByItemID(ctx, itemID)
		if err != nil {
			return err
		}
		for idx := range batch.Items {
			item := &batch.Items[idx]
			if item.ID != itemID {
				continue
			}
			if err := item.Issue(reference); err != nil {
				return err
			}
			return repos.Bales().Save(ctx, batch)
		}
		return shared.ErrNotFound
	})
}

// GetBatch returns one bale batch with its items
func (s *BaleService) GetBatch(ctx context.Context, batchID uuid.UUID) (*BaleBatchResponse, error) {
	batch, err := s.baleRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	response := ToBaleBatchResponse(batch)
	return &response, nil
}

// ListBatches lists bale batches with pagination
func (s *BaleService) ListBatches(ctx context.Context, filter shared.Filter) ([]BaleBatchResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	batches, err := s.baleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.baleRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]BaleBatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, ToBaleBatchResponse(&batches[i]))
	}
	return responses, total, nil
}

// generateBaleCode builds a human-readable bale batch code
func generateBaleCode(prefix string) string {
	return fmt.Sprintf("%s-%s-%s",
		prefix,
		time.Now().Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]),
	)
}
