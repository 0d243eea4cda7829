package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/bale"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories shared by the bale and stock service tests.

type invStockRepo struct {
	rows map[uuid.UUID]stock.ProductStock
}

func (r *invStockRepo) put(row *stock.ProductStock) {
	r.rows[row.ProductID] = *row
}

func (r *invStockRepo) FindByProduct(_ context.Context, productID uuid.UUID) (*stock.ProductStock, error) {
	row, ok := r.rows[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &row, nil
}

func (r *invStockRepo) GetOrCreate(_ context.Context, productID uuid.UUID) (*stock.ProductStock, error) {
	if row, ok := r.rows[productID]; ok {
		return &row, nil
	}
	row, err := stock.NewProductStock(productID)
	if err != nil {
		return nil, err
	}
	r.rows[productID] = *row
	return row, nil
}

func (r *invStockRepo) FindByProducts(_ context.Context, productIDs []uuid.UUID) ([]stock.ProductStock, error) {
	out := make([]stock.ProductStock, 0, len(productIDs))
	for _, id := range productIDs {
		if row, ok := r.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *invStockRepo) FindBelowReorder(_ context.Context, _ shared.Filter) ([]stock.ProductStock, error) {
	out := make([]stock.ProductStock, 0)
	for _, row := range r.rows {
		if row.IsBelowReorder() {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *invStockRepo) FindAll(_ context.Context, _ shared.Filter) ([]stock.ProductStock, error) {
	out := make([]stock.ProductStock, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *invStockRepo) Save(_ context.Context, row *stock.ProductStock) error {
	r.rows[row.ProductID] = *row
	return nil
}

func (r *invStockRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.rows)), nil
}

type invMovementRepo struct {
	movements []stock.StockMovement
}

func (r *invMovementRepo) Append(_ context.Context, movement *stock.StockMovement) error {
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *invMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]stock.StockMovement, error) {
	out := make([]stock.StockMovement, 0)
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *invMovementRepo) CountByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) (int64, error) {
	var n int64
	for _, m := range r.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}

type invRollRepo struct {
	rolls map[uuid.UUID]material.MaterialRoll
}

func (r *invRollRepo) FindByID(_ context.Context, id uuid.UUID) (*material.MaterialRoll, error) {
	roll, ok := r.rolls[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &roll, nil
}

func (r *invRollRepo) FindInStockByMaterial(_ context.Context, materialID uuid.UUID) ([]material.MaterialRoll, error) {
	out := make([]material.MaterialRoll, 0)
	for _, roll := range r.rolls {
		if roll.MaterialID == materialID && roll.Status == material.RollStatusInStock {
			out = append(out, roll)
		}
	}
	return out, nil
}

func (r *invRollRepo) FindByMaterial(_ context.Context, materialID uuid.UUID, _ shared.Filter) ([]material.MaterialRoll, error) {
	out := make([]material.MaterialRoll, 0)
	for _, roll := range r.rolls {
		if roll.MaterialID == materialID {
			out = append(out, roll)
		}
	}
	return out, nil
}

func (r *invRollRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]material.MaterialRoll, error) {
	out := make([]material.MaterialRoll, 0, len(ids))
	for _, id := range ids {
		if roll, ok := r.rolls[id]; ok {
			out = append(out, roll)
		}
	}
	return out, nil
}

func (r *invRollRepo) Save(_ context.Context, roll *material.MaterialRoll) error {
	r.rolls[roll.ID] = *roll
	return nil
}

func (r *invRollRepo) SaveAll(_ context.Context, rolls []*material.MaterialRoll) error {
	for _, roll := range rolls {
		r.rolls[roll.ID] = *roll
	}
	return nil
}

func (r *invRollRepo) CountByMaterial(_ context.Context, materialID uuid.UUID, _ shared.Filter) (int64, error) {
	var n int64
	for _, roll := range r.rolls {
		if roll.MaterialID == materialID {
			n++
		}
	}
	return n, nil
}

type invBaleRepo struct {
	batches map[uuid.UUID]bale.BaleBatch
}

func (r *invBaleRepo) FindByID(_ context.Context, id uuid.UUID) (*bale.BaleBatch, error) {
	batch, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &batch, nil
}

func (r *invBaleRepo) FindByItemID(_ context.Context, itemID uuid.UUID) (*bale.BaleBatch, error) {
	for _, batch := range r.batches {
		for _, item := range batch.Items {
			if item.ID == itemID {
				b := batch
				return &b, nil
			}
		}
	}
	return nil, shared.ErrNotFound
}

func (r *invBaleRepo) FindAll(_ context.Context, _ shared.Filter) ([]bale.BaleBatch, error) {
	out := make([]bale.BaleBatch, 0, len(r.batches))
	for _, batch := range r.batches {
		out = append(out, batch)
	}
	return out, nil
}

func (r *invBaleRepo) Save(_ context.Context, batch *bale.BaleBatch) error {
	r.batches[batch.ID] = *batch
	return nil
}

func (r *invBaleRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.batches)), nil
}

type invScope struct {
	stocks    *invStockRepo
	movements *invMovementRepo
	bales     *invBaleRepo
	rolls     *invRollRepo
}

func newInvScope() *invScope {
	return &invScope{
		stocks:    &invStockRepo{rows: make(map[uuid.UUID]stock.ProductStock)},
		movements: &invMovementRepo{},
		bales:     &invBaleRepo{batches: make(map[uuid.UUID]bale.BaleBatch)},
		rolls:     &invRollRepo{rolls: make(map[uuid.UUID]material.MaterialRoll)},
	}
}

func (s *invScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *invScope) Stocks() stock.ProductStockRepository     { return s.stocks }
func (s *invScope) Movements() stock.StockMovementRepository { return s.movements }
func (s *invScope) Bales() bale.BaleBatchRepository          { return s.bales }
func (s *invScope) Rolls() material.MaterialRollRepository   { return s.rolls }

func seedStock(t *testing.T, scope *invScope, productID uuid.UUID, qty int64) {
	t.Helper()
	row, err := stock.NewProductStock(productID)
	require.NoError(t, err)
	if qty > 0 {
		require.NoError(t, row.Credit(decimal.NewFromInt(qty)))
	}
	scope.stocks.put(row)
}

func TestBaleService_Create_DebitsNetWeight(t *testing.T) {
	scope := newInvScope()
	svc := NewBaleService(scope, scope.bales, nil)

	productID := uuid.New()
	seedStock(t, scope, productID, 100)

	resp, err := svc.Create(context.Background(), CreateBaleBatchRequest{
		Items: []BaleItemRequest{
			// 25 kg gross minus 500 g loss nets 24.5 kg
			{ProductID: productID, GrossWeight: decimal.NewFromInt(25), WeightLossGrams: decimal.NewFromInt(500), PieceCount: 10},
			{ProductID: productID, GrossWeight: decimal.NewFromInt(30), PieceCount: 12},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.TotalWeight.Equal(decimal.NewFromFloat(54.5)))
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].NetWeight.Equal(decimal.NewFromFloat(24.5)))
	assert.True(t, strings.HasSuffix(resp.Items[0].Code, "-01"))
	assert.True(t, strings.HasSuffix(resp.Items[1].Code, "-02"))

	require.Len(t, resp.Usage, 1)
	assert.True(t, resp.Usage[0].NewBalance.Equal(decimal.NewFromFloat(45.5)))

	row, err := scope.stocks.FindByProduct(context.Background(), productID)
	require.NoError(t, err)
	assert.True(t, row.Quantity.Equal(decimal.NewFromFloat(45.5)))

	require.Len(t, scope.movements.movements, 1)
	movement := scope.movements.movements[0]
	assert.Equal(t, stock.MovementOut, movement.Direction)
	assert.Equal(t, stock.ReasonBaleCreation, movement.Reason)
	assert.Equal(t, resp.Code, movement.ReferenceCode)
}

func TestBaleService_Create_AllOrNothing(t *testing.T) {
	scope := newInvScope()
	svc := NewBaleService(scope, scope.bales, nil)

	richProduct := uuid.New()
	poorProduct := uuid.New()
	seedStock(t, scope, richProduct, 100)
	seedStock(t, scope, poorProduct, 10)

	_, err := svc.Create(context.Background(), CreateBaleBatchRequest{
		Items: []BaleItemRequest{
			{ProductID: richProduct, GrossWeight: decimal.NewFromInt(25), PieceCount: 10},
			{ProductID: poorProduct, GrossWeight: decimal.NewFromInt(25), PieceCount: 10},
		},
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeInsufficientStock, domainErr.Code)

	// pre-flight failed before any debit, both balances untouched
	rich, err := scope.stocks.FindByProduct(context.Background(), richProduct)
	require.NoError(t, err)
	assert.True(t, rich.Quantity.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, scope.movements.movements)
}

func TestBaleService_Create_ZeroNetWeightRejected(t *testing.T) {
	scope := newInvScope()
	svc := NewBaleService(scope, scope.bales, nil)

	productID := uuid.New()
	seedStock(t, scope, productID, 100)

	// 0.5 kg gross minus 500 g loss nets exactly zero
	_, err := svc.Create(context.Background(), CreateBaleBatchRequest{
		Items: []BaleItemRequest{
			{ProductID: productID, GrossWeight: decimal.NewFromFloat(0.5), WeightLossGrams: decimal.NewFromInt(500), PieceCount: 1},
		},
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_NET_WEIGHT", domainErr.Code)
}

func createBaleBatch(t *testing.T, svc *BaleService, productID uuid.UUID) *BaleBatchResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), CreateBaleBatchRequest{
		Items: []BaleItemRequest{
			{ProductID: productID, GrossWeight: decimal.NewFromInt(25), WeightLossGrams: decimal.NewFromInt(500), PieceCount: 10},
			{ProductID: productID, GrossWeight: decimal.NewFromInt(30), PieceCount: 12},
		},
	})
	require.NoError(t, err)
	return resp
}

func TestBaleService_DeleteBatch_RestoresAvailableOnly(t *testing.T) {
	scope := newInvScope()
	svc := NewBaleService(scope, scope.bales, nil)

	productID := uuid.New()
	seedStock(t, scope, productID, 100)
	created := createBaleBatch(t, svc, productID)

	// issue the 24.5 kg item; only the 30 kg one remains restorable
	require.NoError(t, svc.IssueItem(context.Background(), created.Items[0].ID, "SI-2026-0007"))

	restorations, err := svc.DeleteBatch(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, restorations, 1)
	assert.Equal(t, productID, restorations[0].ProductID)
	assert.True(t, restorations[0].Restored.Equal(decimal.NewFromInt(30)))
	// 100 - 54.5 + 30
	assert.True(t, restorations[0].NewBalance.Equal(decimal.NewFromFloat(75.5)))

	batch, err := scope.bales.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, bale.BatchStatusDeleted, batch.Status)
	for _, item := range batch.Items {
		if item.ID == created.Items[0].ID {
			assert.Equal(t, bale.ItemStatusIssued, item.Status, "issued items stay consumed")
		} else {
			assert.Equal(t, bale.ItemStatusDeleted, item.Status)
		}
	}
}

func TestBaleService_DeleteBatch_Twice(t *testing.T) {
	scope := newInvScope()
	svc := NewBaleService(scope, scope.bales, nil)

	productID := uuid.New()
	seedStock(t, scope, productID, 100)
	created := createBaleBatch(t, svc, productID)

	_, err := svc.DeleteBatch(context.Background(), created.ID)
	require.NoError(t, err)
	_, err = svc.DeleteBatch(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestBaleService_DeleteItem(t *testing.T) {
	scope := newInvScope()
	svc := NewBaleService(scope, scope.bales, nil)

	productID := uuid.New()
	seedStock(t, scope, productID, 100)
	created := createBaleBatch(t, svc, productID)

	restoration, err := svc.DeleteItem(context.Background(), created.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, restoration.Restored.Equal(decimal.NewFromFloat(24.5)))
	assert.True(t, restoration.NewBalance.Equal(decimal.NewFromInt(70)))

	batch, err := scope.bales.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, batch.TotalWeight.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, bale.BatchStatusActive, batch.Status)
}

func TestBaleService_UpdateItem_AdjustsTotalWithoutMovements(t *testing.T) {
	scope := newInvScope()
	svc := NewBaleService(scope, scope.bales, nil)

	productID := uuid.New()
	seedStock(t, scope, productID, 100)
	created := createBaleBatch(t, svc, productID)
	movementsBefore := len(scope.movements.movements)

	resp, err := svc.UpdateItem(context.Background(), UpdateBaleItemRequest{
		ItemID:          created.Items[0].ID,
		PieceCount:      11,
		GrossWeight:     decimal.NewFromInt(26),
		WeightLossGrams: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	// 54.5 - 24.5 + 25.5
	assert.True(t, resp.TotalWeight.Equal(decimal.NewFromFloat(55.5)))
	assert.Len(t, scope.movements.movements, movementsBefore, "editing a bale moves no stock")
}

func TestBaleService_IssueItem_OnlyAvailable(t *testing.T) {
	scope := newInvScope()
	svc := NewBaleService(scope, scope.bales, nil)

	productID := uuid.New()
	seedStock(t, scope, productID, 100)
	created := createBaleBatch(t, svc, productID)

	itemID := created.Items[0].ID
	require.NoError(t, svc.IssueItem(context.Background(), itemID, "SI-2026-0001"))

	err := svc.IssueItem(context.Background(), itemID, "SI-2026-0002")
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestBaleService_IssueItem_ReferenceRequired(t *testing.T) {
	scope := newInvScope()
	svc := NewBaleService(scope, scope.bales, nil)

	err := svc.IssueItem(context.Background(), uuid.New(), "")
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}
