package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/material"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestRoll(t *testing.T, db *gorm.DB, materialID uuid.UUID, batchCode string, quantity int64, createdAt time.Time, sequence int64) *material.MaterialRoll {
	t.Helper()
	roll, err := material.NewMaterialRoll(materialID, batchCode, decimal.NewFromInt(quantity))
	require.NoError(t, err)
	roll.CreatedAt = createdAt
	roll.UpdatedAt = createdAt
	roll.Sequence = sequence
	require.NoError(t, db.Create(roll).Error)
	return roll
}

func TestGormMaterialRollRepository_FindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMaterialRollRepository(db)
	ctx := context.Background()

	materialID := uuid.New()
	roll := createTestRoll(t, db, materialID, "RL-001", 100, time.Now(), 1)

	found, err := repo.FindByID(ctx, roll.ID)
	require.NoError(t, err)
	assert.Equal(t, "RL-001", found.BatchCode)
	assert.True(t, found.TotalQuantity.Equal(decimal.NewFromInt(100)))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormMaterialRollRepository_FindInStockByMaterial_Order(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMaterialRollRepository(db)
	ctx := context.Background()

	materialID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Created out of order; arrival order must win
	createTestRoll(t, db, materialID, "RL-C", 30, base.Add(2*time.Hour), 3)
	createTestRoll(t, db, materialID, "RL-A", 50, base, 1)
	createTestRoll(t, db, materialID, "RL-B", 40, base.Add(time.Hour), 2)

	rolls, err := repo.FindInStockByMaterial(ctx, materialID)
	require.NoError(t, err)
	require.Len(t, rolls, 3)
	assert.Equal(t, "RL-A", rolls[0].BatchCode)
	assert.Equal(t, "RL-B", rolls[1].BatchCode)
	assert.Equal(t, "RL-C", rolls[2].BatchCode)
}

func TestGormMaterialRollRepository_FindInStockByMaterial_SequenceBreaksTies(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMaterialRollRepository(db)
	ctx := context.Background()

	materialID := uuid.New()
	same := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	createTestRoll(t, db, materialID, "RL-SECOND", 30, same, 2)
	createTestRoll(t, db, materialID, "RL-FIRST", 50, same, 1)

	rolls, err := repo.FindInStockByMaterial(ctx, materialID)
	require.NoError(t, err)
	require.Len(t, rolls, 2)
	assert.Equal(t, "RL-FIRST", rolls[0].BatchCode)
	assert.Equal(t, "RL-SECOND", rolls[1].BatchCode)
}

func TestGormMaterialRollRepository_FindInStockByMaterial_ExcludesConsumed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMaterialRollRepository(db)
	ctx := context.Background()

	materialID := uuid.New()
	now := time.Now()

	live := createTestRoll(t, db, materialID, "RL-LIVE", 100, now, 1)
	spent := createTestRoll(t, db, materialID, "RL-SPENT", 50, now.Add(time.Minute), 2)
	require.NoError(t, spent.Consume(decimal.NewFromInt(50)))
	require.NoError(t, repo.Save(ctx, spent))

	// Rolls of other materials never leak in
	createTestRoll(t, db, uuid.New(), "RL-OTHER", 70, now, 3)

	rolls, err := repo.FindInStockByMaterial(ctx, materialID)
	require.NoError(t, err)
	require.Len(t, rolls, 1)
	assert.Equal(t, live.ID, rolls[0].ID)
}

func TestGormMaterialRollRepository_SaveAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMaterialRollRepository(db)
	ctx := context.Background()

	materialID := uuid.New()
	now := time.Now()
	first := createTestRoll(t, db, materialID, "RL-1", 100, now, 1)
	second := createTestRoll(t, db, materialID, "RL-2", 60, now.Add(time.Minute), 2)

	require.NoError(t, first.Consume(decimal.NewFromInt(100)))
	require.NoError(t, second.Consume(decimal.NewFromInt(20)))

	require.NoError(t, repo.SaveAll(ctx, []*material.MaterialRoll{first, second}))

	reloaded, err := repo.FindByIDs(ctx, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, reloaded, 2)

	byCode := make(map[string]material.MaterialRoll)
	for _, roll := range reloaded {
		byCode[roll.BatchCode] = roll
	}
	assert.Equal(t, material.RollStatusConsumed, byCode["RL-1"].Status)
	assert.True(t, byCode["RL-2"].ConsumedQuantity.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, material.RollStatusInStock, byCode["RL-2"].Status)
}

func TestGormMaterialRollRepository_CountByMaterial(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMaterialRollRepository(db)
	ctx := context.Background()

	materialID := uuid.New()
	now := time.Now()
	createTestRoll(t, db, materialID, "RL-1", 100, now, 1)
	createTestRoll(t, db, materialID, "RL-2", 50, now, 2)
	createTestRoll(t, db, uuid.New(), "RL-3", 70, now, 3)

	count, err := repo.CountByMaterial(ctx, materialID, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
