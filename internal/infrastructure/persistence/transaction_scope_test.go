package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appprod "github.com/loomerp/backend/internal/application/production"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormProductionTransactionScope_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormProductionTransactionScope(db)
	ctx := context.Background()

	productID := uuid.New()
	boom := shared.NewDomainError("BOOM", "forced failure")

	err := scope.Execute(ctx, func(repos appprod.TransactionalRepositories) error {
		row, err := repos.Stocks().GetOrCreate(ctx, productID)
		require.NoError(t, err)
		require.NoError(t, row.Credit(decimal.NewFromInt(100)))
		require.NoError(t, repos.Stocks().Save(ctx, row))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The stock row written inside the failed transaction must be gone
	_, err = NewGormProductStockRepository(db).FindByProduct(ctx, productID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductionTransactionScope_CommitsOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormProductionTransactionScope(db)
	ctx := context.Background()

	productID := uuid.New()

	err := scope.Execute(ctx, func(repos appprod.TransactionalRepositories) error {
		row, err := repos.Stocks().GetOrCreate(ctx, productID)
		if err != nil {
			return err
		}
		if err := row.Credit(decimal.NewFromInt(25)); err != nil {
			return err
		}
		return repos.Stocks().Save(ctx, row)
	})
	require.NoError(t, err)

	row, err := NewGormProductStockRepository(db).FindByProduct(ctx, productID)
	require.NoError(t, err)
	assert.True(t, row.Quantity.Equal(decimal.NewFromInt(25)))
}

func TestGormProductionTransactionScope_PanicRollsBack(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormProductionTransactionScope(db)
	ctx := context.Background()

	productID := uuid.New()

	assert.Panics(t, func() {
		_ = scope.Execute(ctx, func(repos appprod.TransactionalRepositories) error {
			row, err := repos.Stocks().GetOrCreate(ctx, productID)
			require.NoError(t, err)
			require.NoError(t, repos.Stocks().Save(ctx, row))
			panic("mid-transaction failure")
		})
	})

	_, err := NewGormProductStockRepository(db).FindByProduct(ctx, productID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductionTransactionScope_ScopedRepositoriesShareTransaction(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormProductionTransactionScope(db)
	ctx := context.Background()

	productID := uuid.New()

	// Writes through one scoped repository are visible to the others before commit
	err := scope.Execute(ctx, func(repos appprod.TransactionalRepositories) error {
		row, err := repos.Stocks().GetOrCreate(ctx, productID)
		if err != nil {
			return err
		}
		if err := row.Credit(decimal.NewFromInt(10)); err != nil {
			return err
		}
		if err := repos.Stocks().Save(ctx, row); err != nil {
			return err
		}

		seen, err := repos.Stocks().FindByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !seen.Quantity.Equal(decimal.NewFromInt(10)) {
			return gorm.ErrInvalidData
		}
		return nil
	})
	require.NoError(t, err)
}
