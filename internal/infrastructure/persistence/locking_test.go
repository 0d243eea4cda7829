package persistence

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// sqlRecorder collects every statement GORM builds, so tests can assert on
// the generated SQL without a live server.
type sqlRecorder struct {
	statements []string
}

func (r *sqlRecorder) record(tx *gorm.DB) {
	r.statements = append(r.statements, tx.Statement.SQL.String())
}

func (r *sqlRecorder) joined() string {
	return strings.Join(r.statements, "\n")
}

// dryRunPostgres builds queries with the PostgreSQL dialect without
// connecting. SQLite swallows the lock clause, so the dialect the production
// deployment runs on is the one whose SQL gets checked.
func dryRunPostgres(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()

	db, err := gorm.Open(postgres.Open("host=localhost user=loom dbname=loom"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	recorder := &sqlRecorder{}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("record_sql", recorder.record))
	return db, recorder
}

func TestForUpdateRepositories_ReadsCarryRowLock(t *testing.T) {
	ctx := context.Background()

	t.Run("product stock balance", func(t *testing.T) {
		db, recorder := dryRunPostgres(t)
		_, _ = NewGormProductStockRepositoryForUpdate(db).FindByProduct(ctx, uuid.New())
		assert.Contains(t, recorder.joined(), "FOR UPDATE")
	})

	t.Run("rolls feeding the FIFO allocator", func(t *testing.T) {
		db, recorder := dryRunPostgres(t)
		_, _ = NewGormMaterialRollRepositoryForUpdate(db).FindInStockByMaterial(ctx, uuid.New())
		assert.Contains(t, recorder.joined(), "FOR UPDATE")
	})

	t.Run("open batches on a machine", func(t *testing.T) {
		db, recorder := dryRunPostgres(t)
		_, _ = NewGormProductionBatchRepositoryForUpdate(db).FindOpenByMachine(ctx, uuid.New())
		assert.Contains(t, recorder.joined(), "FOR UPDATE")
	})

	t.Run("bale batch with items", func(t *testing.T) {
		db, recorder := dryRunPostgres(t)
		_, _ = NewGormBaleBatchRepositoryForUpdate(db).FindByID(ctx, uuid.New())
		assert.Contains(t, recorder.joined(), "FOR UPDATE")
	})

	t.Run("outstanding invoices", func(t *testing.T) {
		db, recorder := dryRunPostgres(t)
		_, _ = NewGormInvoiceRepositoryForUpdate(db).FindOutstandingByCustomer(ctx, uuid.New())
		assert.Contains(t, recorder.joined(), "FOR UPDATE")
	})

	t.Run("receipt for reversal", func(t *testing.T) {
		db, recorder := dryRunPostgres(t)
		_, _ = NewGormReceiptRepositoryForUpdate(db).FindByID(ctx, uuid.New())
		assert.Contains(t, recorder.joined(), "FOR UPDATE")
	})
}

func TestForUpdateBatchRepository_ReversibleLookupIsLockable(t *testing.T) {
	// PostgreSQL rejects FOR UPDATE on grouped queries; membership must go
	// through a subquery instead of a join with GROUP BY
	db, recorder := dryRunPostgres(t)
	_, _ = NewGormProductionBatchRepositoryForUpdate(db).FindReversibleByProduct(context.Background(), uuid.New())

	sql := recorder.joined()
	assert.Contains(t, sql, "FOR UPDATE")
	assert.Contains(t, sql, "IN (SELECT")
	assert.NotContains(t, sql, "GROUP BY")
}

func TestPlainRepositories_DoNotLock(t *testing.T) {
	ctx := context.Background()
	db, recorder := dryRunPostgres(t)

	_, _ = NewGormProductStockRepository(db).FindByProduct(ctx, uuid.New())
	_, _ = NewGormMaterialRollRepository(db).FindInStockByMaterial(ctx, uuid.New())
	_, _ = NewGormProductionBatchRepository(db).FindReversibleByProduct(ctx, uuid.New())

	assert.NotContains(t, recorder.joined(), "FOR UPDATE")
}

func TestForUpdateRepositories_SQLiteSkipsLockClause(t *testing.T) {
	// SQLite has no FOR UPDATE syntax; the locked repositories must still
	// work there because its single-writer model serializes transactions
	db := setupTestDB(t)
	ctx := context.Background()

	repo := NewGormProductStockRepositoryForUpdate(db)
	productID := uuid.New()

	row, err := repo.GetOrCreate(ctx, productID)
	require.NoError(t, err)
	require.NoError(t, row.Credit(decimal.NewFromInt(40)))
	require.NoError(t, repo.Save(ctx, row))

	found, err := repo.FindByProduct(ctx, productID)
	require.NoError(t, err)
	assert.True(t, found.Quantity.Equal(decimal.NewFromInt(40)))
}
