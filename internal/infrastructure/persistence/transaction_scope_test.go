package persistence

import (
	"context"
	"testing"

	returnsapp "github.com/citadelbuy/returns/internal/application/returns"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits credit and completion together", func(t *testing.T) {
		db := newSQLiteDB(t)
		scope := NewGormTransactionScope(db)
		r := seedInspectedReturn(t, db, returns.ReturnTypeStoreCredit)

		err := scope.Execute(ctx, func(repos returnsapp.TransactionalRepositories) error {
			_, tx, err := repos.StoreCreditRepo().Apply(ctx, r.UserID, "USD", credit("129.97"))
			if err != nil {
				return err
			}
			if err := r.Complete(&testAdminID, returns.Settlement{
				Kind:      returns.SettlementStoreCredit,
				Amount:    tx.Amount,
				Reference: tx.ID.String(),
			}); err != nil {
				return err
			}
			return repos.ReturnRepo().SaveWithLock(ctx, r)
		})
		require.NoError(t, err)

		found, err := NewGormReturnRequestRepository(db).FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, returns.ReturnStatusCompleted, found.Status)

		account, err := NewGormStoreCreditRepository(db).FindByUserID(ctx, r.UserID)
		require.NoError(t, err)
		assert.True(t, account.CurrentBalance.Equal(decimal.RequireFromString("129.97")))
	})

	t.Run("conflict rolls back the credit", func(t *testing.T) {
		db := newSQLiteDB(t)
		scope := NewGormTransactionScope(db)
		r := seedInspectedReturn(t, db, returns.ReturnTypeStoreCredit)
		r.Version = 1 // stale

		err := scope.Execute(ctx, func(repos returnsapp.TransactionalRepositories) error {
			if _, _, err := repos.StoreCreditRepo().Apply(ctx, r.UserID, "USD", credit("50")); err != nil {
				return err
			}
			return repos.ReturnRepo().SaveWithLock(ctx, r)
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		_, err = NewGormStoreCreditRepository(db).FindByUserID(ctx, r.UserID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("restock writes stock through the transaction", func(t *testing.T) {
		db := newSQLiteDB(t)
		scope := NewGormTransactionScope(db)
		r := seedInspectedReturn(t, db, returns.ReturnTypeRefund)
		item := r.Items[0]
		warehouseID := uuid.New()

		err := scope.Execute(ctx, func(repos returnsapp.TransactionalRepositories) error {
			_, err := repos.InventoryRepo().Upsert(ctx, item.ProductID, warehouseID, item.Quantity)
			return err
		})
		require.NoError(t, err)

		stock, err := NewGormInventoryRepository(db).FindByProductAndWarehouse(ctx, item.ProductID, warehouseID)
		require.NoError(t, err)
		assert.Equal(t, item.Quantity, stock.Quantity)
	})
}
