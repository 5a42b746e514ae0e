package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func credit(amount string) storecredit.LedgerFunc {
	return func(a *storecredit.Account) (*storecredit.Transaction, error) {
		return a.Apply(storecredit.Entry{Type: storecredit.TransactionTypeRefund, Amount: decimal.RequireFromString(amount), Description: "credit " + amount})
	}
}

func TestGormStoreCreditRepository_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the account on first credit", func(t *testing.T) {
		repo := NewGormStoreCreditRepository(newSQLiteDB(t))
		userID := uuid.New()

		account, tx, err := repo.Apply(ctx, userID, "usd", credit("25"))
		require.NoError(t, err)

		assert.Equal(t, "USD", account.Currency)
		assert.True(t, account.CurrentBalance.Equal(decimal.NewFromInt(25)))
		assert.True(t, tx.BalanceBefore.IsZero())
		assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(25)))

		stored, err := repo.FindByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, account.ID, stored.ID)
		assert.True(t, stored.TotalEarned.Equal(decimal.NewFromInt(25)))
	})

	t.Run("reads the persisted balance", func(t *testing.T) {
		repo := NewGormStoreCreditRepository(newSQLiteDB(t))
		userID := uuid.New()

		_, _, err := repo.Apply(ctx, userID, "USD", credit("10"))
		require.NoError(t, err)
		_, tx, err := repo.Apply(ctx, userID, "USD", credit("5.5"))
		require.NoError(t, err)
		assert.True(t, tx.BalanceBefore.Equal(decimal.NewFromInt(10)))

		account, tx, err := repo.Apply(ctx, userID, "USD", func(a *storecredit.Account) (*storecredit.Transaction, error) {
			return a.Apply(storecredit.Entry{Type: storecredit.TransactionTypeSpend, Amount: decimal.NewFromInt(3).Neg(), Description: "order ORD-1"})
		})
		require.NoError(t, err)
		assert.True(t, tx.BalanceAfter.Equal(decimal.RequireFromString("12.5")))
		assert.True(t, account.TotalSpent.Equal(decimal.NewFromInt(3)))

		txs, total, err := repo.ListTransactions(ctx, userID, shared.Filter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		amounts := make([]string, len(txs))
		for i := range txs {
			amounts[i] = txs[i].Amount.String()
		}
		assert.ElementsMatch(t, []string{"10", "5.5", "-3"}, amounts)
	})

	t.Run("failed ledger function rolls everything back", func(t *testing.T) {
		repo := NewGormStoreCreditRepository(newSQLiteDB(t))
		userID := uuid.New()
		boom := errors.New("boom")

		_, _, err := repo.Apply(ctx, userID, "USD", func(*storecredit.Account) (*storecredit.Transaction, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repo.FindByUserID(ctx, userID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("overdraft is refused", func(t *testing.T) {
		repo := NewGormStoreCreditRepository(newSQLiteDB(t))
		userID := uuid.New()
		_, _, err := repo.Apply(ctx, userID, "USD", credit("2"))
		require.NoError(t, err)

		_, _, err = repo.Apply(ctx, userID, "USD", func(a *storecredit.Account) (*storecredit.Transaction, error) {
			return a.Apply(storecredit.Entry{Type: storecredit.TransactionTypeSpend, Amount: decimal.NewFromInt(5).Neg(), Description: "order"})
		})
		assert.ErrorIs(t, err, storecredit.ErrInsufficientBalance)

		account, err := repo.FindByUserID(ctx, userID)
		require.NoError(t, err)
		assert.True(t, account.CurrentBalance.Equal(decimal.NewFromInt(2)))
	})

	t.Run("concurrent credits are all applied", func(t *testing.T) {
		repo := NewGormStoreCreditRepository(newSQLiteDB(t))
		userID := uuid.New()

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := repo.Apply(ctx, userID, "USD", credit("1"))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		account, err := repo.FindByUserID(ctx, userID)
		require.NoError(t, err)
		assert.True(t, account.CurrentBalance.Equal(decimal.NewFromInt(5)), account.CurrentBalance.String())

		_, total, err := repo.ListTransactions(ctx, userID, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
	})
}

func TestGormStoreCreditRepository_ListTransactionsByType(t *testing.T) {
	ctx := context.Background()
	repo := NewGormStoreCreditRepository(newSQLiteDB(t))
	userID := uuid.New()

	_, _, err := repo.Apply(ctx, userID, "USD", credit("8"))
	require.NoError(t, err)
	_, _, err = repo.Apply(ctx, userID, "USD", func(a *storecredit.Account) (*storecredit.Transaction, error) {
		return a.Apply(storecredit.Entry{Type: storecredit.TransactionTypeSpend, Amount: decimal.NewFromInt(2).Neg(), Description: "order"})
	})
	require.NoError(t, err)

	txs, total, err := repo.ListTransactions(ctx, userID, shared.Filter{
		Filters: map[string]any{"type": storecredit.TransactionTypeSpend},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txs, 1)
	assert.Equal(t, storecredit.TransactionTypeSpend, txs[0].Type)
}
