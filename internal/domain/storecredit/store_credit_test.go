package storecredit

import (
	"errors"
	"testing"
	"time"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionType(t *testing.T) {
	for _, tt := range []TransactionType{
		TransactionTypeRefund, TransactionTypeManual, TransactionTypeSpend,
		TransactionTypeExpiry, TransactionTypeAdjustment,
	} {
		assert.True(t, tt.IsValid(), "Expected %s to be valid", tt)
	}
	assert.False(t, TransactionType("GIFT").IsValid())
	assert.True(t, TransactionTypeRefund.IsIncrease())
	assert.True(t, TransactionTypeSpend.IsDecrease())
	assert.False(t, TransactionTypeAdjustment.IsIncrease())
	assert.False(t, TransactionTypeAdjustment.IsDecrease())
}

func TestNewAccount(t *testing.T) {
	acc, err := NewAccount(uuid.New(), "eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", acc.Currency)
	assert.True(t, acc.CurrentBalance.IsZero())

	_, err = NewAccount(uuid.Nil, "USD")
	assert.Error(t, err)
}

func TestAccount_Apply(t *testing.T) {
	t.Run("credit on existing balance", func(t *testing.T) {
		acc, err := NewAccount(uuid.New(), "USD")
		require.NoError(t, err)
		_, err = acc.Apply(Entry{Type: TransactionTypeManual, Amount: decimal.NewFromInt(50), Description: "goodwill"})
		require.NoError(t, err)

		returnID := uuid.New()
		expires := time.Now().AddDate(1, 0, 0)
		tx, err := acc.Apply(Entry{
			Type:          TransactionTypeRefund,
			Amount:        decimal.NewFromInt(100),
			ReferenceType: ReferenceTypeReturn,
			ReferenceID:   &returnID,
			ExpiresAt:     &expires,
		})
		require.NoError(t, err)

		assert.True(t, tx.BalanceBefore.Equal(decimal.NewFromInt(50)))
		assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(150)))
		assert.True(t, tx.BalanceAfter.Equal(tx.BalanceBefore.Add(tx.Amount)))
		assert.True(t, acc.CurrentBalance.Equal(tx.BalanceAfter))
		assert.True(t, acc.TotalEarned.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, acc.ID, tx.AccountID)
		assert.True(t, tx.IsCredit())

		events := acc.GetDomainEvents()
		require.Len(t, events, 2)
		issued, ok := events[1].(*StoreCreditIssuedEvent)
		require.True(t, ok)
		assert.Equal(t, returnID, *issued.ReferenceID)
	})

	t.Run("spend reduces balance", func(t *testing.T) {
		acc, _ := NewAccount(uuid.New(), "USD")
		_, err := acc.Apply(Entry{Type: TransactionTypeRefund, Amount: decimal.NewFromInt(30)})
		require.NoError(t, err)

		tx, err := acc.Apply(Entry{Type: TransactionTypeSpend, Amount: decimal.NewFromInt(12).Neg(), Description: "order ORD-1"})
		require.NoError(t, err)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(-12)))
		assert.True(t, acc.CurrentBalance.Equal(decimal.NewFromInt(18)))
		assert.True(t, acc.TotalSpent.Equal(decimal.NewFromInt(12)))
	})

	t.Run("overspend is rejected without side effects", func(t *testing.T) {
		acc, _ := NewAccount(uuid.New(), "USD")
		_, err := acc.Apply(Entry{Type: TransactionTypeSpend, Amount: decimal.NewFromInt(1).Neg()})
		assert.True(t, errors.Is(err, ErrInsufficientBalance))
		assert.True(t, acc.CurrentBalance.IsZero())
	})

	t.Run("invalid entries are bad requests", func(t *testing.T) {
		acc, _ := NewAccount(uuid.New(), "USD")
		entries := []Entry{
			{Type: TransactionTypeRefund, Amount: decimal.NewFromInt(-5)},
			{Type: TransactionTypeRefund, Amount: decimal.Zero},
			{Type: TransactionTypeSpend, Amount: decimal.NewFromInt(5)},
			{Type: TransactionType("BONUS"), Amount: decimal.NewFromInt(5)},
		}
		for _, entry := range entries {
			_, err := acc.Apply(entry)
			assert.Equal(t, shared.CodeBadRequest, shared.ErrorCode(err), "entry %+v", entry)
		}
		assert.True(t, acc.CurrentBalance.IsZero())
	})
}
