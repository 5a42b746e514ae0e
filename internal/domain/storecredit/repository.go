package storecredit

import (
	"context"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
)

// LedgerFunc mutates a locked account and returns the transaction to append
type LedgerFunc func(account *Account) (*Transaction, error)

// Repository defines persistence operations for store credit accounts
type Repository interface {
	// FindByUserID finds the account of a user
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)

	// ListTransactions lists a user's ledger entries, newest first
	ListTransactions(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Transaction, int64, error)

	// Apply locks the user's account (creating it with currency when absent),
	// runs fn on it and persists the updated balance together with the returned
	// transaction in a single database transaction.
	Apply(ctx context.Context, userID uuid.UUID, currency string, fn LedgerFunc) (*Account, *Transaction, error)
}
