package storecredit

import (
	"strings"
	"time"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInsufficientBalance is returned when a debit would take the balance below zero
var ErrInsufficientBalance = shared.NewBadRequestError("Insufficient store credit balance")

// Account is a customer's running store credit balance. There is one account
// per user, created lazily on the first credit.
type Account struct {
	shared.BaseAggregateRoot
	UserID         uuid.UUID
	CurrentBalance decimal.Decimal
	TotalEarned    decimal.Decimal
	TotalSpent     decimal.Decimal
	Currency       string
}

// NewAccount creates an empty account for userID
func NewAccount(userID uuid.UUID, currency string) (*Account, error) {
	if userID == uuid.Nil {
		return nil, shared.NewBadRequestError("User ID is required")
	}
	if currency == "" {
		currency = "USD"
	}
	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		CurrentBalance:    decimal.Zero,
		TotalEarned:       decimal.Zero,
		TotalSpent:        decimal.Zero,
		Currency:          strings.ToUpper(currency),
	}, nil
}

// Apply appends a ledger entry against the current balance and returns the
// resulting transaction. Callers must hold the account row lock so that the
// balance read here is the persisted one.
func (a *Account) Apply(entry Entry) (*Transaction, error) {
	if err := entry.validate(); err != nil {
		return nil, err
	}

	before := a.CurrentBalance
	after := before.Add(entry.Amount)
	if after.IsNegative() {
		return nil, ErrInsufficientBalance
	}

	now := time.Now()
	tx := &Transaction{
		ID:            uuid.New(),
		AccountID:     a.ID,
		UserID:        a.UserID,
		Type:          entry.Type,
		Amount:        entry.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   entry.Description,
		ReferenceType: entry.ReferenceType,
		ReferenceID:   entry.ReferenceID,
		ExpiresAt:     entry.ExpiresAt,
		CreatedBy:     entry.CreatedBy,
		CreatedAt:     now,
	}

	a.CurrentBalance = after
	if entry.Amount.IsPositive() {
		a.TotalEarned = a.TotalEarned.Add(entry.Amount)
	} else {
		a.TotalSpent = a.TotalSpent.Add(entry.Amount.Neg())
	}
	a.UpdatedAt = now

	if entry.Amount.IsPositive() {
		a.AddDomainEvent(NewStoreCreditIssuedEvent(a, tx))
	}
	return tx, nil
}
