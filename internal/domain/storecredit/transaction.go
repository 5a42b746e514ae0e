package storecredit

import (
	"time"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of movement on a store credit account
type TransactionType string

const (
	// TransactionTypeRefund is credit issued for a returned order (increase)
	TransactionTypeRefund TransactionType = "REFUND"
	// TransactionTypeManual is credit granted by support staff (increase)
	TransactionTypeManual TransactionType = "MANUAL"
	// TransactionTypeSpend is credit used at checkout (decrease)
	TransactionTypeSpend TransactionType = "SPEND"
	// TransactionTypeExpiry is unused credit that lapsed (decrease)
	TransactionTypeExpiry TransactionType = "EXPIRY"
	// TransactionTypeAdjustment is a correction in either direction
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeRefund,
		TransactionTypeManual,
		TransactionTypeSpend,
		TransactionTypeExpiry,
		TransactionTypeAdjustment:
		return true
	}
	return false
}

// IsIncrease returns true if this type always increases the balance
func (t TransactionType) IsIncrease() bool {
	return t == TransactionTypeRefund || t == TransactionTypeManual
}

// IsDecrease returns true if this type always decreases the balance
func (t TransactionType) IsDecrease() bool {
	return t == TransactionTypeSpend || t == TransactionTypeExpiry
}

// ReferenceTypeReturn marks transactions issued for a return request
const ReferenceTypeReturn = "RETURN"

// Transaction is one immutable entry in a store credit ledger.
// BalanceAfter is always BalanceBefore + Amount.
type Transaction struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	UserID        uuid.UUID
	Type          TransactionType
	Amount        decimal.Decimal // signed
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Description   string
	ReferenceType string
	ReferenceID   *uuid.UUID
	ExpiresAt     *time.Time
	CreatedBy     *uuid.UUID
	CreatedAt     time.Time
}

// Entry is a request to move money on an account
type Entry struct {
	Type          TransactionType
	Amount        decimal.Decimal
	Description   string
	ReferenceType string
	ReferenceID   *uuid.UUID
	ExpiresAt     *time.Time
	CreatedBy     *uuid.UUID
}

func (e Entry) validate() error {
	if !e.Type.IsValid() {
		return shared.NewBadRequestError("Invalid store credit transaction type")
	}
	if e.Amount.IsZero() {
		return shared.NewBadRequestError("Transaction amount cannot be zero")
	}
	if e.Type.IsIncrease() && e.Amount.IsNegative() {
		return shared.NewBadRequestError("Credit amount must be positive")
	}
	if e.Type.IsDecrease() && e.Amount.IsPositive() {
		return shared.NewBadRequestError("Debit amount must be negative")
	}
	return nil
}

// IsCredit reports whether the transaction added to the balance
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}
