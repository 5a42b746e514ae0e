package storecredit

import (
	"time"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeStoreCredit is the aggregate type name used on store credit events
const AggregateTypeStoreCredit = "StoreCredit"

// EventTypeStoreCreditIssued is raised when credit is added to an account
const EventTypeStoreCreditIssued = "StoreCreditIssued"

// StoreCreditIssuedEvent is raised when credit is added to an account
type StoreCreditIssuedEvent struct {
	shared.BaseDomainEvent
	AccountID     uuid.UUID       `json:"account_id"`
	UserID        uuid.UUID       `json:"user_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Currency      string          `json:"currency"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
}

// NewStoreCreditIssuedEvent creates a new StoreCreditIssuedEvent
func NewStoreCreditIssuedEvent(a *Account, tx *Transaction) *StoreCreditIssuedEvent {
	return &StoreCreditIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStoreCreditIssued, AggregateTypeStoreCredit, a.ID),
		AccountID:       a.ID,
		UserID:          a.UserID,
		TransactionID:   tx.ID,
		Type:            tx.Type,
		Amount:          tx.Amount,
		BalanceAfter:    tx.BalanceAfter,
		Currency:        a.Currency,
		ReferenceType:   tx.ReferenceType,
		ReferenceID:     tx.ReferenceID,
		ExpiresAt:       tx.ExpiresAt,
	}
}
