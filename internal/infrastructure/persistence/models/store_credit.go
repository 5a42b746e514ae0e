package models

import (
	"time"

	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreCreditAccountModel is the persistence model for a store credit account.
type StoreCreditAccountModel struct {
	AggregateModel
	UserID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_store_credit_accounts_user"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalEarned    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalSpent     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'USD'"`
}

// TableName returns the table name for GORM
func (StoreCreditAccountModel) TableName() string {
	return "store_credit_accounts"
}

// ToDomain converts the persistence model to a domain Account.
func (m *StoreCreditAccountModel) ToDomain() *storecredit.Account {
	return &storecredit.Account{
		BaseAggregateRoot: m.ToAggregateRoot(),
		UserID:            m.UserID,
		CurrentBalance:    m.CurrentBalance,
		TotalEarned:       m.TotalEarned,
		TotalSpent:        m.TotalSpent,
		Currency:          m.Currency,
	}
}

// FromDomain populates the persistence model from a domain Account.
func (m *StoreCreditAccountModel) FromDomain(a *storecredit.Account) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.UserID = a.UserID
	m.CurrentBalance = a.CurrentBalance
	m.TotalEarned = a.TotalEarned
	m.TotalSpent = a.TotalSpent
	m.Currency = a.Currency
}

// StoreCreditTransactionModel is the persistence model for an immutable ledger entry.
type StoreCreditTransactionModel struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primary_key"`
	AccountID     uuid.UUID                   `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Type          storecredit.TransactionType `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	BalanceBefore decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	Description   string                      `gorm:"type:varchar(500)"`
	ReferenceType string                      `gorm:"type:varchar(30);index:idx_store_credit_tx_reference,priority:1"`
	ReferenceID   *uuid.UUID                  `gorm:"type:uuid;index:idx_store_credit_tx_reference,priority:2"`
	ExpiresAt     *time.Time
	CreatedBy     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StoreCreditTransactionModel) TableName() string {
	return "store_credit_transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *StoreCreditTransactionModel) ToDomain() storecredit.Transaction {
	return storecredit.Transaction{
		ID:            m.ID,
		AccountID:     m.AccountID,
		UserID:        m.UserID,
		Type:          m.Type,
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Description:   m.Description,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		ExpiresAt:     m.ExpiresAt,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// StoreCreditTransactionModelFromDomain creates a persistence model from a domain Transaction.
func StoreCreditTransactionModelFromDomain(tx *storecredit.Transaction) *StoreCreditTransactionModel {
	return &StoreCreditTransactionModel{
		ID:            tx.ID,
		AccountID:     tx.AccountID,
		UserID:        tx.UserID,
		Type:          tx.Type,
		Amount:        tx.Amount,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		Description:   tx.Description,
		ReferenceType: tx.ReferenceType,
		ReferenceID:   tx.ReferenceID,
		ExpiresAt:     tx.ExpiresAt,
		CreatedBy:     tx.CreatedBy,
		CreatedAt:     tx.CreatedAt,
	}
}
