package models

import (
	"time"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundModel is the persistence model for the Refund aggregate root.
type RefundModel struct {
	AggregateModel
	ReturnID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	OrderID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	UserID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	RMANumber        string               `gorm:"type:varchar(20);not null"`
	Method           finance.RefundMethod `gorm:"type:varchar(20);not null"`
	Gateway          string               `gorm:"type:varchar(20)"`
	PaymentReference string               `gorm:"type:varchar(100)"`
	Currency         string               `gorm:"type:varchar(3);not null;default:'USD'"`
	Subtotal         decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingRefund   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRefund        decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	RestockingFee    decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Status           finance.RefundStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	TransactionID    string               `gorm:"type:varchar(100)"`
	Notes            string               `gorm:"type:text"`
	CreatedBy        *uuid.UUID           `gorm:"type:uuid"`
	ProcessedAt      *time.Time
	ProcessedBy      *uuid.UUID `gorm:"type:uuid"`
	FailedAt         *time.Time
	FailedReason     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RefundModel) TableName() string {
	return "refunds"
}

// ToDomain converts the persistence model to a domain Refund.
func (m *RefundModel) ToDomain() *finance.Refund {
	return &finance.Refund{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ReturnID:          m.ReturnID,
		OrderID:           m.OrderID,
		UserID:            m.UserID,
		RMANumber:         m.RMANumber,
		Method:            m.Method,
		Gateway:           m.Gateway,
		PaymentReference:  m.PaymentReference,
		Currency:          m.Currency,
		Subtotal:          m.Subtotal,
		ShippingRefund:    m.ShippingRefund,
		TaxRefund:         m.TaxRefund,
		RestockingFee:     m.RestockingFee,
		TotalAmount:       m.TotalAmount,
		Status:            m.Status,
		TransactionID:     m.TransactionID,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		ProcessedAt:       m.ProcessedAt,
		ProcessedBy:       m.ProcessedBy,
		FailedAt:          m.FailedAt,
		FailedReason:      m.FailedReason,
	}
}

// FromDomain populates the persistence model from a domain Refund.
func (m *RefundModel) FromDomain(r *finance.Refund) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ReturnID = r.ReturnID
	m.OrderID = r.OrderID
	m.UserID = r.UserID
	m.RMANumber = r.RMANumber
	m.Method = r.Method
	m.Gateway = r.Gateway
	m.PaymentReference = r.PaymentReference
	m.Currency = r.Currency
	m.Subtotal = r.Subtotal
	m.ShippingRefund = r.ShippingRefund
	m.TaxRefund = r.TaxRefund
	m.RestockingFee = r.RestockingFee
	m.TotalAmount = r.TotalAmount
	m.Status = r.Status
	m.TransactionID = r.TransactionID
	m.Notes = r.Notes
	m.CreatedBy = r.CreatedBy
	m.ProcessedAt = r.ProcessedAt
	m.ProcessedBy = r.ProcessedBy
	m.FailedAt = r.FailedAt
	m.FailedReason = r.FailedReason
	if m.Currency == "" {
		m.Currency = "USD"
	}
}

// RefundModelFromDomain creates a new persistence model from a domain Refund.
func RefundModelFromDomain(r *finance.Refund) *RefundModel {
	m := &RefundModel{}
	m.FromDomain(r)
	return m
}
