package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundStatus represents the status of a refund
type RefundStatus string

const (
	// RefundStatusPending indicates the refund is created and waiting to be processed
	RefundStatusPending RefundStatus = "PENDING"
	// RefundStatusProcessing indicates a processor has claimed the refund
	RefundStatusProcessing RefundStatus = "PROCESSING"
	// RefundStatusCompleted indicates the money was returned
	RefundStatusCompleted RefundStatus = "COMPLETED"
	// RefundStatusFailed indicates the gateway rejected the refund
	RefundStatusFailed RefundStatus = "FAILED"
	// RefundStatusCancelled indicates the refund was voided before processing
	RefundStatusCancelled RefundStatus = "CANCELLED"
)

// IsValid checks if the status is a valid RefundStatus
func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusPending, RefundStatusProcessing, RefundStatusCompleted,
		RefundStatusFailed, RefundStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RefundStatus
func (s RefundStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the refund is in a terminal state
func (s RefundStatus) IsTerminal() bool {
	return s == RefundStatusCompleted || s == RefundStatusFailed || s == RefundStatusCancelled
}

// RefundMethod is where the refunded money goes
type RefundMethod string

const (
	RefundMethodOriginalPayment RefundMethod = "ORIGINAL_PAYMENT"
	RefundMethodStoreCredit     RefundMethod = "STORE_CREDIT"
	RefundMethodBankTransfer    RefundMethod = "BANK_TRANSFER"
)

// IsValid checks if the refund method is valid
func (m RefundMethod) IsValid() bool {
	switch m {
	case RefundMethodOriginalPayment, RefundMethodStoreCredit, RefundMethodBankTransfer:
		return true
	}
	return false
}

// String returns the string representation of RefundMethod
func (m RefundMethod) String() string {
	return string(m)
}

// RefundAmounts are the components of a refund total
type RefundAmounts struct {
	Subtotal       decimal.Decimal
	ShippingRefund decimal.Decimal
	TaxRefund      decimal.Decimal
	RestockingFee  decimal.Decimal
}

// Total returns subtotal + shipping + tax − restocking fee, floored at zero
func (a RefundAmounts) Total() decimal.Decimal {
	return returns.RefundTotal(a.Subtotal, a.ShippingRefund, a.TaxRefund, a.RestockingFee)
}

func (a RefundAmounts) validate() error {
	if a.Subtotal.IsNegative() || a.ShippingRefund.IsNegative() ||
		a.TaxRefund.IsNegative() || a.RestockingFee.IsNegative() {
		return shared.NewBadRequestError("Refund amounts cannot be negative")
	}
	return nil
}

// Refund is the settlement record of a return that is paid back in money.
// There is at most one non-cancelled refund per return.
type Refund struct {
	shared.BaseAggregateRoot
	ReturnID         uuid.UUID
	OrderID          uuid.UUID
	UserID           uuid.UUID
	RMANumber        string
	Method           RefundMethod
	Gateway          string // payment gateway type, e.g. "STRIPE"
	PaymentReference string // original charge reference at the gateway
	Currency         string
	Subtotal         decimal.Decimal
	ShippingRefund   decimal.Decimal
	TaxRefund        decimal.Decimal
	RestockingFee    decimal.Decimal
	TotalAmount      decimal.Decimal
	Status           RefundStatus
	TransactionID    string
	Notes            string
	CreatedBy        *uuid.UUID
	ProcessedAt      *time.Time
	ProcessedBy      *uuid.UUID
	FailedAt         *time.Time
	FailedReason     string
}

// RefundSource identifies the return a refund settles
type RefundSource struct {
	ReturnID         uuid.UUID
	OrderID          uuid.UUID
	UserID           uuid.UUID
	RMANumber        string
	Gateway          string
	PaymentReference string
	Currency         string
}

// NewRefund creates a PENDING refund
func NewRefund(source RefundSource, method RefundMethod, amounts RefundAmounts, createdBy uuid.UUID) (*Refund, error) {
	if source.ReturnID == uuid.Nil {
		return nil, shared.NewBadRequestError("Return ID is required")
	}
	if !method.IsValid() {
		return nil, shared.NewBadRequestError(fmt.Sprintf("Invalid refund method: %s", method))
	}
	if err := amounts.validate(); err != nil {
		return nil, err
	}

	refund := &Refund{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnID:          source.ReturnID,
		OrderID:           source.OrderID,
		UserID:            source.UserID,
		RMANumber:         source.RMANumber,
		Method:            method,
		Gateway:           strings.ToUpper(source.Gateway),
		PaymentReference:  source.PaymentReference,
		Currency:          source.Currency,
		Subtotal:          amounts.Subtotal,
		ShippingRefund:    amounts.ShippingRefund,
		TaxRefund:         amounts.TaxRefund,
		RestockingFee:     amounts.RestockingFee,
		TotalAmount:       amounts.Total(),
		Status:            RefundStatusPending,
	}
	if createdBy != uuid.Nil {
		refund.CreatedBy = &createdBy
	}

	refund.AddDomainEvent(NewRefundCreatedEvent(refund))
	return refund, nil
}

// IsPending reports whether the refund has not been claimed yet
func (r *Refund) IsPending() bool {
	return r.Status == RefundStatusPending
}

// MarkProcessing claims the refund. Only a PENDING refund can be claimed.
func (r *Refund) MarkProcessing() error {
	if r.Status != RefundStatusPending {
		return shared.NewBadRequestError("Refund is not in pending status")
	}
	r.Status = RefundStatusProcessing
	r.UpdatedAt = time.Now()
	return nil
}

// Complete marks the refund as paid out
func (r *Refund) Complete(processedBy uuid.UUID, transactionID string) error {
	if r.Status != RefundStatusProcessing {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot complete refund in %s status", r.Status))
	}

	now := time.Now()
	r.Status = RefundStatusCompleted
	r.TransactionID = transactionID
	r.ProcessedAt = &now
	if processedBy != uuid.Nil {
		r.ProcessedBy = &processedBy
	}
	r.UpdatedAt = now

	r.AddDomainEvent(NewRefundCompletedEvent(r))
	return nil
}

// Fail records a gateway failure. The reason stays on the record for support tooling.
func (r *Refund) Fail(processedBy uuid.UUID, reason string) error {
	if r.Status != RefundStatusProcessing {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot fail refund in %s status", r.Status))
	}
	if reason == "" {
		reason = "unknown error"
	}

	now := time.Now()
	r.Status = RefundStatusFailed
	r.FailedAt = &now
	r.FailedReason = reason
	if processedBy != uuid.Nil {
		r.ProcessedBy = &processedBy
	}
	r.UpdatedAt = now

	r.AddDomainEvent(NewRefundFailedEvent(r))
	return nil
}

// Cancel voids a refund that moved no money, so the return can be refunded
// again. Only PENDING and FAILED refunds can be cancelled.
func (r *Refund) Cancel(cancelledBy uuid.UUID, reason string) error {
	if r.Status != RefundStatusPending && r.Status != RefundStatusFailed {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot cancel refund in %s status", r.Status))
	}
	r.Status = RefundStatusCancelled
	if reason != "" {
		r.Notes = reason
	}
	if cancelledBy != uuid.Nil {
		r.ProcessedBy = &cancelledBy
	}
	r.UpdatedAt = time.Now()

	r.AddDomainEvent(NewRefundCancelledEvent(r))
	return nil
}

// IsStale reports whether a PROCESSING refund has not been touched for at
// least after. A stale claim was most likely abandoned by a crashed worker.
func (r *Refund) IsStale(now time.Time, after time.Duration) bool {
	return r.Status == RefundStatusProcessing && now.Sub(r.UpdatedAt) >= after
}
