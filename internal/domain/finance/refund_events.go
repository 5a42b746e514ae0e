package finance

import (
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeRefund is the aggregate type name used on refund events
const AggregateTypeRefund = "Refund"

// Event type constants for Refund
const (
	EventTypeRefundCreated   = "RefundCreated"
	EventTypeRefundCompleted = "RefundCompleted"
	EventTypeRefundFailed    = "RefundFailed"
	EventTypeRefundCancelled = "RefundCancelled"
)

// RefundEventBase holds the data shared by refund events
type RefundEventBase struct {
	shared.BaseDomainEvent
	RefundID    uuid.UUID       `json:"refund_id"`
	ReturnID    uuid.UUID       `json:"return_id"`
	UserID      uuid.UUID       `json:"user_id"`
	RMANumber   string          `json:"rma_number"`
	Method      RefundMethod    `json:"method"`
	Gateway     string          `json:"gateway"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

func newRefundEventBase(eventType string, r *Refund) RefundEventBase {
	return RefundEventBase{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeRefund, r.ID),
		RefundID:        r.ID,
		ReturnID:        r.ReturnID,
		UserID:          r.UserID,
		RMANumber:       r.RMANumber,
		Method:          r.Method,
		Gateway:         r.Gateway,
		TotalAmount:     r.TotalAmount,
		Currency:        r.Currency,
	}
}

// RefundCreatedEvent is raised when a refund record is opened for a return
type RefundCreatedEvent struct {
	RefundEventBase
}

// NewRefundCreatedEvent creates a new RefundCreatedEvent
func NewRefundCreatedEvent(r *Refund) *RefundCreatedEvent {
	return &RefundCreatedEvent{RefundEventBase: newRefundEventBase(EventTypeRefundCreated, r)}
}

// RefundCompletedEvent is raised when the money has been paid back
type RefundCompletedEvent struct {
	RefundEventBase
	TransactionID string `json:"transaction_id"`
}

// NewRefundCompletedEvent creates a new RefundCompletedEvent
func NewRefundCompletedEvent(r *Refund) *RefundCompletedEvent {
	return &RefundCompletedEvent{
		RefundEventBase: newRefundEventBase(EventTypeRefundCompleted, r),
		TransactionID:   r.TransactionID,
	}
}

// RefundFailedEvent is raised when the gateway rejects a refund
type RefundFailedEvent struct {
	RefundEventBase
	FailedReason string `json:"failed_reason"`
}

// NewRefundFailedEvent creates a new RefundFailedEvent
func NewRefundFailedEvent(r *Refund) *RefundFailedEvent {
	return &RefundFailedEvent{
		RefundEventBase: newRefundEventBase(EventTypeRefundFailed, r),
		FailedReason:    r.FailedReason,
	}
}

// RefundCancelledEvent is raised when a refund that moved no money is voided
type RefundCancelledEvent struct {
	RefundEventBase
	Reason string `json:"reason,omitempty"`
}

// NewRefundCancelledEvent creates a new RefundCancelledEvent
func NewRefundCancelledEvent(r *Refund) *RefundCancelledEvent {
	return &RefundCancelledEvent{
		RefundEventBase: newRefundEventBase(EventTypeRefundCancelled, r),
		Reason:          r.Notes,
	}
}
