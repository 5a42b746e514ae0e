package returns

import (
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeReturnRequest is the aggregate type name used on events
const AggregateTypeReturnRequest = "ReturnRequest"

// Event type constants for ReturnRequest
const (
	EventTypeReturnRequested      = "ReturnRequested"
	EventTypeReturnApproved       = "ReturnApproved"
	EventTypeReturnRejected       = "ReturnRejected"
	EventTypeReturnLabelCreated   = "ReturnLabelCreated"
	EventTypeReturnReceived       = "ReturnReceived"
	EventTypeReturnInspected      = "ReturnInspected"
	EventTypeReturnCompleted      = "ReturnCompleted"
	EventTypeReturnCancelled      = "ReturnCancelled"
	EventTypeReturnItemsRestocked = "ReturnItemsRestocked"
)

// ReturnEvent is implemented by every event raised by a ReturnRequest and
// exposes the customer notice captured when the event was raised.
type ReturnEvent interface {
	shared.DomainEvent
	ReturnNotice() Notice
}

// ReturnEventBase holds the data every return event carries
type ReturnEventBase struct {
	shared.BaseDomainEvent
	ReturnID   uuid.UUID    `json:"return_id"`
	RMANumber  string       `json:"rma_number"`
	OrderID    uuid.UUID    `json:"order_id"`
	UserID     uuid.UUID    `json:"user_id"`
	Status     ReturnStatus `json:"status"`
	ReturnType ReturnType   `json:"return_type"`
	Notice     Notice       `json:"-"`
}

// ReturnNotice returns the customer notice captured with the event
func (e *ReturnEventBase) ReturnNotice() Notice {
	return e.Notice
}

func newReturnEventBase(eventType string, r *ReturnRequest) ReturnEventBase {
	return ReturnEventBase{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeReturnRequest, r.ID),
		ReturnID:        r.ID,
		RMANumber:       r.RMANumber,
		OrderID:         r.OrderID,
		UserID:          r.UserID,
		Status:          r.Status,
		ReturnType:      r.ReturnType,
		Notice:          r.Notice(),
	}
}

// ReturnRequestedEvent is raised when a customer opens a return
type ReturnRequestedEvent struct {
	ReturnEventBase
	Reason       ReturnReason    `json:"reason"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	ItemCount    int             `json:"item_count"`
}

// NewReturnRequestedEvent creates a new ReturnRequestedEvent
func NewReturnRequestedEvent(r *ReturnRequest) *ReturnRequestedEvent {
	return &ReturnRequestedEvent{
		ReturnEventBase: newReturnEventBase(EventTypeReturnRequested, r),
		Reason:          r.Reason,
		RefundAmount:    r.RefundAmount,
		ItemCount:       len(r.Items),
	}
}

// ReturnApprovedEvent is raised when an admin approves a return
type ReturnApprovedEvent struct {
	ReturnEventBase
	ApprovedBy     uuid.UUID       `json:"approved_by"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	RestockingFee  decimal.Decimal `json:"restocking_fee"`
	ShippingRefund decimal.Decimal `json:"shipping_refund"`
}

// NewReturnApprovedEvent creates a new ReturnApprovedEvent
func NewReturnApprovedEvent(r *ReturnRequest) *ReturnApprovedEvent {
	e := &ReturnApprovedEvent{
		ReturnEventBase: newReturnEventBase(EventTypeReturnApproved, r),
		RefundAmount:    r.RefundAmount,
		RestockingFee:   r.RestockingFee,
		ShippingRefund:  r.ShippingRefund,
	}
	if r.ApprovedBy != nil {
		e.ApprovedBy = *r.ApprovedBy
	}
	return e
}

// ReturnRejectedEvent is raised when a return is rejected at approval or inspection
type ReturnRejectedEvent struct {
	ReturnEventBase
	Reason string `json:"reason"`
}

// NewReturnRejectedEvent creates a new ReturnRejectedEvent
func NewReturnRejectedEvent(r *ReturnRequest) *ReturnRejectedEvent {
	return &ReturnRejectedEvent{
		ReturnEventBase: newReturnEventBase(EventTypeReturnRejected, r),
		Reason:          r.RejectedReason,
	}
}

// ReturnLabelCreatedEvent is raised when the inbound label is ready
type ReturnLabelCreatedEvent struct {
	ReturnEventBase
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
}

// NewReturnLabelCreatedEvent creates a new ReturnLabelCreatedEvent
func NewReturnLabelCreatedEvent(r *ReturnRequest) *ReturnLabelCreatedEvent {
	e := &ReturnLabelCreatedEvent{
		ReturnEventBase: newReturnEventBase(EventTypeReturnLabelCreated, r),
		TrackingNumber:  r.TrackingNumber,
	}
	if r.Label != nil {
		e.Carrier = r.Label.Carrier
		e.LabelURL = r.Label.LabelURL
	}
	return e
}

// ReturnReceivedEvent is raised when the package reaches the warehouse
type ReturnReceivedEvent struct {
	ReturnEventBase
}

// NewReturnReceivedEvent creates a new ReturnReceivedEvent
func NewReturnReceivedEvent(r *ReturnRequest) *ReturnReceivedEvent {
	return &ReturnReceivedEvent{ReturnEventBase: newReturnEventBase(EventTypeReturnReceived, r)}
}

// ReturnInspectedEvent is raised when inspection finishes
type ReturnInspectedEvent struct {
	ReturnEventBase
	Passed       bool            `json:"passed"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// NewReturnInspectedEvent creates a new ReturnInspectedEvent
func NewReturnInspectedEvent(r *ReturnRequest, passed bool) *ReturnInspectedEvent {
	return &ReturnInspectedEvent{
		ReturnEventBase: newReturnEventBase(EventTypeReturnInspected, r),
		Passed:          passed,
		RefundAmount:    r.RefundAmount,
	}
}

// ReturnCompletedEvent is raised when a return has been settled
type ReturnCompletedEvent struct {
	ReturnEventBase
	Settlement    SettlementKind  `json:"settlement"`
	SettledAmount decimal.Decimal `json:"settled_amount"`
	SettlementRef string          `json:"settlement_ref"`
}

// NewReturnCompletedEvent creates a new ReturnCompletedEvent
func NewReturnCompletedEvent(r *ReturnRequest, settlement Settlement) *ReturnCompletedEvent {
	e := &ReturnCompletedEvent{
		ReturnEventBase: newReturnEventBase(EventTypeReturnCompleted, r),
		Settlement:      settlement.Kind,
		SettledAmount:   settlement.Amount,
		SettlementRef:   settlement.Reference,
	}
	e.Notice.Amount = settlement.Amount
	e.Notice.ExpiresAt = settlement.ExpiresAt
	return e
}

// ReturnCancelledEvent is raised when the customer withdraws a return
type ReturnCancelledEvent struct {
	ReturnEventBase
}

// NewReturnCancelledEvent creates a new ReturnCancelledEvent
func NewReturnCancelledEvent(r *ReturnRequest) *ReturnCancelledEvent {
	return &ReturnCancelledEvent{ReturnEventBase: newReturnEventBase(EventTypeReturnCancelled, r)}
}

// RestockedLine describes one inventory increment made for a return
type RestockedLine struct {
	ReturnItemID uuid.UUID `json:"return_item_id"`
	ProductID    uuid.UUID `json:"product_id"`
	WarehouseID  uuid.UUID `json:"warehouse_id"`
	Quantity     int       `json:"quantity"`
}

// ReturnItemsRestockedEvent is raised after returned goods go back into stock
type ReturnItemsRestockedEvent struct {
	ReturnEventBase
	Lines []RestockedLine `json:"lines"`
}

// NewReturnItemsRestockedEvent creates a new ReturnItemsRestockedEvent
func NewReturnItemsRestockedEvent(r *ReturnRequest, lines []RestockedLine) *ReturnItemsRestockedEvent {
	return &ReturnItemsRestockedEvent{
		ReturnEventBase: newReturnEventBase(EventTypeReturnItemsRestocked, r),
		Lines:           lines,
	}
}
