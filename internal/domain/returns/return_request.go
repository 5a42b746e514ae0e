package returns

import (
	"fmt"
	"time"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnItem is one order line being sent back
type ReturnItem struct {
	ID                   uuid.UUID
	ReturnID             uuid.UUID
	OrderItemID          uuid.UUID
	ProductID            uuid.UUID
	ProductName          string
	SKU                  string
	Quantity             int
	UnitPrice            decimal.Decimal
	RefundAmount         decimal.Decimal // UnitPrice * Quantity
	Reason               ReturnReason
	Condition            string // e.g. "unopened", "damaged"
	Notes                string
	Restocked            bool
	RestockedAt          *time.Time
	RestockedWarehouseID *uuid.UUID
	RestockedQuantity    int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TimelineEntry is an append-only audit record of a status change
type TimelineEntry struct {
	ID          uuid.UUID
	ReturnID    uuid.UUID
	Status      ReturnStatus
	Description string
	PerformedBy *uuid.UUID
	OccurredAt  time.Time
}

// CustomerSummary is the customer contact copied from the order at creation
type CustomerSummary struct {
	Name  string
	Email string
}

// OrderSummary is the slice of the order kept on the return for labels and refunds
type OrderSummary struct {
	OrderNumber     string
	ShippingAddress Address
	ShippingCost    decimal.Decimal
	Currency        string
	PaymentMethod   PaymentMethod
}

// RequestedItem is a customer's request to return part of an order line
type RequestedItem struct {
	OrderItemID uuid.UUID
	Quantity    int
	Reason      ReturnReason
	Condition   string
	Notes       string
}

// ReturnRequest is the aggregate root for one customer return against one order.
// It is mutated only through its transition methods and never deleted.
type ReturnRequest struct {
	shared.BaseAggregateRoot
	RMANumber        string
	OrderID          uuid.UUID
	UserID           uuid.UUID
	Customer         CustomerSummary
	Order            OrderSummary
	ReturnType       ReturnType
	Reason           ReturnReason
	Status           ReturnStatus
	RefundAmount     decimal.Decimal
	RestockingFee    decimal.Decimal
	ShippingRefund   decimal.Decimal
	Comments         string
	RejectedReason   string
	InspectionNotes  string
	InspectionPhotos []string
	TrackingNumber   string
	Label            *ReturnLabel
	Items            []ReturnItem
	Timeline         []TimelineEntry
	RequestedAt      time.Time
	ApprovedAt       *time.Time
	ApprovedBy       *uuid.UUID
	RejectedAt       *time.Time
	ReceivedAt       *time.Time
	InspectedAt      *time.Time
	InspectedBy      *uuid.UUID
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelledBy      *uuid.UUID
}

// NewReturnRequest creates a return in REQUESTED status. The order must belong
// to userID and every requested item must reference a line of that order.
func NewReturnRequest(
	rmaNumber string,
	order *OrderSnapshot,
	userID uuid.UUID,
	returnType ReturnType,
	reason ReturnReason,
	comments string,
	requested []RequestedItem,
) (*ReturnRequest, error) {
	if order == nil {
		return nil, shared.NewNotFoundError("Order")
	}
	if order.UserID != userID {
		return nil, shared.NewForbiddenError("Order does not belong to the requesting user")
	}
	if !IsValidRMANumber(rmaNumber) {
		return nil, shared.NewBadRequestError("Invalid RMA number")
	}
	if !returnType.IsValid() {
		return nil, shared.NewBadRequestError(fmt.Sprintf("Invalid return type: %s", returnType))
	}
	if !reason.IsValid() {
		return nil, shared.NewBadRequestError(fmt.Sprintf("Invalid return reason: %s", reason))
	}
	if len(requested) == 0 {
		return nil, shared.NewBadRequestError("At least one item must be returned")
	}

	r := &ReturnRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RMANumber:         rmaNumber,
		OrderID:           order.ID,
		UserID:            userID,
		Customer:          CustomerSummary{Name: order.CustomerName, Email: order.CustomerEmail},
		Order: OrderSummary{
			OrderNumber:     order.OrderNumber,
			ShippingAddress: order.ShippingAddress,
			ShippingCost:    order.ShippingCost,
			Currency:        order.Currency,
			PaymentMethod:   order.PaymentMethod,
		},
		ReturnType:       returnType,
		Reason:           reason,
		Status:           ReturnStatusRequested,
		RestockingFee:    decimal.Zero,
		ShippingRefund:   decimal.Zero,
		Comments:         comments,
		InspectionPhotos: []string{},
		Items:            make([]ReturnItem, 0, len(requested)),
		Timeline:         make([]TimelineEntry, 0, 8),
	}
	r.RequestedAt = r.CreatedAt

	seen := make(map[uuid.UUID]struct{}, len(requested))
	for _, req := range requested {
		if _, dup := seen[req.OrderItemID]; dup {
			return nil, shared.NewBadRequestError(fmt.Sprintf("Order item %s requested more than once", req.OrderItemID))
		}
		seen[req.OrderItemID] = struct{}{}

		line := order.FindLine(req.OrderItemID)
		if line == nil {
			return nil, shared.NewBadRequestError(fmt.Sprintf("Order item %s not found in order", req.OrderItemID))
		}
		if req.Quantity <= 0 {
			return nil, shared.NewBadRequestError("Return quantity must be positive")
		}
		if req.Quantity > line.Quantity {
			return nil, shared.NewBadRequestError(fmt.Sprintf("Return quantity for %s exceeds ordered quantity", line.ProductName))
		}

		itemReason := req.Reason
		if itemReason == "" {
			itemReason = reason
		}
		if !itemReason.IsValid() {
			return nil, shared.NewBadRequestError(fmt.Sprintf("Invalid return reason: %s", itemReason))
		}

		r.Items = append(r.Items, ReturnItem{
			ID:           uuid.New(),
			ReturnID:     r.ID,
			OrderItemID:  line.ID,
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			SKU:          line.SKU,
			Quantity:     req.Quantity,
			UnitPrice:    line.UnitPrice,
			RefundAmount: LineTotal(line.UnitPrice, req.Quantity),
			Reason:       itemReason,
			Condition:    req.Condition,
			Notes:        req.Notes,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.CreatedAt,
		})
	}

	r.RefundAmount = r.ItemsTotal()
	r.addTimeline(ReturnStatusRequested, "Return request created", &userID, r.CreatedAt)
	r.AddDomainEvent(NewReturnRequestedEvent(r))

	return r, nil
}

// ItemsTotal returns Σ(unit price × quantity) over the returned items
func (r *ReturnRequest) ItemsTotal() decimal.Decimal {
	lines := make([]PricedQuantity, len(r.Items))
	for i, item := range r.Items {
		lines[i] = PricedQuantity{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return SumItems(lines)
}

// IsOwnedBy reports whether userID raised this return
func (r *ReturnRequest) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// FindItem returns the return item with the given id, or nil
func (r *ReturnRequest) FindItem(itemID uuid.UUID) *ReturnItem {
	for i := range r.Items {
		if r.Items[i].ID == itemID {
			return &r.Items[i]
		}
	}
	return nil
}

// MarkPendingApproval moves a fresh request under admin review
func (r *ReturnRequest) MarkPendingApproval(actor uuid.UUID) error {
	if r.Status != ReturnStatusRequested {
		return shared.NewBadRequestError("Return cannot be reviewed in current status")
	}
	now := time.Now()
	r.Status = ReturnStatusPendingApproval
	r.addTimeline(ReturnStatusPendingApproval, "Return is under review", &actor, now)
	r.UpdatedAt = now
	return nil
}

// ApprovalTerms are the money adjustments applied when a return is approved
type ApprovalTerms struct {
	RestockingFee         decimal.Decimal
	IncludeShippingRefund bool
	// ShippingRefund overrides the order's shipping cost when IncludeShippingRefund is set
	ShippingRefund *decimal.Decimal
}

// Approve accepts the return. The refund is recomputed from the items:
// max(0, items − restocking fee) plus the shipping refund when included.
func (r *ReturnRequest) Approve(approverID uuid.UUID, terms ApprovalTerms) error {
	if !r.Status.CanBeApproved() {
		return shared.NewBadRequestError("Return cannot be approved in current status")
	}
	if terms.RestockingFee.IsNegative() {
		return shared.NewBadRequestError("Restocking fee cannot be negative")
	}

	shipping := decimal.Zero
	if terms.IncludeShippingRefund {
		shipping = r.Order.ShippingCost
		if terms.ShippingRefund != nil {
			shipping = *terms.ShippingRefund
		}
		if shipping.IsNegative() {
			return shared.NewBadRequestError("Shipping refund cannot be negative")
		}
	}

	now := time.Now()
	r.RestockingFee = terms.RestockingFee
	r.ShippingRefund = shipping
	r.recalculateRefundAmount()
	r.Status = ReturnStatusApproved
	r.ApprovedAt = &now
	r.ApprovedBy = &approverID
	r.addTimeline(ReturnStatusApproved, "Return approved", &approverID, now)
	r.UpdatedAt = now

	r.AddDomainEvent(NewReturnApprovedEvent(r))
	return nil
}

// Reject declines the return request
func (r *ReturnRequest) Reject(approverID uuid.UUID, reason string) error {
	if !r.Status.CanBeApproved() {
		return shared.NewBadRequestError("Return cannot be approved in current status")
	}

	now := time.Now()
	r.Status = ReturnStatusRejected
	r.RejectedAt = &now
	r.RejectedReason = reason
	r.addTimeline(ReturnStatusRejected, rejectionDescription("Return rejected", reason), &approverID, now)
	r.UpdatedAt = now

	r.AddDomainEvent(NewReturnRejectedEvent(r))
	return nil
}

// EnsureLabelAllowed fails unless a label may be generated now. Callers check
// this before contacting the shipping collaborator.
func (r *ReturnRequest) EnsureLabelAllowed() error {
	if r.Status != ReturnStatusApproved {
		return shared.NewBadRequestError("Return must be approved before generating a label")
	}
	return nil
}

// AttachLabel records the inbound label and moves the return to LABEL_SENT
func (r *ReturnRequest) AttachLabel(actor uuid.UUID, label ReturnLabel) error {
	if err := r.EnsureLabelAllowed(); err != nil {
		return err
	}
	if label.TrackingNumber == "" {
		return shared.NewBadRequestError("Label tracking number is required")
	}

	now := time.Now()
	if label.CreatedAt.IsZero() {
		label.CreatedAt = now
	}
	r.Label = &label
	r.TrackingNumber = label.TrackingNumber
	r.Status = ReturnStatusLabelSent
	r.addTimeline(ReturnStatusLabelSent,
		fmt.Sprintf("Return label created (%s %s)", label.Carrier, label.TrackingNumber), &actor, now)
	r.UpdatedAt = now

	r.AddDomainEvent(NewReturnLabelCreatedEvent(r))
	return nil
}

// MarkReceived records arrival of the package at the warehouse
func (r *ReturnRequest) MarkReceived(actor uuid.UUID) error {
	if !r.Status.CanTransitionTo(ReturnStatusReceived) {
		return shared.NewBadRequestError("Return cannot be marked as received in current status")
	}

	now := time.Now()
	r.Status = ReturnStatusReceived
	r.ReceivedAt = &now
	r.addTimeline(ReturnStatusReceived, "Return package received at warehouse", &actor, now)
	r.UpdatedAt = now

	r.AddDomainEvent(NewReturnReceivedEvent(r))
	return nil
}

// InspectionResult is the outcome of the warehouse inspection
type InspectionResult struct {
	Approved bool
	Notes    string
	Photos   []string
	// AdjustedRefundAmount replaces the refund amount outright when set
	AdjustedRefundAmount *decimal.Decimal
}

// Inspect records the inspection outcome of a received return
func (r *ReturnRequest) Inspect(inspectorID uuid.UUID, result InspectionResult) error {
	if r.Status != ReturnStatusReceived {
		return shared.NewBadRequestError("Return must be received before inspection")
	}
	if result.AdjustedRefundAmount != nil && result.AdjustedRefundAmount.IsNegative() {
		return shared.NewBadRequestError("Adjusted refund amount cannot be negative")
	}

	now := time.Now()
	r.InspectedAt = &now
	r.InspectedBy = &inspectorID
	r.InspectionNotes = result.Notes
	if result.Photos != nil {
		r.InspectionPhotos = append([]string(nil), result.Photos...)
	}
	r.UpdatedAt = now

	if !result.Approved {
		r.Status = ReturnStatusRejected
		r.RejectedAt = &now
		r.RejectedReason = result.Notes
		r.addTimeline(ReturnStatusRejected, rejectionDescription("Return rejected after inspection", result.Notes), &inspectorID, now)
		r.AddDomainEvent(NewReturnInspectedEvent(r, false))
		r.AddDomainEvent(NewReturnRejectedEvent(r))
		return nil
	}

	if result.AdjustedRefundAmount != nil {
		r.RefundAmount = *result.AdjustedRefundAmount
	}
	r.Status = ReturnStatusApprovedRefund
	r.addTimeline(ReturnStatusApprovedRefund, "Inspection passed, return approved for settlement", &inspectorID, now)
	r.AddDomainEvent(NewReturnInspectedEvent(r, true))
	return nil
}

// SettlementKind is how a completed return was paid back
type SettlementKind string

const (
	SettlementRefund      SettlementKind = "REFUND"
	SettlementStoreCredit SettlementKind = "STORE_CREDIT"
)

// Settlement describes the money movement that completed a return
type Settlement struct {
	Kind      SettlementKind
	Amount    decimal.Decimal
	Reference string // gateway transaction id or ledger transaction id
	ExpiresAt *time.Time
}

// Complete closes the return once it has been settled
func (r *ReturnRequest) Complete(actor *uuid.UUID, settlement Settlement) error {
	if !r.Status.CanTransitionTo(ReturnStatusCompleted) {
		return shared.NewBadRequestError(fmt.Sprintf("Return cannot be completed in %s status", r.Status))
	}

	now := time.Now()
	r.Status = ReturnStatusCompleted
	r.CompletedAt = &now
	var description string
	switch settlement.Kind {
	case SettlementStoreCredit:
		description = fmt.Sprintf("Store credit of %s issued", settlement.Amount.StringFixed(MoneyScale))
	default:
		description = fmt.Sprintf("Refund of %s processed", settlement.Amount.StringFixed(MoneyScale))
	}
	r.addTimeline(ReturnStatusCompleted, description, actor, now)
	r.UpdatedAt = now

	r.AddDomainEvent(NewReturnCompletedEvent(r, settlement))
	return nil
}

// Cancel withdraws the return. Only the requester may cancel, and only before
// the package is on its way.
func (r *ReturnRequest) Cancel(requesterID uuid.UUID) error {
	if !r.IsOwnedBy(requesterID) {
		return shared.NewForbiddenError("You can only cancel your own returns")
	}
	if !r.Status.CanBeCancelled() {
		return shared.NewBadRequestError("Return cannot be cancelled in current status")
	}

	now := time.Now()
	r.Status = ReturnStatusCancelled
	r.CancelledAt = &now
	r.CancelledBy = &requesterID
	r.addTimeline(ReturnStatusCancelled, "Return cancelled by customer", &requesterID, now)
	r.UpdatedAt = now

	r.AddDomainEvent(NewReturnCancelledEvent(r))
	return nil
}

// EnsureRestockAllowed fails unless the returned goods may be restocked
func (r *ReturnRequest) EnsureRestockAllowed() error {
	if !r.Status.CanBeRestocked() {
		return shared.NewBadRequestError("Return must be approved before restocking")
	}
	return nil
}

// MarkItemRestocked flags an item as put back into warehouseID. It returns
// false without error when the item was already restocked.
func (r *ReturnRequest) MarkItemRestocked(actor uuid.UUID, itemID, warehouseID uuid.UUID, quantity int) (bool, error) {
	if err := r.EnsureRestockAllowed(); err != nil {
		return false, err
	}
	item := r.FindItem(itemID)
	if item == nil {
		return false, shared.NewNotFoundError("Return item")
	}
	if item.Restocked {
		return false, nil
	}
	if quantity <= 0 {
		return false, shared.NewBadRequestError("Restock quantity must be positive")
	}

	now := time.Now()
	item.Restocked = true
	item.RestockedAt = &now
	item.RestockedWarehouseID = &warehouseID
	item.RestockedQuantity = quantity
	item.UpdatedAt = now
	r.addTimeline(r.Status,
		fmt.Sprintf("Restocked %d x %s", quantity, item.ProductName), &actor, now)
	r.UpdatedAt = now
	return true, nil
}

// AllItemsRestocked reports whether every item has been restocked
func (r *ReturnRequest) AllItemsRestocked() bool {
	for _, item := range r.Items {
		if !item.Restocked {
			return false
		}
	}
	return len(r.Items) > 0
}

// Notice builds the customer notification payload for the current state
func (r *ReturnRequest) Notice() Notice {
	n := Notice{
		ReturnID:       r.ID,
		RMANumber:      r.RMANumber,
		UserID:         r.UserID,
		CustomerName:   r.Customer.Name,
		CustomerEmail:  r.Customer.Email,
		Status:         r.Status,
		Amount:         r.RefundAmount,
		Currency:       r.Order.Currency,
		Reason:         r.RejectedReason,
		TrackingNumber: r.TrackingNumber,
	}
	if r.Label != nil {
		n.LabelURL = r.Label.LabelURL
		n.Carrier = r.Label.Carrier
	}
	return n
}

func (r *ReturnRequest) recalculateRefundAmount() {
	r.RefundAmount = ApplyRestockingFee(r.ItemsTotal(), r.RestockingFee).Add(r.ShippingRefund)
}

func (r *ReturnRequest) addTimeline(status ReturnStatus, description string, actor *uuid.UUID, at time.Time) {
	var performedBy *uuid.UUID
	if actor != nil && *actor != uuid.Nil {
		id := *actor
		performedBy = &id
	}
	r.Timeline = append(r.Timeline, TimelineEntry{
		ID:          uuid.New(),
		ReturnID:    r.ID,
		Status:      status,
		Description: description,
		PerformedBy: performedBy,
		OccurredAt:  at,
	})
}

func rejectionDescription(prefix, reason string) string {
	if reason == "" {
		return prefix
	}
	return prefix + ": " + reason
}
