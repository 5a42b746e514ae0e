package persistence

import (
	"context"
	"testing"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testAdminID = uuid.MustParse("00000000-0000-0000-0000-0000000000ad")

func testOrder(userID uuid.UUID) *returns.OrderSnapshot {
	return &returns.OrderSnapshot{
		ID:            uuid.New(),
		OrderNumber:   "ORD-" + uuid.NewString()[:8],
		UserID:        userID,
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		ShippingAddress: returns.Address{
			Name: "Jane Doe", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		Items: []returns.OrderLine{
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "T-Shirt", SKU: "TS-1", Quantity: 1, UnitPrice: decimal.RequireFromString("29.99")},
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "Jeans", SKU: "JN-1", Quantity: 3, UnitPrice: decimal.RequireFromString("49.99")},
		},
		ShippingCost:    decimal.RequireFromString("7.50"),
		Currency:        "USD",
		PaymentMethod:   returns.PaymentMethodCard,
		PaymentGateway:  "STRIPE",
		PaymentIntentID: "pi_123",
	}
}

// newDomainReturn builds a REQUESTED return of 1 x 29.99 and 2 x 49.99
func newDomainReturn(t *testing.T, returnType returns.ReturnType) *returns.ReturnRequest {
	t.Helper()
	rma, err := returns.NewRMAGenerator().Next()
	require.NoError(t, err)

	userID := uuid.New()
	order := testOrder(userID)
	r, err := returns.NewReturnRequest(rma, order, userID, returnType, returns.ReturnReasonDefective, "zipper broke", []returns.RequestedItem{
		{OrderItemID: order.Items[0].ID, Quantity: 1},
		{OrderItemID: order.Items[1].ID, Quantity: 2},
	})
	require.NoError(t, err)
	r.ClearDomainEvents()
	return r
}

// seedReturn persists a new return and returns it
func seedReturn(t *testing.T, db *gorm.DB, returnType returns.ReturnType) *returns.ReturnRequest {
	t.Helper()
	r := newDomainReturn(t, returnType)
	require.NoError(t, NewGormReturnRequestRepository(db).Save(context.Background(), r))
	return r
}

// seedInspectedReturn persists a return that passed inspection
func seedInspectedReturn(t *testing.T, db *gorm.DB, returnType returns.ReturnType) *returns.ReturnRequest {
	t.Helper()
	repo := NewGormReturnRequestRepository(db)
	r := seedReturn(t, db, returnType)

	require.NoError(t, r.Approve(testAdminID, returns.ApprovalTerms{RestockingFee: decimal.Zero}))
	require.NoError(t, r.MarkReceived(testAdminID))
	require.NoError(t, r.Inspect(testAdminID, returns.InspectionResult{
		Approved: true,
		Notes:    "tags attached",
		Photos:   []string{"returns/" + r.RMANumber + "/front.jpg"},
	}))
	require.NoError(t, repo.SaveWithLock(context.Background(), r))
	r.ClearDomainEvents()
	return r
}

func newTestRefund(t *testing.T, r *returns.ReturnRequest) *finance.Refund {
	t.Helper()
	refund, err := finance.NewRefund(finance.RefundSource{
		ReturnID:         r.ID,
		OrderID:          r.OrderID,
		UserID:           r.UserID,
		RMANumber:        r.RMANumber,
		Gateway:          "stripe",
		PaymentReference: "pi_123",
		Currency:         "USD",
	}, finance.RefundMethodOriginalPayment, finance.RefundAmounts{Subtotal: r.RefundAmount}, testAdminID)
	require.NoError(t, err)
	refund.ClearDomainEvents()
	return refund
}
