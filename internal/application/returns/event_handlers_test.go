package returns

import (
	"context"
	"errors"
	"testing"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotificationHandler_EventTypes(t *testing.T) {
	handler := NewNotificationHandler(new(MockNotifier), newTestLogger())

	assert.Equal(t, "return_notifications", handler.Name())
	assert.ElementsMatch(t, []string{
		returns.EventTypeReturnRequested,
		returns.EventTypeReturnApproved,
		returns.EventTypeReturnRejected,
		returns.EventTypeReturnLabelCreated,
		returns.EventTypeReturnCompleted,
		finance.EventTypeRefundFailed,
	}, handler.EventTypes())
}

func TestNotificationHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms a new return", func(t *testing.T) {
		notifier := new(MockNotifier)
		handler := NewNotificationHandler(notifier, newTestLogger())
		r, _ := newTestReturn(t, returns.ReturnTypeRefund)
		notifier.On("SendReturnRequestConfirmation", ctx, mock.MatchedBy(func(n returns.Notice) bool {
			return n.RMANumber == testRMA && n.CustomerEmail == "jane@example.com"
		})).Return(nil)

		err := handler.Handle(ctx, returns.NewReturnRequestedEvent(r))

		require.NoError(t, err)
		notifier.AssertExpectations(t)
	})

	t.Run("store credit completion sends the credit notice", func(t *testing.T) {
		notifier := new(MockNotifier)
		handler := NewNotificationHandler(notifier, newTestLogger())
		r, _ := newInspectedReturn(t, returns.ReturnTypeStoreCredit)
		notifier.On("SendStoreCreditIssued", ctx, mock.Anything).Return(nil)

		err := handler.Handle(ctx, returns.NewReturnCompletedEvent(r, returns.Settlement{
			Kind:   returns.SettlementStoreCredit,
			Amount: r.RefundAmount,
		}))

		require.NoError(t, err)
		notifier.AssertNotCalled(t, "SendRefundProcessed", mock.Anything, mock.Anything)
	})

	t.Run("refund completion sends the refund notice", func(t *testing.T) {
		notifier := new(MockNotifier)
		handler := NewNotificationHandler(notifier, newTestLogger())
		r, _ := newInspectedReturn(t, returns.ReturnTypeRefund)
		notifier.On("SendRefundProcessed", ctx, mock.Anything).Return(nil)

		err := handler.Handle(ctx, returns.NewReturnCompletedEvent(r, returns.Settlement{
			Kind:   returns.SettlementRefund,
			Amount: r.RefundAmount,
		}))

		require.NoError(t, err)
		notifier.AssertExpectations(t)
	})

	t.Run("delivery failure is reported", func(t *testing.T) {
		notifier := new(MockNotifier)
		handler := NewNotificationHandler(notifier, newTestLogger())
		r, _ := newTestReturn(t, returns.ReturnTypeRefund)
		require.NoError(t, r.Reject(adminActor.UserID, "worn"))
		notifier.On("SendReturnRejected", ctx, mock.Anything).Return(errors.New("smtp down"))

		err := handler.Handle(ctx, returns.NewReturnRejectedEvent(r))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp down")
	})

	t.Run("failed refunds are logged only", func(t *testing.T) {
		notifier := new(MockNotifier)
		handler := NewNotificationHandler(notifier, newTestLogger())
		r, _ := newInspectedReturn(t, returns.ReturnTypeRefund)
		refund := newPendingRefund(t, r, finance.RefundMethodOriginalPayment)
		require.NoError(t, refund.MarkProcessing())
		require.NoError(t, refund.Fail(adminActor.UserID, "declined"))

		err := handler.Handle(ctx, finance.NewRefundFailedEvent(refund))

		require.NoError(t, err)
		assert.Empty(t, notifier.Calls)
	})
}

func TestMetricsHandler_Handle(t *testing.T) {
	ctx := context.Background()
	metrics := new(MockSettlementMetrics)
	handler := NewMetricsHandler(metrics)
	r, _ := newInspectedReturn(t, returns.ReturnTypeRefund)

	metrics.On("RecordReturnCreated", ctx, "REFUND", "DEFECTIVE").Return()
	require.NoError(t, handler.Handle(ctx, returns.NewReturnRequestedEvent(r)))

	refund := newPendingRefund(t, r, finance.RefundMethodOriginalPayment)
	require.NoError(t, refund.MarkProcessing())
	require.NoError(t, refund.Complete(adminActor.UserID, "re_1"))
	metrics.On("RecordRefundProcessed", ctx, "ORIGINAL_PAYMENT", RefundOutcomeCompleted, "129.97", "USD").Return()
	require.NoError(t, handler.Handle(ctx, finance.NewRefundCompletedEvent(refund)))

	account, err := storecredit.NewAccount(r.UserID, "USD")
	require.NoError(t, err)
	tx, err := account.Apply(storecredit.Entry{Type: storecredit.TransactionTypeRefund, Amount: decimal.RequireFromString("12.5"), Description: "credit"})
	require.NoError(t, err)
	metrics.On("RecordStoreCreditIssued", ctx, "12.5", "USD").Return()
	require.NoError(t, handler.Handle(ctx, storecredit.NewStoreCreditIssuedEvent(account, tx)))

	// Events the handler does not track are ignored
	require.NoError(t, handler.Handle(ctx, returns.NewReturnCancelledEvent(r)))

	metrics.AssertExpectations(t)
	metrics.AssertNumberOfCalls(t, "RecordReturnCreated", 1)
}
