package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualGateway_ProcessRefund(t *testing.T) {
	gateway := NewManualGateway(nil)
	assert.Equal(t, finance.PaymentGatewayTypeManual, gateway.GatewayType())

	t.Run("accepts the transfer", func(t *testing.T) {
		req := &finance.GatewayRefundRequest{
			RefundID: uuid.New(),
			Amount:   decimal.RequireFromString("42.10"),
			Currency: "USD",
		}

		resp, err := gateway.ProcessRefund(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, finance.GatewayRefundStatusSucceeded, resp.Status)
		assert.True(t, strings.HasPrefix(resp.RefundID, "MANUAL-"))
		assert.Equal(t, "MANUAL-"+req.RefundID.String()[:8], resp.RefundID)
		assert.True(t, resp.Amount.Equal(req.Amount))
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := gateway.ProcessRefund(context.Background(), &finance.GatewayRefundRequest{RefundID: uuid.New()})
		assert.ErrorIs(t, err, finance.ErrRefundInvalidAmount)
	})

	t.Run("missing refund id", func(t *testing.T) {
		_, err := gateway.ProcessRefund(context.Background(), &finance.GatewayRefundRequest{Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, finance.ErrRefundInvalidRefundID)
	})
}
