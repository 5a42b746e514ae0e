package payment

import (
	"context"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ManualGateway records refunds that finance staff settle outside a card
// processor, such as bank transfers. The refund is accepted immediately and
// the returned reference is what staff quote on the transfer.
type ManualGateway struct {
	logger *zap.Logger
}

// NewManualGateway creates a new ManualGateway
func NewManualGateway(logger *zap.Logger) *ManualGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManualGateway{logger: logger.Named("manual_refunds")}
}

// GatewayType returns the gateway type
func (g *ManualGateway) GatewayType() finance.PaymentGatewayType {
	return finance.PaymentGatewayTypeManual
}

// ProcessRefund accepts the refund and returns a transfer reference
func (g *ManualGateway) ProcessRefund(ctx context.Context, req *finance.GatewayRefundRequest) (*finance.GatewayRefundResponse, error) {
	if req == nil || req.Amount.Sign() <= 0 {
		return nil, finance.ErrRefundInvalidAmount
	}
	if req.RefundID == uuid.Nil {
		return nil, finance.ErrRefundInvalidRefundID
	}

	reference := "MANUAL-" + req.RefundID.String()[:8]
	g.logger.Info("Manual refund recorded",
		zap.String("refund_id", req.RefundID.String()),
		zap.String("reference", reference),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("currency", req.Currency))

	return &finance.GatewayRefundResponse{
		RefundID: reference,
		Amount:   req.Amount,
		Status:   finance.GatewayRefundStatusSucceeded,
	}, nil
}

// Ensure ManualGateway implements PaymentGateway
var _ finance.PaymentGateway = (*ManualGateway)(nil)
