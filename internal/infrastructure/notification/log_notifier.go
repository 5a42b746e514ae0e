package notification

import (
	"context"

	"github.com/citadelbuy/returns/internal/domain/returns"
	"go.uber.org/zap"
)

var _ returns.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the log instead of sending them.
// Used when SMTP is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("log_notifier")}
}

func (n *LogNotifier) SendReturnRequestConfirmation(_ context.Context, notice returns.Notice) error {
	n.log("return_requested", notice)
	return nil
}

func (n *LogNotifier) SendReturnApproved(_ context.Context, notice returns.Notice) error {
	n.log("return_approved", notice)
	return nil
}

func (n *LogNotifier) SendReturnRejected(_ context.Context, notice returns.Notice) error {
	n.log("return_rejected", notice, zap.String("reason", notice.Reason))
	return nil
}

func (n *LogNotifier) SendReturnLabelReady(_ context.Context, notice returns.Notice) error {
	n.log("return_label_ready", notice,
		zap.String("carrier", notice.Carrier),
		zap.String("tracking_number", notice.TrackingNumber),
	)
	return nil
}

func (n *LogNotifier) SendRefundProcessed(_ context.Context, notice returns.Notice) error {
	n.log("refund_processed", notice)
	return nil
}

func (n *LogNotifier) SendStoreCreditIssued(_ context.Context, notice returns.Notice) error {
	n.log("store_credit_issued", notice)
	return nil
}

func (n *LogNotifier) log(kind string, notice returns.Notice, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("kind", kind),
		zap.String("rma_number", notice.RMANumber),
		zap.String("user_id", notice.UserID.String()),
		zap.String("to", notice.CustomerEmail),
		zap.String("amount", notice.Amount.StringFixed(2)),
		zap.String("currency", notice.Currency),
	}, extra...)
	n.logger.Info("customer notification", fields...)
}
