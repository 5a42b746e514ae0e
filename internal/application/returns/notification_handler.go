package returns

import (
	"context"
	"fmt"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationHandler turns return events into customer notifications.
// It runs after the transition has been committed; a failed delivery is
// reported to the event bus, which logs it, and never undoes the transition.
type NotificationHandler struct {
	notifier returns.Notifier
	logger   *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifier returns.Notifier, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger.Named("return_notifications"),
	}
}

// Name identifies the handler in logs and idempotency keys
func (h *NotificationHandler) Name() string {
	return "return_notifications"
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		returns.EventTypeReturnRequested,
		returns.EventTypeReturnApproved,
		returns.EventTypeReturnRejected,
		returns.EventTypeReturnLabelCreated,
		returns.EventTypeReturnCompleted,
		finance.EventTypeRefundFailed,
	}
}

// Handle sends the notification matching the event
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if failed, ok := event.(*finance.RefundFailedEvent); ok {
		// Support follows up on failed refunds; the customer is not emailed
		h.logger.Warn("refund failed",
			zap.String("refund_id", failed.RefundID.String()),
			zap.String("rma_number", failed.RMANumber),
			zap.String("reason", failed.FailedReason),
		)
		return nil
	}

	returnEvent, ok := event.(returns.ReturnEvent)
	if !ok {
		h.logger.Error("unexpected event type", zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	notice := returnEvent.ReturnNotice()

	var err error
	switch e := event.(type) {
	case *returns.ReturnRequestedEvent:
		err = h.notifier.SendReturnRequestConfirmation(ctx, notice)
	case *returns.ReturnApprovedEvent:
		err = h.notifier.SendReturnApproved(ctx, notice)
	case *returns.ReturnRejectedEvent:
		err = h.notifier.SendReturnRejected(ctx, notice)
	case *returns.ReturnLabelCreatedEvent:
		err = h.notifier.SendReturnLabelReady(ctx, notice)
	case *returns.ReturnCompletedEvent:
		if e.Settlement == returns.SettlementStoreCredit {
			err = h.notifier.SendStoreCreditIssued(ctx, notice)
		} else {
			err = h.notifier.SendRefundProcessed(ctx, notice)
		}
	default:
		return nil
	}
	if err != nil {
		h.logger.Error("failed to send return notification",
			zap.String("event_type", event.EventType()),
			zap.String("rma_number", notice.RMANumber),
			zap.Error(err),
		)
		return fmt.Errorf("send %s notification: %w", event.EventType(), err)
	}

	h.logger.Debug("return notification sent",
		zap.String("event_type", event.EventType()),
		zap.String("rma_number", notice.RMANumber),
	)
	return nil
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
