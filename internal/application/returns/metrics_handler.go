package returns

import (
	"context"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/shopspring/decimal"
)

// Refund outcomes reported to SettlementMetrics
const (
	RefundOutcomeCompleted = "completed"
	RefundOutcomeFailed    = "failed"
)

// SettlementMetrics records business counters for returns and settlements
type SettlementMetrics interface {
	RecordReturnCreated(ctx context.Context, returnType, reason string)
	RecordRefundProcessed(ctx context.Context, method, outcome string, amount decimal.Decimal, currency string)
	RecordStoreCreditIssued(ctx context.Context, amount decimal.Decimal, currency string)
}

// MetricsHandler feeds domain events into SettlementMetrics
type MetricsHandler struct {
	metrics SettlementMetrics
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics SettlementMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Name identifies the handler in logs
func (h *MetricsHandler) Name() string {
	return "settlement_metrics"
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		returns.EventTypeReturnRequested,
		finance.EventTypeRefundCompleted,
		finance.EventTypeRefundFailed,
		storecredit.EventTypeStoreCreditIssued,
	}
}

// Handle records the counters for one event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *returns.ReturnRequestedEvent:
		h.metrics.RecordReturnCreated(ctx, string(e.ReturnType), string(e.Reason))
	case *finance.RefundCompletedEvent:
		h.metrics.RecordRefundProcessed(ctx, string(e.Method), RefundOutcomeCompleted, e.TotalAmount, e.Currency)
	case *finance.RefundFailedEvent:
		h.metrics.RecordRefundProcessed(ctx, string(e.Method), RefundOutcomeFailed, e.TotalAmount, e.Currency)
	case *storecredit.StoreCreditIssuedEvent:
		h.metrics.RecordStoreCreditIssued(ctx, e.Amount, e.Currency)
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
