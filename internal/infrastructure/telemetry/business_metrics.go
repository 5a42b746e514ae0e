package telemetry

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// refundOutcomeCompleted matches the outcome label the returns application reports
const refundOutcomeCompleted = "completed"

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// SettlementMetrics records return and settlement counters:
//
//	returns_created_total{return_type, reason}
//	refunds_processed_total{method, outcome}
//	returns_refund_amount_total{currency}    completed refunds only
//	store_credit_issued_total{currency}      amount credited
type SettlementMetrics struct {
	returnsCreated   *Counter
	refundsProcessed *Counter
	refundAmount     *AmountCounter
	storeCredit      *AmountCounter
}

// NewSettlementMetrics creates the instruments on meter
func NewSettlementMetrics(meter metric.Meter) (*SettlementMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &SettlementMetrics{}
	var err error
	if m.returnsCreated, err = NewCounter(meter, "returns_created_total", "Return requests created", "{return}"); err != nil {
		return nil, err
	}
	if m.refundsProcessed, err = NewCounter(meter, "refunds_processed_total", "Refunds that reached a terminal gateway outcome", "{refund}"); err != nil {
		return nil, err
	}
	if m.refundAmount, err = NewAmountCounter(meter, "returns_refund_amount_total", "Amount refunded to customers"); err != nil {
		return nil, err
	}
	if m.storeCredit, err = NewAmountCounter(meter, "store_credit_issued_total", "Store credit issued for returns"); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SettlementMetrics) RecordReturnCreated(ctx context.Context, returnType, reason string) {
	m.returnsCreated.Inc(ctx, AttrReturnType.String(returnType), AttrReturnReason.String(reason))
}

func (m *SettlementMetrics) RecordRefundProcessed(ctx context.Context, method, outcome string, amount decimal.Decimal, currency string) {
	m.refundsProcessed.Inc(ctx, AttrRefundMethod.String(method), AttrRefundOutcome.String(outcome))
	if outcome == refundOutcomeCompleted {
		m.refundAmount.Add(ctx, amount.InexactFloat64(), AttrCurrency.String(strings.ToUpper(currency)))
	}
}

func (m *SettlementMetrics) RecordStoreCreditIssued(ctx context.Context, amount decimal.Decimal, currency string) {
	m.storeCredit.Add(ctx, amount.InexactFloat64(), AttrCurrency.String(strings.ToUpper(currency)))
}
