package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/refund"
	"go.uber.org/zap"
)

// zeroDecimalCurrencies are charged in whole units by Stripe
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

// StripeRefundGateway refunds card payments through the Stripe Refunds API
type StripeRefundGateway struct {
	client *refund.Client
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeRefundGateway creates a gateway that talks to the Stripe API
func NewStripeRefundGateway(config *StripeConfig, logger *zap.Logger) (*StripeRefundGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	backendConfig := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(config.MaxNetworkRetries),
	}
	if config.BackendURL != "" {
		backendConfig.URL = stripe.String(config.BackendURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)
	return NewStripeRefundGatewayWithBackend(config, backend, logger)
}

// NewStripeRefundGatewayWithBackend creates a gateway on an explicit backend
func NewStripeRefundGatewayWithBackend(config *StripeConfig, backend stripe.Backend, logger *zap.Logger) (*StripeRefundGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeRefundGateway{
		client: &refund.Client{B: backend, Key: config.SecretKey},
		config: config,
		logger: logger.Named("stripe_refunds"),
	}, nil
}

// GatewayType returns the gateway type
func (g *StripeRefundGateway) GatewayType() finance.PaymentGatewayType {
	return finance.PaymentGatewayTypeStripe
}

// ProcessRefund creates a Stripe refund against the original PaymentIntent
// (pi_...) or Charge (ch_...). The internal refund ID is the idempotency key,
// so a retried request never refunds twice.
//
// Declines reported by Stripe come back as a FAILED response. Transport and
// server errors are returned as errors.
func (g *StripeRefundGateway) ProcessRefund(ctx context.Context, req *finance.GatewayRefundRequest) (*finance.GatewayRefundResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}

	params := &stripe.RefundParams{
		Amount: stripe.Int64(toMinorUnits(req.Amount, currency)),
		Reason: stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + req.RefundID.String())

	if strings.HasPrefix(req.PaymentReference, "ch_") || strings.HasPrefix(req.PaymentReference, "py_") {
		params.Charge = stripe.String(req.PaymentReference)
	} else {
		params.PaymentIntent = stripe.String(req.PaymentReference)
	}

	params.AddMetadata("refund_id", req.RefundID.String())
	if g.config.StoreName != "" {
		params.AddMetadata("store", g.config.StoreName)
	}
	if req.Memo != "" {
		params.AddMetadata("memo", req.Memo)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	g.logger.Debug("Creating Stripe refund",
		zap.String("refund_id", req.RefundID.String()),
		zap.String("payment_reference", req.PaymentReference),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("currency", currency))

	sr, err := g.client.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && isDecline(stripeErr) {
			reason := declineReason(stripeErr)
			g.logger.Warn("Stripe declined refund",
				zap.String("refund_id", req.RefundID.String()),
				zap.String("reason", reason))
			return &finance.GatewayRefundResponse{
				Amount: req.Amount,
				Status: finance.GatewayRefundStatusFailed,
				Reason: reason,
			}, nil
		}
		g.logger.Error("Failed to create Stripe refund",
			zap.String("refund_id", req.RefundID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: stripe: %v", finance.ErrGatewayRequestFailed, err)
	}
	if sr == nil || sr.ID == "" {
		return nil, fmt.Errorf("%w: stripe: empty refund", finance.ErrGatewayInvalidResponse)
	}

	resp := &finance.GatewayRefundResponse{
		RefundID: sr.ID,
		Amount:   fromMinorUnits(sr.Amount, currency),
		Status:   mapStripeRefundStatus(sr.Status),
	}
	if resp.Status.IsFailure() {
		resp.Reason = string(sr.FailureReason)
		if resp.Reason == "" {
			resp.Reason = string(sr.Status)
		}
	}

	g.logger.Info("Created Stripe refund",
		zap.String("refund_id", req.RefundID.String()),
		zap.String("stripe_refund_id", sr.ID),
		zap.String("status", string(sr.Status)))

	return resp, nil
}

// isDecline reports whether Stripe rejected the request itself, as opposed
// to failing to process it
func isDecline(err *stripe.Error) bool {
	switch err.Type {
	case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
		return true
	}
	return false
}

func declineReason(err *stripe.Error) string {
	if err.Code != "" {
		return string(err.Code)
	}
	if err.Msg != "" {
		return err.Msg
	}
	return string(err.Type)
}

func mapStripeRefundStatus(status stripe.RefundStatus) finance.GatewayRefundStatus {
	switch status {
	case stripe.RefundStatusSucceeded:
		return finance.GatewayRefundStatusSucceeded
	case stripe.RefundStatusFailed:
		return finance.GatewayRefundStatusFailed
	case stripe.RefundStatusCanceled:
		return finance.GatewayRefundStatusCancelled
	default:
		// pending and requires_action settle asynchronously
		return finance.GatewayRefundStatusPending
	}
}

func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(amount int64, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[currency] {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}

// Ensure StripeRefundGateway implements PaymentGateway
var _ finance.PaymentGateway = (*StripeRefundGateway)(nil)
