package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Payment Gateway Errors
// ---------------------------------------------------------------------------

var (
	ErrRefundInvalidPaymentReference = errors.New("refund: invalid original payment reference")
	ErrRefundInvalidRefundID         = errors.New("refund: invalid refund ID")
	ErrRefundInvalidAmount           = errors.New("refund: invalid refund amount")

	ErrGatewayNotConfigured   = errors.New("payment: gateway not configured")
	ErrGatewayRequestFailed   = errors.New("payment: gateway request failed")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
)

// PaymentGatewayType identifies a payment gateway
type PaymentGatewayType string

const (
	// PaymentGatewayTypeStripe is the Stripe card gateway
	PaymentGatewayTypeStripe PaymentGatewayType = "STRIPE"
	// PaymentGatewayTypeManual records refunds settled by finance staff (bank transfer)
	PaymentGatewayTypeManual PaymentGatewayType = "MANUAL"
)

// String returns the string representation of PaymentGatewayType
func (t PaymentGatewayType) String() string {
	return string(t)
}

// GatewayRefundStatus is the gateway-side status of a refund
type GatewayRefundStatus string

const (
	GatewayRefundStatusPending   GatewayRefundStatus = "PENDING"
	GatewayRefundStatusSucceeded GatewayRefundStatus = "SUCCEEDED"
	GatewayRefundStatusFailed    GatewayRefundStatus = "FAILED"
	GatewayRefundStatusCancelled GatewayRefundStatus = "CANCELLED"
)

// IsFailure reports whether the gateway refused the refund
func (s GatewayRefundStatus) IsFailure() bool {
	return s == GatewayRefundStatusFailed || s == GatewayRefundStatusCancelled
}

// GatewayRefundRequest asks a gateway to return money against an earlier charge
type GatewayRefundRequest struct {
	// RefundID is our internal refund reference, also used as idempotency key
	RefundID uuid.UUID
	// PaymentReference is the gateway's reference of the original charge
	PaymentReference string
	// Amount is the amount to refund in major units
	Amount decimal.Decimal
	// Currency is the ISO currency code
	Currency string
	// Memo is a human-readable reason shown in the gateway dashboard
	Memo string
	// Metadata is attached to the gateway refund for reconciliation
	Metadata map[string]string
}

// Validate validates the refund request
func (r *GatewayRefundRequest) Validate() error {
	if r.RefundID == uuid.Nil {
		return ErrRefundInvalidRefundID
	}
	if strings.TrimSpace(r.PaymentReference) == "" {
		return ErrRefundInvalidPaymentReference
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrRefundInvalidAmount
	}
	return nil
}

// GatewayRefundResponse is the gateway's answer to a refund request
type GatewayRefundResponse struct {
	RefundID string // gateway refund id
	Amount   decimal.Decimal
	Status   GatewayRefundStatus
	Reason   string // failure reason when Status is a failure
}

// PaymentGateway is the port to an external payment processor. It is defined
// here and implemented by adapters in the infrastructure layer.
type PaymentGateway interface {
	// GatewayType returns the type of this payment gateway
	GatewayType() PaymentGatewayType

	// ProcessRefund refunds money against an earlier charge
	ProcessRefund(ctx context.Context, req *GatewayRefundRequest) (*GatewayRefundResponse, error)
}

// GatewayRegistry resolves payment gateways by type
type GatewayRegistry struct {
	mu       sync.RWMutex
	gateways map[PaymentGatewayType]PaymentGateway
}

// NewGatewayRegistry creates a registry holding the given gateways
func NewGatewayRegistry(gateways ...PaymentGateway) *GatewayRegistry {
	reg := &GatewayRegistry{gateways: make(map[PaymentGatewayType]PaymentGateway)}
	for _, g := range gateways {
		reg.Register(g)
	}
	return reg
}

// Register adds or replaces a gateway
func (r *GatewayRegistry) Register(gateway PaymentGateway) {
	if gateway == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[gateway.GatewayType()] = gateway
}

// Get returns the gateway registered for gatewayType
func (r *GatewayRegistry) Get(gatewayType PaymentGatewayType) (PaymentGateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[PaymentGatewayType(strings.ToUpper(string(gatewayType)))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotConfigured, gatewayType)
	}
	return g, nil
}
