package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notice carries what a customer-facing message needs to know about a return
type Notice struct {
	ReturnID       uuid.UUID
	RMANumber      string
	UserID         uuid.UUID
	CustomerName   string
	CustomerEmail  string
	Status         ReturnStatus
	Amount         decimal.Decimal
	Currency       string
	Reason         string
	TrackingNumber string
	LabelURL       string
	Carrier        string
	ExpiresAt      *time.Time
}

// Notifier delivers customer notifications. Delivery is best-effort: callers
// log failures and never roll back the transition that triggered them.
type Notifier interface {
	SendReturnRequestConfirmation(ctx context.Context, n Notice) error
	SendReturnApproved(ctx context.Context, n Notice) error
	SendReturnRejected(ctx context.Context, n Notice) error
	SendReturnLabelReady(ctx context.Context, n Notice) error
	SendRefundProcessed(ctx context.Context, n Notice) error
	SendStoreCreditIssued(ctx context.Context, n Notice) error
}
