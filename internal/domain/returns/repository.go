package returns

import (
	"context"
	"time"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnRequestRepository defines persistence operations for return requests
type ReturnRequestRepository interface {
	// FindByID loads a return with its items, timeline and label
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnRequest, error)

	// FindByRMANumber loads a return by its RMA number
	FindByRMANumber(ctx context.Context, rmaNumber string) (*ReturnRequest, error)

	// FindAll finds returns matching the filter. Supported filter keys:
	// user_id, order_id, status, return_type, reason, start_date, end_date
	FindAll(ctx context.Context, filter shared.Filter) ([]ReturnRequest, error)

	// Count counts returns matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByRMANumber reports whether an RMA number is already taken
	ExistsByRMANumber(ctx context.Context, rmaNumber string) (bool, error)

	// Save inserts a new return with its items and timeline
	Save(ctx context.Context, r *ReturnRequest) error

	// SaveWithLock updates a return using optimistic locking on Version.
	// Returns shared.ErrConcurrencyConflict if another writer got there first.
	SaveWithLock(ctx context.Context, r *ReturnRequest) error

	// Analytics aggregates returns created within the range
	Analytics(ctx context.Context, query AnalyticsQuery) (*Analytics, error)
}

// AnalyticsQuery restricts analytics to an optional creation date range
type AnalyticsQuery struct {
	From   *time.Time
	To     *time.Time
	UserID *uuid.UUID
}

// Analytics is a read-only rollup over returns and their settlements
type Analytics struct {
	TotalReturns        int64
	ByStatus            map[ReturnStatus]int64
	ByReason            map[ReturnReason]int64
	ByType              map[ReturnType]int64
	TotalRefunded       decimal.Decimal // Σ total of COMPLETED refunds
	TotalRequestedValue decimal.Decimal // Σ refund amount of all returns
	TotalStoreCredit    decimal.Decimal // Σ store credit issued for returns
}

// NewAnalytics returns an empty rollup with zero sums
func NewAnalytics() *Analytics {
	return &Analytics{
		ByStatus:            make(map[ReturnStatus]int64),
		ByReason:            make(map[ReturnReason]int64),
		ByType:              make(map[ReturnType]int64),
		TotalRefunded:       decimal.Zero,
		TotalRequestedValue: decimal.Zero,
		TotalStoreCredit:    decimal.Zero,
	}
}
