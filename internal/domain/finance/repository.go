package finance

import (
	"context"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
)

// RefundRepository defines persistence operations for refunds
type RefundRepository interface {
	// FindByID finds a refund by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Refund, error)

	// FindActiveByReturnID finds the non-cancelled refund of a return
	FindActiveByReturnID(ctx context.Context, returnID uuid.UUID) (*Refund, error)

	// FindAll finds refunds matching the filter (keys: user_id, return_id, status)
	FindAll(ctx context.Context, filter shared.Filter) ([]Refund, error)

	// Save inserts a new refund
	Save(ctx context.Context, refund *Refund) error

	// ClaimForProcessing atomically moves a refund from PENDING to PROCESSING.
	// It returns false when the refund was not PENDING, so exactly one of
	// several concurrent callers wins.
	ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// Update persists the processing outcome of a claimed refund
	Update(ctx context.Context, refund *Refund) error

	// Transition persists a status change made outside a processing claim.
	// It returns shared.ErrConcurrencyConflict unless the stored refund still
	// has status from and the version the refund was loaded with.
	Transition(ctx context.Context, refund *Refund, from RefundStatus) error
}
