package returns

import (
	"context"
	"errors"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"go.uber.org/zap"
)

// eventDispatcher publishes the events collected on aggregates once their
// changes are committed. Publishing is best-effort.
type eventDispatcher struct {
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

func newEventDispatcher(logger *zap.Logger) eventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return eventDispatcher{logger: logger}
}

// SetEventPublisher sets the event publisher used after successful saves
func (d *eventDispatcher) SetEventPublisher(publisher shared.EventPublisher) {
	d.eventPublisher = publisher
}

func (d *eventDispatcher) publish(ctx context.Context, aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		events := agg.GetDomainEvents()
		agg.ClearDomainEvents()
		if d.eventPublisher == nil || len(events) == 0 {
			continue
		}
		if err := d.eventPublisher.Publish(ctx, events...); err != nil {
			d.logger.Warn("failed to publish domain events",
				zap.String("aggregate_id", agg.GetID().String()),
				zap.Int("count", len(events)),
				zap.Error(err),
			)
		}
	}
}

// translateNotFound turns the repository sentinel into a NOT_FOUND error
// naming the resource. Other errors pass through.
func translateNotFound(err error, resource string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(resource)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return shared.NewForbiddenError("Admin role required")
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
