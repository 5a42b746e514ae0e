package returns

import (
	"context"
	"fmt"

	"github.com/citadelbuy/returns/internal/domain/inventory"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RestockService puts returned goods back into warehouse stock
type RestockService struct {
	eventDispatcher
	returnRepo    returns.ReturnRequestRepository
	warehouseRepo inventory.WarehouseRepository
	txScope       TransactionScope
}

// NewRestockService creates a new RestockService
func NewRestockService(
	returnRepo returns.ReturnRequestRepository,
	warehouseRepo inventory.WarehouseRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *RestockService {
	return &RestockService{
		eventDispatcher: newEventDispatcher(logger),
		returnRepo:      returnRepo,
		warehouseRepo:   warehouseRepo,
		txScope:         txScope,
	}
}

// Restock increments stock for each requested line. Items already restocked
// are skipped, so repeating a call never double counts.
func (s *RestockService) Restock(ctx context.Context, actor Actor, returnID uuid.UUID, req RestockRequest) (*RestockResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "return", "restock")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrReturnID, returnID.String())

	resp, err := s.restock(ctx, actor, returnID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.AddEvent(span, "restocked", "lines", len(resp.Updates), "skipped", len(resp.Skipped))
	return resp, nil
}

func (s *RestockService) restock(ctx context.Context, actor Actor, returnID uuid.UUID, req RestockRequest) (*RestockResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, shared.NewBadRequestError("At least one item must be restocked")
	}

	r, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, translateNotFound(err, "Return request")
	}
	if err := r.EnsureRestockAllowed(); err != nil {
		return nil, err
	}

	// Validate every line before touching stock
	warehouses := make(map[uuid.UUID]struct{})
	for _, line := range req.Items {
		item := r.FindItem(line.ReturnItemID)
		if item == nil {
			return nil, shared.NewNotFoundError("Return item")
		}
		if line.Quantity > item.Quantity {
			return nil, shared.NewBadRequestError(fmt.Sprintf("Restock quantity for %s exceeds returned quantity", item.ProductName))
		}
		if _, checked := warehouses[line.WarehouseID]; checked {
			continue
		}
		warehouse, err := s.warehouseRepo.FindByID(ctx, line.WarehouseID)
		if err != nil {
			return nil, translateNotFound(err, "Warehouse")
		}
		if !warehouse.IsActive() {
			return nil, shared.NewBadRequestError(fmt.Sprintf("Warehouse %s is not active", warehouse.Code))
		}
		warehouses[line.WarehouseID] = struct{}{}
	}

	response := &RestockResponse{
		ReturnID: r.ID,
		Updates:  []StockUpdateResponse{},
		Skipped:  []uuid.UUID{},
	}
	var restocked []returns.RestockedLine

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, line := range req.Items {
			item := r.FindItem(line.ReturnItemID)
			quantity := line.Quantity
			if quantity == 0 {
				quantity = item.Quantity
			}

			applied, err := r.MarkItemRestocked(actor.UserID, item.ID, line.WarehouseID, quantity)
			if err != nil {
				return err
			}
			if !applied {
				response.Skipped = append(response.Skipped, item.ID)
				continue
			}

			stock, err := repos.InventoryRepo().Upsert(ctx, item.ProductID, line.WarehouseID, quantity)
			if err != nil {
				return fmt.Errorf("failed to restock product %s: %w", item.ProductID, err)
			}
			response.Updates = append(response.Updates, ToStockUpdateResponse(inventory.StockUpdate{
				ReturnItemID:      item.ID,
				ProductID:         item.ProductID,
				WarehouseID:       line.WarehouseID,
				Quantity:          quantity,
				NewQuantity:       stock.Quantity,
				AvailableQuantity: stock.AvailableQuantity,
			}))
			restocked = append(restocked, returns.RestockedLine{
				ReturnItemID: item.ID,
				ProductID:    item.ProductID,
				WarehouseID:  line.WarehouseID,
				Quantity:     quantity,
			})
		}

		if len(restocked) == 0 {
			return nil
		}
		r.AddDomainEvent(returns.NewReturnItemsRestockedEvent(r, restocked))
		return repos.ReturnRepo().SaveWithLock(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, r)
	return response, nil
}
