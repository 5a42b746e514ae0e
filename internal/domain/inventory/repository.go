package inventory

import (
	"context"

	"github.com/google/uuid"
)

// WarehouseRepository defines read operations for warehouses
type WarehouseRepository interface {
	// FindByID finds a warehouse by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)

	// FindActivePrimary returns the active primary warehouse, or
	// shared.ErrNotFound when none is configured
	FindActivePrimary(ctx context.Context) (*Warehouse, error)

	// Save creates or updates a warehouse
	Save(ctx context.Context, warehouse *Warehouse) error
}

// InventoryRepository defines stock persistence
type InventoryRepository interface {
	// FindByProductAndWarehouse finds the stock row of a product in a warehouse
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*InventoryItem, error)

	// Upsert atomically adds delta to quantity and available quantity,
	// creating the row with delta when it does not exist
	Upsert(ctx context.Context, productID, warehouseID uuid.UUID, delta int) (*InventoryItem, error)
}
