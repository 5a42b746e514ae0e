package inventory

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is the stock of one product in one warehouse.
// (ProductID, WarehouseID) is unique.
type InventoryItem struct {
	ID                uuid.UUID
	ProductID         uuid.UUID
	WarehouseID       uuid.UUID
	Quantity          int
	AvailableQuantity int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StockUpdate is the result of putting returned goods back on the shelf
type StockUpdate struct {
	ReturnItemID      uuid.UUID
	ProductID         uuid.UUID
	WarehouseID       uuid.UUID
	Quantity          int
	NewQuantity       int
	AvailableQuantity int
}
