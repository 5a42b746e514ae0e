package models

import (
	"encoding/json"
	"time"

	"github.com/citadelbuy/returns/internal/domain/inventory"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WarehouseModel is the persistence model for the Warehouse aggregate root.
type WarehouseModel struct {
	AggregateModel
	Code      string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name      string                    `gorm:"type:varchar(200);not null"`
	Address   string                    `gorm:"type:jsonb;default:'{}'"`
	Status    inventory.WarehouseStatus `gorm:"type:varchar(20);not null;default:'active'"`
	IsPrimary bool                      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse.
func (m *WarehouseModel) ToDomain() *inventory.Warehouse {
	w := &inventory.Warehouse{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Status:            m.Status,
		IsPrimary:         m.IsPrimary,
	}
	if m.Address != "" {
		var addr returns.Address
		if err := json.Unmarshal([]byte(m.Address), &addr); err != nil {
			modelLogger().Warn("failed to parse warehouse address JSON",
				zap.String("warehouse_id", m.ID.String()), zap.Error(err))
		}
		w.Address = addr
	}
	return w
}

// FromDomain populates the persistence model from a domain Warehouse.
func (m *WarehouseModel) FromDomain(w *inventory.Warehouse) {
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	m.Code = w.Code
	m.Name = w.Name
	m.Status = w.Status
	m.IsPrimary = w.IsPrimary
	addr, _ := json.Marshal(w.Address)
	m.Address = string(addr)
}

// InventoryItemModel is the stock row of one product in one warehouse.
type InventoryItemModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_items_product_warehouse,priority:1"`
	WarehouseID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_items_product_warehouse,priority:2"`
	Quantity          int       `gorm:"not null;default:0"`
	AvailableQuantity int       `gorm:"not null;default:0"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain InventoryItem.
func (m *InventoryItemModel) ToDomain() *inventory.InventoryItem {
	return &inventory.InventoryItem{
		ID:                m.ID,
		ProductID:         m.ProductID,
		WarehouseID:       m.WarehouseID,
		Quantity:          m.Quantity,
		AvailableQuantity: m.AvailableQuantity,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
