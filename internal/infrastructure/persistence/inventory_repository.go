package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/citadelbuy/returns/internal/domain/inventory"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRepository implements inventory.InventoryRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// FindByProductAndWarehouse finds the stock row of a product in a warehouse
func (r *GormInventoryRepository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.InventoryItem, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert adds delta to the stock row in one statement:
// INSERT ... ON CONFLICT (product_id, warehouse_id) DO UPDATE SET quantity = quantity + delta.
// Concurrent restocks of the same pair never lose an increment.
func (r *GormInventoryRepository) Upsert(ctx context.Context, productID, warehouseID uuid.UUID, delta int) (*inventory.InventoryItem, error) {
	now := time.Now()
	row := &models.InventoryItemModel{
		ID:                uuid.New(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		Quantity:          delta,
		AvailableQuantity: delta,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":           gorm.Expr("inventory_items.quantity + ?", delta),
				"available_quantity": gorm.Expr("inventory_items.available_quantity + ?", delta),
				"updated_at":         now,
			}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	return r.FindByProductAndWarehouse(ctx, productID, warehouseID)
}

// Ensure GormInventoryRepository implements InventoryRepository
var _ inventory.InventoryRepository = (*GormInventoryRepository)(nil)
