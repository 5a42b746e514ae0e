// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - return_request.go: ReturnRequest, ReturnItem and timeline rows
// - refund.go: Refund settlement records
// - store_credit.go: Store credit accounts and ledger entries
// - inventory.go: Warehouses and stock rows
// - order.go: Read-only projection of orders owned by order management
package models

// All returns every model owned by this service, in dependency order.
// Used by AutoMigrate in tests and local development.
func All() []any {
	return []any{
		&OrderModel{},
		&OrderItemModel{},
		&WarehouseModel{},
		&InventoryItemModel{},
		&ReturnRequestModel{},
		&ReturnItemModel{},
		&ReturnTimelineModel{},
		&RefundModel{},
		&StoreCreditAccountModel{},
		&StoreCreditTransactionModel{},
	}
}
