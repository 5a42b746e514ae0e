package inventory

import (
	"strings"

	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
)

// WarehouseStatus represents the status of a warehouse
type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "active"
	WarehouseStatusInactive WarehouseStatus = "inactive"
)

// Warehouse is a physical stock location. The active primary warehouse is the
// destination of inbound return shipments.
type Warehouse struct {
	shared.BaseAggregateRoot
	Code      string
	Name      string
	Address   returns.Address
	Status    WarehouseStatus
	IsPrimary bool
}

// NewWarehouse creates an active, non-primary warehouse
func NewWarehouse(code, name string, address returns.Address) (*Warehouse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Warehouse code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}

	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Address:           address,
		Status:            WarehouseStatusActive,
	}, nil
}

// IsActive returns true if the warehouse accepts stock
func (w *Warehouse) IsActive() bool {
	return w.Status == WarehouseStatusActive
}

// ShippingAddress returns the address used as a shipment destination,
// falling back to the warehouse name when no contact name is set
func (w *Warehouse) ShippingAddress() returns.Address {
	addr := w.Address
	if addr.Name == "" {
		addr.Name = w.Name
	}
	return addr
}
