package persistence

import (
	"context"

	returnsapp "github.com/citadelbuy/returns/internal/application/returns"
	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/inventory"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos returnsapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories builds repositories bound to one transaction.
// Nested transactions opened by those repositories become savepoints.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ReturnRepo returns the return request repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ReturnRepo() returns.ReturnRequestRepository {
	return NewGormReturnRequestRepository(r.tx)
}

// RefundRepo returns the refund repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RefundRepo() finance.RefundRepository {
	return NewGormRefundRepository(r.tx)
}

// InventoryRepo returns the inventory repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InventoryRepo() inventory.InventoryRepository {
	return NewGormInventoryRepository(r.tx)
}

// StoreCreditRepo returns the store credit repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StoreCreditRepo() storecredit.Repository {
	return NewGormStoreCreditRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ returnsapp.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ returnsapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
