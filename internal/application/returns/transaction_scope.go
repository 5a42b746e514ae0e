package returns

import (
	"context"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/inventory"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
)

// TransactionScope runs settlement work atomically. When fn returns an error
// every write made through the scoped repositories is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories that share one
// database transaction.
//
// Settlement touches three aggregates at once: the store credit account (row
// locked), the refund and the return request (optimistic version). They are
// committed together so a return is never COMPLETED without its money movement.
type TransactionalRepositories interface {
	ReturnRepo() returns.ReturnRequestRepository
	RefundRepo() finance.RefundRepository
	InventoryRepo() inventory.InventoryRepository
	StoreCreditRepo() storecredit.Repository
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Used by tests.
type NoOpTransactionScope struct {
	returnRepo      returns.ReturnRequestRepository
	refundRepo      finance.RefundRepository
	inventoryRepo   inventory.InventoryRepository
	storeCreditRepo storecredit.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	returnRepo returns.ReturnRequestRepository,
	refundRepo finance.RefundRepository,
	inventoryRepo inventory.InventoryRepository,
	storeCreditRepo storecredit.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		returnRepo:      returnRepo,
		refundRepo:      refundRepo,
		inventoryRepo:   inventoryRepo,
		storeCreditRepo: storeCreditRepo,
	}
}

// Execute runs fn without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ReturnRepo returns the return request repository
func (s *NoOpTransactionScope) ReturnRepo() returns.ReturnRequestRepository {
	return s.returnRepo
}

// RefundRepo returns the refund repository
func (s *NoOpTransactionScope) RefundRepo() finance.RefundRepository {
	return s.refundRepo
}

// InventoryRepo returns the inventory repository
func (s *NoOpTransactionScope) InventoryRepo() inventory.InventoryRepository {
	return s.inventoryRepo
}

// StoreCreditRepo returns the store credit repository
func (s *NoOpTransactionScope) StoreCreditRepo() storecredit.Repository {
	return s.storeCreditRepo
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
