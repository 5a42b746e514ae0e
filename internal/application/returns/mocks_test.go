package returns

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/inventory"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockReturnRequestRepository is a mock implementation of returns.ReturnRequestRepository
type MockReturnRequestRepository struct {
	mock.Mock
}

func (m *MockReturnRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRequestRepository) FindByRMANumber(ctx context.Context, rmaNumber string) (*returns.ReturnRequest, error) {
	args := m.Called(ctx, rmaNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.ReturnRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReturnRequestRepository) ExistsByRMANumber(ctx context.Context, rmaNumber string) (bool, error) {
	args := m.Called(ctx, rmaNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockReturnRequestRepository) Save(ctx context.Context, r *returns.ReturnRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReturnRequestRepository) SaveWithLock(ctx context.Context, r *returns.ReturnRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReturnRequestRepository) Analytics(ctx context.Context, query returns.AnalyticsQuery) (*returns.Analytics, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.Analytics), args.Error(1)
}

// MockRefundRepository is a mock implementation of finance.RefundRepository
type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Refund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Refund), args.Error(1)
}

func (m *MockRefundRepository) FindActiveByReturnID(ctx context.Context, returnID uuid.UUID) (*finance.Refund, error) {
	args := m.Called(ctx, returnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Refund), args.Error(1)
}

func (m *MockRefundRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.Refund, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Refund), args.Error(1)
}

func (m *MockRefundRepository) Save(ctx context.Context, refund *finance.Refund) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}

func (m *MockRefundRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefundRepository) Update(ctx context.Context, refund *finance.Refund) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}

func (m *MockRefundRepository) Transition(ctx context.Context, refund *finance.Refund, from finance.RefundStatus) error {
	args := m.Called(ctx, refund, from)
	return args.Error(0)
}

// MockStoreCreditRepository is a mock implementation of storecredit.Repository.
// Apply runs the ledger function against the account passed to Return.
type MockStoreCreditRepository struct {
	mock.Mock
}

func (m *MockStoreCreditRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*storecredit.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storecredit.Account), args.Error(1)
}

func (m *MockStoreCreditRepository) ListTransactions(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]storecredit.Transaction, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]storecredit.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockStoreCreditRepository) Apply(ctx context.Context, userID uuid.UUID, currency string, fn storecredit.LedgerFunc) (*storecredit.Account, *storecredit.Transaction, error) {
	args := m.Called(ctx, userID, currency)
	if err := args.Error(1); err != nil {
		return nil, nil, err
	}
	account := args.Get(0).(*storecredit.Account)
	tx, err := fn(account)
	if err != nil {
		return nil, nil, err
	}
	return account, tx, nil
}

// MockWarehouseRepository is a mock implementation of inventory.WarehouseRepository
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Warehouse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindActivePrimary(ctx context.Context) (*inventory.Warehouse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) Save(ctx context.Context, warehouse *inventory.Warehouse) error {
	args := m.Called(ctx, warehouse)
	return args.Error(0)
}

// MockInventoryRepository is a mock implementation of inventory.InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, productID, warehouseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) Upsert(ctx context.Context, productID, warehouseID uuid.UUID, delta int) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, productID, warehouseID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

// MockOrderReader is a mock implementation of returns.OrderReader
type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) FindOrder(ctx context.Context, orderID uuid.UUID) (*returns.OrderSnapshot, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.OrderSnapshot), args.Error(1)
}

// MockShippingProvider is a mock implementation of returns.ShippingProvider
type MockShippingProvider struct {
	mock.Mock
}

func (m *MockShippingProvider) CreateShipment(ctx context.Context, req returns.ShipmentRequest) (*returns.Shipment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.Shipment), args.Error(1)
}

// MockPhotoStorage is a mock implementation of PhotoStorage
type MockPhotoStorage struct {
	mock.Mock
}

func (m *MockPhotoStorage) GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockPhotoStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockPaymentGateway is a mock implementation of finance.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
	gatewayType finance.PaymentGatewayType
}

func (m *MockPaymentGateway) GatewayType() finance.PaymentGatewayType {
	return m.gatewayType
}

func (m *MockPaymentGateway) ProcessRefund(ctx context.Context, req *finance.GatewayRefundRequest) (*finance.GatewayRefundResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.GatewayRefundResponse), args.Error(1)
}

// MockNotifier is a mock implementation of returns.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendReturnRequestConfirmation(ctx context.Context, n returns.Notice) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotifier) SendReturnApproved(ctx context.Context, n returns.Notice) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotifier) SendReturnRejected(ctx context.Context, n returns.Notice) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotifier) SendReturnLabelReady(ctx context.Context, n returns.Notice) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotifier) SendRefundProcessed(ctx context.Context, n returns.Notice) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotifier) SendStoreCreditIssued(ctx context.Context, n returns.Notice) error {
	return m.Called(ctx, n).Error(0)
}

// MockSettlementMetrics is a mock implementation of SettlementMetrics
type MockSettlementMetrics struct {
	mock.Mock
}

func (m *MockSettlementMetrics) RecordReturnCreated(ctx context.Context, returnType, reason string) {
	m.Called(ctx, returnType, reason)
}

func (m *MockSettlementMetrics) RecordRefundProcessed(ctx context.Context, method, outcome string, amount decimal.Decimal, currency string) {
	m.Called(ctx, method, outcome, amount.String(), currency)
}

func (m *MockSettlementMetrics) RecordStoreCreditIssued(ctx context.Context, amount decimal.Decimal, currency string) {
	m.Called(ctx, amount.String(), currency)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

var (
	adminActor = Actor{UserID: uuid.MustParse("00000000-0000-0000-0000-0000000000ad"), Role: RoleAdmin}
	testRMA    = "RMA12345678ABCD"
)

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}

func customerActor(userID uuid.UUID) Actor {
	return Actor{UserID: userID, Role: RoleCustomer}
}

func newTestOrder(userID uuid.UUID) *returns.OrderSnapshot {
	return &returns.OrderSnapshot{
		ID:            uuid.New(),
		OrderNumber:   "ORD-1001",
		UserID:        userID,
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		ShippingAddress: returns.Address{
			Name: "Jane Doe", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		Items: []returns.OrderLine{
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "T-Shirt", SKU: "TS-1", Quantity: 1, UnitPrice: decimal.RequireFromString("29.99")},
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "Jeans", SKU: "JN-1", Quantity: 3, UnitPrice: decimal.RequireFromString("49.99")},
		},
		ShippingCost:    decimal.RequireFromString("7.50"),
		Currency:        "USD",
		PaymentMethod:   returns.PaymentMethodCard,
		PaymentGateway:  "STRIPE",
		PaymentIntentID: "pi_123",
	}
}

// newTestReturn creates a REQUESTED return for 1 x 29.99 and 2 x 49.99
func newTestReturn(t *testing.T, returnType returns.ReturnType) (*returns.ReturnRequest, *returns.OrderSnapshot) {
	t.Helper()
	userID := uuid.New()
	order := newTestOrder(userID)
	r, err := returns.NewReturnRequest(testRMA, order, userID, returnType, returns.ReturnReasonDefective, "", []returns.RequestedItem{
		{OrderItemID: order.Items[0].ID, Quantity: 1},
		{OrderItemID: order.Items[1].ID, Quantity: 2},
	})
	require.NoError(t, err)
	r.ClearDomainEvents()
	return r, order
}

// newInspectedReturn creates a return that passed inspection (APPROVED_REFUND)
func newInspectedReturn(t *testing.T, returnType returns.ReturnType) (*returns.ReturnRequest, *returns.OrderSnapshot) {
	t.Helper()
	r, order := newTestReturn(t, returnType)
	require.NoError(t, r.Approve(adminActor.UserID, returns.ApprovalTerms{RestockingFee: decimal.Zero}))
	require.NoError(t, r.MarkReceived(adminActor.UserID))
	require.NoError(t, r.Inspect(adminActor.UserID, returns.InspectionResult{Approved: true}))
	r.ClearDomainEvents()
	return r, order
}

func newTestWarehouse(t *testing.T) *inventory.Warehouse {
	t.Helper()
	w, err := inventory.NewWarehouse("MAIN", "Main Warehouse", returns.Address{
		Line1: "100 Dock Rd", City: "Memphis", State: "TN", PostalCode: "38118", Country: "US",
	})
	require.NoError(t, err)
	w.IsPrimary = true
	return w
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, shared.ErrorCode(err), "unexpected error: %v", err)
}

func boolPtr(b bool) *bool {
	return &b
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
