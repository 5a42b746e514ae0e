package handler

import (
	"context"

	returnsapp "github.com/citadelbuy/returns/internal/application/returns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockReturnUseCases struct {
	mock.Mock
}

func (m *mockReturnUseCases) returnResp(args mock.Arguments) (*returnsapp.ReturnResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returnsapp.ReturnResponse), args.Error(1)
}

func (m *mockReturnUseCases) Create(ctx context.Context, actor returnsapp.Actor, req returnsapp.CreateReturnRequest) (*returnsapp.ReturnResponse, error) {
	return m.returnResp(m.Called(ctx, actor, req))
}

func (m *mockReturnUseCases) GetByID(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.ReturnResponse, error) {
	return m.returnResp(m.Called(ctx, actor, id))
}

func (m *mockReturnUseCases) GetByRMA(ctx context.Context, actor returnsapp.Actor, rmaNumber string) (*returnsapp.ReturnResponse, error) {
	return m.returnResp(m.Called(ctx, actor, rmaNumber))
}

func (m *mockReturnUseCases) List(ctx context.Context, actor returnsapp.Actor, filter returnsapp.ReturnListFilter) ([]returnsapp.ReturnListItemResponse, int64, error) {
	args := m.Called(ctx, actor, filter)
	items, _ := args.Get(0).([]returnsapp.ReturnListItemResponse)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *mockReturnUseCases) GetAnalytics(ctx context.Context, actor returnsapp.Actor, filter returnsapp.AnalyticsFilter) (*returnsapp.AnalyticsResponse, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returnsapp.AnalyticsResponse), args.Error(1)
}

func (m *mockReturnUseCases) Review(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.ReturnResponse, error) {
	return m.returnResp(m.Called(ctx, actor, id))
}

func (m *mockReturnUseCases) Approve(ctx context.Context, actor returnsapp.Actor, id uuid.UUID, req returnsapp.ApproveReturnRequest) (*returnsapp.ReturnResponse, error) {
	return m.returnResp(m.Called(ctx, actor, id, req))
}

func (m *mockReturnUseCases) GenerateLabel(ctx context.Context, actor returnsapp.Actor, id uuid.UUID, req returnsapp.GenerateLabelRequest) (*returnsapp.ReturnResponse, error) {
	return m.returnResp(m.Called(ctx, actor, id, req))
}

func (m *mockReturnUseCases) MarkReceived(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.ReturnResponse, error) {
	return m.returnResp(m.Called(ctx, actor, id))
}

func (m *mockReturnUseCases) Inspect(ctx context.Context, actor returnsapp.Actor, id uuid.UUID, req returnsapp.InspectReturnRequest) (*returnsapp.ReturnResponse, error) {
	return m.returnResp(m.Called(ctx, actor, id, req))
}

func (m *mockReturnUseCases) Cancel(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.ReturnResponse, error) {
	return m.returnResp(m.Called(ctx, actor, id))
}

func (m *mockReturnUseCases) RequestPhotoUpload(ctx context.Context, actor returnsapp.Actor, id uuid.UUID, req returnsapp.PhotoUploadRequest) (*returnsapp.PhotoUploadResponse, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returnsapp.PhotoUploadResponse), args.Error(1)
}

type mockRestockUseCases struct {
	mock.Mock
}

func (m *mockRestockUseCases) Restock(ctx context.Context, actor returnsapp.Actor, returnID uuid.UUID, req returnsapp.RestockRequest) (*returnsapp.RestockResponse, error) {
	args := m.Called(ctx, actor, returnID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returnsapp.RestockResponse), args.Error(1)
}

type mockRefundUseCases struct {
	mock.Mock
}

func (m *mockRefundUseCases) refundResp(args mock.Arguments) (*returnsapp.RefundResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returnsapp.RefundResponse), args.Error(1)
}

func (m *mockRefundUseCases) Create(ctx context.Context, actor returnsapp.Actor, returnID uuid.UUID, req returnsapp.CreateRefundRequest) (*returnsapp.RefundResponse, error) {
	return m.refundResp(m.Called(ctx, actor, returnID, req))
}

func (m *mockRefundUseCases) Process(ctx context.Context, actor returnsapp.Actor, refundID uuid.UUID) (*returnsapp.RefundResponse, error) {
	return m.refundResp(m.Called(ctx, actor, refundID))
}

func (m *mockRefundUseCases) GetByID(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.RefundResponse, error) {
	return m.refundResp(m.Called(ctx, actor, id))
}

func (m *mockRefundUseCases) GetByReturnID(ctx context.Context, actor returnsapp.Actor, returnID uuid.UUID) (*returnsapp.RefundResponse, error) {
	return m.refundResp(m.Called(ctx, actor, returnID))
}

func (m *mockRefundUseCases) Cancel(ctx context.Context, actor returnsapp.Actor, refundID uuid.UUID, req returnsapp.CancelRefundRequest) (*returnsapp.RefundResponse, error) {
	return m.refundResp(m.Called(ctx, actor, refundID, req))
}

func (m *mockRefundUseCases) FailStale(ctx context.Context, actor returnsapp.Actor, refundID uuid.UUID, req returnsapp.FailRefundRequest) (*returnsapp.RefundResponse, error) {
	return m.refundResp(m.Called(ctx, actor, refundID, req))
}

type mockStoreCreditUseCases struct {
	mock.Mock
}

func (m *mockStoreCreditUseCases) IssueForReturn(ctx context.Context, actor returnsapp.Actor, returnID uuid.UUID, req returnsapp.IssueStoreCreditRequest) (*returnsapp.IssueStoreCreditResponse, error) {
	args := m.Called(ctx, actor, returnID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returnsapp.IssueStoreCreditResponse), args.Error(1)
}

func (m *mockStoreCreditUseCases) GetBalance(ctx context.Context, actor returnsapp.Actor, userID uuid.UUID) (*returnsapp.StoreCreditBalanceResponse, error) {
	args := m.Called(ctx, actor, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returnsapp.StoreCreditBalanceResponse), args.Error(1)
}

func (m *mockStoreCreditUseCases) ListTransactions(ctx context.Context, actor returnsapp.Actor, userID uuid.UUID, page, pageSize int) ([]returnsapp.StoreCreditTransactionResponse, int64, error) {
	args := m.Called(ctx, actor, userID, page, pageSize)
	txs, _ := args.Get(0).([]returnsapp.StoreCreditTransactionResponse)
	return txs, args.Get(1).(int64), args.Error(2)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}
