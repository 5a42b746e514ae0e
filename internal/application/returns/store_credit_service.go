package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/citadelbuy/returns/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StoreCreditService issues store credit for returns and exposes balances
type StoreCreditService struct {
	eventDispatcher
	returnRepo      returns.ReturnRequestRepository
	creditRepo      storecredit.Repository
	txScope         TransactionScope
	defaultCurrency string
}

// NewStoreCreditService creates a new StoreCreditService
func NewStoreCreditService(
	returnRepo returns.ReturnRequestRepository,
	creditRepo storecredit.Repository,
	txScope TransactionScope,
	defaultCurrency string,
	logger *zap.Logger,
) *StoreCreditService {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &StoreCreditService{
		eventDispatcher: newEventDispatcher(logger),
		returnRepo:      returnRepo,
		creditRepo:      creditRepo,
		txScope:         txScope,
		defaultCurrency: strings.ToUpper(defaultCurrency),
	}
}

// IssueForReturn credits an inspected STORE_CREDIT return to the customer's
// account and completes it. The account row lock, the ledger entry and the
// return completion share one database transaction.
func (s *StoreCreditService) IssueForReturn(ctx context.Context, actor Actor, returnID uuid.UUID, req IssueStoreCreditRequest) (*IssueStoreCreditResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "store_credit", "issue_for_return")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrReturnID, returnID.String())

	resp, err := s.issueForReturn(ctx, actor, returnID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRMANumber, resp.Return.RMANumber,
		telemetry.SpanAttrAmount, resp.Transaction.Amount.String(),
	)
	return resp, nil
}

func (s *StoreCreditService) issueForReturn(ctx context.Context, actor Actor, returnID uuid.UUID, req IssueStoreCreditRequest) (*IssueStoreCreditResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		return nil, shared.NewBadRequestError("Store credit expiry must be in the future")
	}

	var (
		r       *returns.ReturnRequest
		account *storecredit.Account
		entry   *storecredit.Transaction
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		r, err = repos.ReturnRepo().FindByID(ctx, returnID)
		if err != nil {
			return translateNotFound(err, "Return request")
		}
		if r.ReturnType != returns.ReturnTypeStoreCredit {
			return shared.NewBadRequestError(fmt.Sprintf("Return of type %s is not settled by store credit", r.ReturnType))
		}
		if r.Status != returns.ReturnStatusApprovedRefund {
			return shared.NewBadRequestError("Return must pass inspection before store credit is issued")
		}

		amount := r.RefundAmount
		if req.Amount != nil {
			amount = *req.Amount
		}
		if !amount.IsPositive() {
			return shared.NewBadRequestError("Store credit amount must be positive")
		}
		description := req.Description
		if description == "" {
			description = fmt.Sprintf("Store credit for return %s", r.RMANumber)
		}

		currency := r.Order.Currency
		if currency == "" {
			currency = s.defaultCurrency
		}
		account, entry, err = repos.StoreCreditRepo().Apply(ctx, r.UserID, currency,
			func(a *storecredit.Account) (*storecredit.Transaction, error) {
				return a.Apply(storecredit.Entry{
					Type:          storecredit.TransactionTypeRefund,
					Amount:        amount,
					Description:   description,
					ReferenceType: storecredit.ReferenceTypeReturn,
					ReferenceID:   &r.ID,
					ExpiresAt:     req.ExpiresAt,
					CreatedBy:     &actor.UserID,
				})
			})
		if err != nil {
			return err
		}

		if err := r.Complete(&actor.UserID, returns.Settlement{
			Kind:      returns.SettlementStoreCredit,
			Amount:    amount,
			Reference: entry.ID.String(),
			ExpiresAt: req.ExpiresAt,
		}); err != nil {
			return err
		}
		return repos.ReturnRepo().SaveWithLock(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, account, r)
	return &IssueStoreCreditResponse{
		Return:      ToReturnResponse(r),
		Account:     ToStoreCreditBalanceResponse(account),
		Transaction: ToStoreCreditTransactionResponse(entry),
	}, nil
}

// GetBalance returns a user's balance. Users without an account have a zero
// balance. Customers can only read their own balance.
func (s *StoreCreditService) GetBalance(ctx context.Context, actor Actor, userID uuid.UUID) (*StoreCreditBalanceResponse, error) {
	if err := s.authorize(actor, userID); err != nil {
		return nil, err
	}
	account, err := s.creditRepo.FindByUserID(ctx, userID)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		return &StoreCreditBalanceResponse{
			UserID:         userID,
			CurrentBalance: decimal.Zero,
			TotalEarned:    decimal.Zero,
			TotalSpent:     decimal.Zero,
			Currency:       s.defaultCurrency,
		}, nil
	}
	response := ToStoreCreditBalanceResponse(account)
	return &response, nil
}

// ListTransactions returns a page of a user's ledger, newest first
func (s *StoreCreditService) ListTransactions(ctx context.Context, actor Actor, userID uuid.UUID, page, pageSize int) ([]StoreCreditTransactionResponse, int64, error) {
	if err := s.authorize(actor, userID); err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePage(page, pageSize)
	filter := shared.Filter{Page: page, PageSize: pageSize, Filters: map[string]any{}}

	txs, total, err := s.creditRepo.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]StoreCreditTransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToStoreCreditTransactionResponse(&txs[i])
	}
	return responses, total, nil
}

func (s *StoreCreditService) authorize(actor Actor, userID uuid.UUID) error {
	if !actor.IsAdmin() && actor.UserID != userID {
		return shared.NewForbiddenError("You can only view your own store credit")
	}
	return nil
}
