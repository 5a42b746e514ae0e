package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/citadelbuy/returns/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// completeReturnAttempts bounds re-reads of a return whose version moved
// between loading it and completing it after a refund was paid out
const completeReturnAttempts = 3

// RefundSettings configures refund processing
type RefundSettings struct {
	// GatewayTimeout bounds a single gateway call. A timeout fails the refund.
	GatewayTimeout       time.Duration
	// StaleProcessingAfter is how long a refund must sit in PROCESSING before
	// an admin may fail it by hand. Never shorter than GatewayTimeout.
	StaleProcessingAfter time.Duration
}

// DefaultRefundSettings returns the default refund settings
func DefaultRefundSettings() RefundSettings {
	return RefundSettings{
		GatewayTimeout:       30 * time.Second,
		StaleProcessingAfter: 15 * time.Minute,
	}
}

// RefundService creates and processes refunds for returns of type REFUND
type RefundService struct {
	eventDispatcher
	refundRepo  finance.RefundRepository
	returnRepo  returns.ReturnRequestRepository
	orderReader returns.OrderReader
	gateways    *finance.GatewayRegistry
	txScope     TransactionScope
	settings    RefundSettings
}

// NewRefundService creates a new RefundService
func NewRefundService(
	refundRepo finance.RefundRepository,
	returnRepo returns.ReturnRequestRepository,
	orderReader returns.OrderReader,
	gateways *finance.GatewayRegistry,
	txScope TransactionScope,
	settings RefundSettings,
	logger *zap.Logger,
) *RefundService {
	if settings.GatewayTimeout <= 0 {
		settings.GatewayTimeout = DefaultRefundSettings().GatewayTimeout
	}
	if settings.StaleProcessingAfter <= 0 {
		settings.StaleProcessingAfter = DefaultRefundSettings().StaleProcessingAfter
	}
	if settings.StaleProcessingAfter < settings.GatewayTimeout {
		settings.StaleProcessingAfter = settings.GatewayTimeout
	}
	if gateways == nil {
		gateways = finance.NewGatewayRegistry()
	}
	return &RefundService{
		eventDispatcher: newEventDispatcher(logger),
		refundRepo:      refundRepo,
		returnRepo:      returnRepo,
		orderReader:     orderReader,
		gateways:        gateways,
		txScope:         txScope,
		settings:        settings,
	}
}

// Create opens a PENDING refund for an inspected return
func (s *RefundService) Create(ctx context.Context, actor Actor, returnID uuid.UUID, req CreateRefundRequest) (*RefundResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	r, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, translateNotFound(err, "Return request")
	}
	if r.ReturnType != returns.ReturnTypeRefund {
		return nil, shared.NewBadRequestError(fmt.Sprintf("Return of type %s is not settled by refund", r.ReturnType))
	}
	if r.Status != returns.ReturnStatusApprovedRefund {
		return nil, shared.NewBadRequestError("Return must pass inspection before a refund is created")
	}

	if _, err := s.refundRepo.FindActiveByReturnID(ctx, r.ID); err == nil {
		return nil, shared.NewBadRequestError("Refund already exists for this return")
	} else if !isNotFound(err) {
		return nil, err
	}

	order, err := s.orderReader.FindOrder(ctx, r.OrderID)
	if err != nil {
		return nil, translateNotFound(err, "Order")
	}

	method := req.Method
	if method == "" {
		method = defaultRefundMethod(r.Order.PaymentMethod)
	}
	refund, err := finance.NewRefund(finance.RefundSource{
		ReturnID:         r.ID,
		OrderID:          r.OrderID,
		UserID:           r.UserID,
		RMANumber:        r.RMANumber,
		Gateway:          order.PaymentGateway,
		PaymentReference: order.PaymentIntentID,
		Currency:         r.Order.Currency,
	}, method, refundAmounts(r, req), actor.UserID)
	if err != nil {
		return nil, err
	}
	refund.Notes = req.Notes

	if err := s.refundRepo.Save(ctx, refund); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewBadRequestError("Refund already exists for this return")
		}
		return nil, err
	}

	s.publish(ctx, refund)
	response := ToRefundResponse(refund)
	return &response, nil
}

// Process pays out a PENDING refund. The refund is claimed (PENDING to
// PROCESSING) before any money moves, so concurrent callers cannot both pay.
func (s *RefundService) Process(ctx context.Context, actor Actor, refundID uuid.UUID) (*RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "process")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRefundID, refundID.String())

	resp, err := s.process(ctx, actor, refundID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRMANumber, resp.RMANumber,
		telemetry.SpanAttrRefundMethod, resp.Method,
		telemetry.SpanAttrAmount, resp.TotalAmount.String(),
	)
	return resp, nil
}

func (s *RefundService) process(ctx context.Context, actor Actor, refundID uuid.UUID) (*RefundResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	refund, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, translateNotFound(err, "Refund")
	}
	if !refund.IsPending() {
		return nil, errRefundNotPending()
	}

	claimed, err := s.refundRepo.ClaimForProcessing(ctx, refund.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, errRefundNotPending()
	}
	if err := refund.MarkProcessing(); err != nil {
		return nil, err
	}

	// Nothing to pay out, so neither the gateway nor the ledger is involved
	if refund.TotalAmount.IsZero() {
		return s.complete(ctx, actor, refund, "")
	}
	if refund.Method == finance.RefundMethodStoreCredit {
		return s.settleToStoreCredit(ctx, actor, refund)
	}
	return s.settleThroughGateway(ctx, actor, refund)
}

// settleThroughGateway calls the payment gateway and records the outcome.
// The refund outcome is persisted before the return is completed so a paid
// refund is never lost to a conflict on the return.
func (s *RefundService) settleThroughGateway(ctx context.Context, actor Actor, refund *finance.Refund) (*RefundResponse, error) {
	gatewayType := finance.PaymentGatewayType(refund.Gateway)
	if refund.Method == finance.RefundMethodBankTransfer {
		gatewayType = finance.PaymentGatewayTypeManual
	}

	gateway, err := s.gateways.Get(gatewayType)
	if err != nil {
		return nil, s.fail(ctx, actor, refund, err.Error())
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.settings.GatewayTimeout)
	defer cancel()
	resp, err := gateway.ProcessRefund(gatewayCtx, &finance.GatewayRefundRequest{
		RefundID:         refund.ID,
		PaymentReference: refund.PaymentReference,
		Amount:           refund.TotalAmount,
		Currency:         refund.Currency,
		Memo:             fmt.Sprintf("Refund for return %s", refund.RMANumber),
		Metadata: map[string]string{
			"refund_id":  refund.ID.String(),
			"return_id":  refund.ReturnID.String(),
			"order_id":   refund.OrderID.String(),
			"rma_number": refund.RMANumber,
		},
	})
	switch {
	case err != nil:
		return nil, s.fail(ctx, actor, refund, err.Error())
	case resp == nil:
		return nil, s.fail(ctx, actor, refund, finance.ErrGatewayInvalidResponse.Error())
	case resp.Status.IsFailure():
		reason := resp.Reason
		if reason == "" {
			reason = fmt.Sprintf("gateway returned status %s", resp.Status)
		}
		return nil, s.fail(ctx, actor, refund, reason)
	}
	return s.complete(ctx, actor, refund, resp.RefundID)
}

// complete records a paid out refund and then completes its return
func (s *RefundService) complete(ctx context.Context, actor Actor, refund *finance.Refund, transactionID string) (*RefundResponse, error) {
	if err := refund.Complete(actor.UserID, transactionID); err != nil {
		return nil, err
	}
	if err := s.refundRepo.Update(ctx, refund); err != nil {
		s.logger.Error("refund paid out but outcome could not be saved",
			zap.String("refund_id", refund.ID.String()),
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
		return nil, err
	}
	s.publish(ctx, refund)

	settlement := returns.Settlement{
		Kind:      returns.SettlementRefund,
		Amount:    refund.TotalAmount,
		Reference: transactionID,
	}
	if err := s.completeReturn(ctx, actor, refund.ReturnID, settlement); err != nil {
		s.logger.Error("refund completed but return could not be completed",
			zap.String("refund_id", refund.ID.String()),
			zap.String("return_id", refund.ReturnID.String()),
			zap.Error(err),
		)
	}

	response := ToRefundResponse(refund)
	return &response, nil
}

// settleToStoreCredit credits the customer's ledger instead of calling a
// gateway. Ledger entry, refund outcome and return completion commit together.
func (s *RefundService) settleToStoreCredit(ctx context.Context, actor Actor, refund *finance.Refund) (*RefundResponse, error) {
	var (
		account *storecredit.Account
		r       *returns.ReturnRequest
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		r, err = repos.ReturnRepo().FindByID(ctx, refund.ReturnID)
		if err != nil {
			return translateNotFound(err, "Return request")
		}

		var entry *storecredit.Transaction
		account, entry, err = repos.StoreCreditRepo().Apply(ctx, refund.UserID, refund.Currency,
			func(a *storecredit.Account) (*storecredit.Transaction, error) {
				return a.Apply(storecredit.Entry{
					Type:          storecredit.TransactionTypeRefund,
					Amount:        refund.TotalAmount,
					Description:   fmt.Sprintf("Refund for return %s", refund.RMANumber),
					ReferenceType: storecredit.ReferenceTypeReturn,
					ReferenceID:   &refund.ReturnID,
					CreatedBy:     &actor.UserID,
				})
			})
		if err != nil {
			return err
		}

		if err := refund.Complete(actor.UserID, entry.ID.String()); err != nil {
			return err
		}
		if err := repos.RefundRepo().Update(ctx, refund); err != nil {
			return err
		}

		if err := r.Complete(&actor.UserID, returns.Settlement{
			Kind:      returns.SettlementStoreCredit,
			Amount:    refund.TotalAmount,
			Reference: entry.ID.String(),
		}); err != nil {
			return err
		}
		return repos.ReturnRepo().SaveWithLock(ctx, r)
	})
	if err != nil {
		// Roll the in-memory refund back to PROCESSING before recording the failure
		refund.Status = finance.RefundStatusProcessing
		refund.TransactionID = ""
		refund.ProcessedAt = nil
		refund.ClearDomainEvents()
		return nil, s.fail(ctx, actor, refund, err.Error())
	}

	s.publish(ctx, refund, account, r)
	response := ToRefundResponse(refund)
	return &response, nil
}

// fail persists the FAILED outcome and returns the caller-facing error
func (s *RefundService) fail(ctx context.Context, actor Actor, refund *finance.Refund, reason string) error {
	s.logger.Warn("refund failed",
		zap.String("refund_id", refund.ID.String()),
		zap.String("rma_number", refund.RMANumber),
		zap.String("gateway", refund.Gateway),
		zap.String("reason", reason),
	)
	if err := refund.Fail(actor.UserID, reason); err != nil {
		return err
	}
	if err := s.refundRepo.Update(ctx, refund); err != nil {
		s.logger.Error("failed to record refund failure",
			zap.String("refund_id", refund.ID.String()),
			zap.Error(err),
		)
	} else {
		s.publish(ctx, refund)
	}
	return shared.NewBadRequestError("Refund failed: " + reason)
}

// completeReturn moves the return to COMPLETED, re-reading it when another
// writer bumped its version in the meantime
func (s *RefundService) completeReturn(ctx context.Context, actor Actor, returnID uuid.UUID, settlement returns.Settlement) error {
	var lastErr error
	for attempt := 0; attempt < completeReturnAttempts; attempt++ {
		r, err := s.returnRepo.FindByID(ctx, returnID)
		if err != nil {
			return translateNotFound(err, "Return request")
		}
		if r.Status == returns.ReturnStatusCompleted {
			return nil
		}
		if err := r.Complete(&actor.UserID, settlement); err != nil {
			return err
		}
		lastErr = s.returnRepo.SaveWithLock(ctx, r)
		if lastErr == nil {
			s.publish(ctx, r)
			return nil
		}
		if !errors.Is(lastErr, shared.ErrConcurrencyConflict) {
			return lastErr
		}
	}
	return lastErr
}

// Cancel voids a PENDING or FAILED refund. The return stays APPROVED_REFUND
// and a new refund can be created for it.
func (s *RefundService) Cancel(ctx context.Context, actor Actor, refundID uuid.UUID, req CancelRefundRequest) (*RefundResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	refund, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, translateNotFound(err, "Refund")
	}

	from := refund.Status
	if err := refund.Cancel(actor.UserID, req.Reason); err != nil {
		return nil, err
	}
	if err := s.refundRepo.Transition(ctx, refund, from); err != nil {
		return nil, err
	}

	s.logger.Info("refund cancelled",
		zap.String("refund_id", refund.ID.String()),
		zap.String("rma_number", refund.RMANumber),
		zap.String("previous_status", string(from)),
	)
	s.publish(ctx, refund)
	response := ToRefundResponse(refund)
	return &response, nil
}

// FailStale marks a refund left in PROCESSING by an interrupted worker as
// FAILED. The refund must have been idle for StaleProcessingAfter. The caller
// is expected to have confirmed with the gateway that no money moved.
func (s *RefundService) FailStale(ctx context.Context, actor Actor, refundID uuid.UUID, req FailRefundRequest) (*RefundResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	refund, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, translateNotFound(err, "Refund")
	}
	if refund.Status != finance.RefundStatusProcessing {
		return nil, shared.NewBadRequestError("Refund is not in processing status")
	}
	if !refund.IsStale(time.Now(), s.settings.StaleProcessingAfter) {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Refund has been processing for less than %s", s.settings.StaleProcessingAfter))
	}

	if err := refund.Fail(actor.UserID, req.Reason); err != nil {
		return nil, err
	}
	if err := s.refundRepo.Transition(ctx, refund, finance.RefundStatusProcessing); err != nil {
		return nil, err
	}

	s.logger.Warn("stale refund failed by admin",
		zap.String("refund_id", refund.ID.String()),
		zap.String("rma_number", refund.RMANumber),
		zap.String("reason", refund.FailedReason),
	)
	s.publish(ctx, refund)
	response := ToRefundResponse(refund)
	return &response, nil
}

// GetByID returns a refund. Customers only see their own refunds.
func (s *RefundService) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*RefundResponse, error) {
	refund, err := s.refundRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, "Refund")
	}
	if !actor.IsAdmin() && refund.UserID != actor.UserID {
		return nil, shared.NewNotFoundError("Refund")
	}
	response := ToRefundResponse(refund)
	return &response, nil
}

// GetByReturnID returns the active refund of a return
func (s *RefundService) GetByReturnID(ctx context.Context, actor Actor, returnID uuid.UUID) (*RefundResponse, error) {
	refund, err := s.refundRepo.FindActiveByReturnID(ctx, returnID)
	if err != nil {
		return nil, translateNotFound(err, "Refund")
	}
	if !actor.IsAdmin() && refund.UserID != actor.UserID {
		return nil, shared.NewNotFoundError("Refund")
	}
	response := ToRefundResponse(refund)
	return &response, nil
}

func errRefundNotPending() error {
	return shared.NewBadRequestError("Refund is not in pending status")
}

// defaultRefundMethod pays back the way the order was paid
func defaultRefundMethod(paid returns.PaymentMethod) finance.RefundMethod {
	switch paid {
	case returns.PaymentMethodStoreCredit:
		return finance.RefundMethodStoreCredit
	case returns.PaymentMethodBankTransfer:
		return finance.RefundMethodBankTransfer
	default:
		return finance.RefundMethodOriginalPayment
	}
}

// refundAmounts derives the refund components from the return. The return's
// RefundAmount already nets out the restocking fee and includes shipping, so
// the default subtotal is backed out of it and the default total equals
// RefundAmount. Explicit values in req replace single components.
func refundAmounts(r *returns.ReturnRequest, req CreateRefundRequest) finance.RefundAmounts {
	shipping := decimal.Min(r.ShippingRefund, r.RefundAmount)
	amounts := finance.RefundAmounts{
		Subtotal:       r.RefundAmount.Sub(shipping).Add(r.RestockingFee),
		ShippingRefund: shipping,
		TaxRefund:      decimal.Zero,
		RestockingFee:  r.RestockingFee,
	}
	if req.Subtotal != nil {
		amounts.Subtotal = *req.Subtotal
	}
	if req.ShippingRefund != nil {
		amounts.ShippingRefund = *req.ShippingRefund
	}
	if req.TaxRefund != nil {
		amounts.TaxRefund = *req.TaxRefund
	}
	if req.RestockingFee != nil {
		amounts.RestockingFee = *req.RestockingFee
	}
	return amounts
}
