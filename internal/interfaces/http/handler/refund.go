package handler

import (
	"context"

	returnsapp "github.com/citadelbuy/returns/internal/application/returns"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RefundUseCases is served by returnsapp.RefundService
type RefundUseCases interface {
	Create(ctx context.Context, actor returnsapp.Actor, returnID uuid.UUID, req returnsapp.CreateRefundRequest) (*returnsapp.RefundResponse, error)
	Process(ctx context.Context, actor returnsapp.Actor, refundID uuid.UUID) (*returnsapp.RefundResponse, error)
	GetByID(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.RefundResponse, error)
	GetByReturnID(ctx context.Context, actor returnsapp.Actor, returnID uuid.UUID) (*returnsapp.RefundResponse, error)
	Cancel(ctx context.Context, actor returnsapp.Actor, refundID uuid.UUID, req returnsapp.CancelRefundRequest) (*returnsapp.RefundResponse, error)
	FailStale(ctx context.Context, actor returnsapp.Actor, refundID uuid.UUID, req returnsapp.FailRefundRequest) (*returnsapp.RefundResponse, error)
}

// RefundHandler serves refunds, both nested under a return and by refund id
type RefundHandler struct {
	BaseHandler
	refunds RefundUseCases
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refunds RefundUseCases) *RefundHandler {
	return &RefundHandler{refunds: refunds}
}

// CreateForReturn handles POST /returns/:id/refund. An empty body derives
// every component from the return.
func (h *RefundHandler) CreateForReturn(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	returnID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req returnsapp.CreateRefundRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.refunds.Create(c.Request.Context(), actor, returnID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetForReturn handles GET /returns/:id/refund
func (h *RefundHandler) GetForReturn(c *gin.Context) {
	h.withID(c, h.refunds.GetByReturnID)
}

// Get handles GET /refunds/:id
func (h *RefundHandler) Get(c *gin.Context) {
	h.withID(c, h.refunds.GetByID)
}

// Process handles POST /refunds/:id/process
func (h *RefundHandler) Process(c *gin.Context) {
	h.withID(c, h.refunds.Process)
}

// Cancel handles POST /refunds/:id/cancel. The reason is optional.
func (h *RefundHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req returnsapp.CancelRefundRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.refunds.Cancel(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// FailStale handles POST /refunds/:id/fail
func (h *RefundHandler) FailStale(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req returnsapp.FailRefundRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.refunds.FailStale(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *RefundHandler) withID(c *gin.Context, call func(context.Context, returnsapp.Actor, uuid.UUID) (*returnsapp.RefundResponse, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := call(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
