package handler

import (
	"context"

	returnsapp "github.com/citadelbuy/returns/internal/application/returns"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StoreCreditUseCases is served by returnsapp.StoreCreditService
type StoreCreditUseCases interface {
	IssueForReturn(ctx context.Context, actor returnsapp.Actor, returnID uuid.UUID, req returnsapp.IssueStoreCreditRequest) (*returnsapp.IssueStoreCreditResponse, error)
	GetBalance(ctx context.Context, actor returnsapp.Actor, userID uuid.UUID) (*returnsapp.StoreCreditBalanceResponse, error)
	ListTransactions(ctx context.Context, actor returnsapp.Actor, userID uuid.UUID, page, pageSize int) ([]returnsapp.StoreCreditTransactionResponse, int64, error)
}

// StoreCreditHandler serves store credit accounts and issuance
type StoreCreditHandler struct {
	BaseHandler
	credits StoreCreditUseCases
}

// NewStoreCreditHandler creates a new StoreCreditHandler
func NewStoreCreditHandler(credits StoreCreditUseCases) *StoreCreditHandler {
	return &StoreCreditHandler{credits: credits}
}

type pageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// IssueForReturn handles POST /returns/:id/store-credit. The body is optional.
func (h *StoreCreditHandler) IssueForReturn(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	returnID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req returnsapp.IssueStoreCreditRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.credits.IssueForReturn(c.Request.Context(), actor, returnID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetBalance handles GET /store-credit/:userId
func (h *StoreCreditHandler) GetBalance(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	userID, ok := h.pathUUID(c, "userId")
	if !ok {
		return
	}
	resp, err := h.credits.GetBalance(c.Request.Context(), actor, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListTransactions handles GET /store-credit/:userId/transactions
func (h *StoreCreditHandler) ListTransactions(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	userID, ok := h.pathUUID(c, "userId")
	if !ok {
		return
	}
	var q pageQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 20
	}
	txs, total, err := h.credits.ListTransactions(c.Request.Context(), actor, userID, q.Page, q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txs, total, q.Page, q.PageSize)
}
