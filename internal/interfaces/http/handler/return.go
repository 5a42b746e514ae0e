package handler

import (
	"context"
	"time"

	returnsapp "github.com/citadelbuy/returns/internal/application/returns"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReturnUseCases is the return lifecycle as served by returnsapp.ReturnService
type ReturnUseCases interface {
	Create(ctx context.Context, actor returnsapp.Actor, req returnsapp.CreateReturnRequest) (*returnsapp.ReturnResponse, error)
	GetByID(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.ReturnResponse, error)
	GetByRMA(ctx context.Context, actor returnsapp.Actor, rmaNumber string) (*returnsapp.ReturnResponse, error)
	List(ctx context.Context, actor returnsapp.Actor, filter returnsapp.ReturnListFilter) ([]returnsapp.ReturnListItemResponse, int64, error)
	GetAnalytics(ctx context.Context, actor returnsapp.Actor, filter returnsapp.AnalyticsFilter) (*returnsapp.AnalyticsResponse, error)
	Review(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.ReturnResponse, error)
	Approve(ctx context.Context, actor returnsapp.Actor, id uuid.UUID, req returnsapp.ApproveReturnRequest) (*returnsapp.ReturnResponse, error)
	GenerateLabel(ctx context.Context, actor returnsapp.Actor, id uuid.UUID, req returnsapp.GenerateLabelRequest) (*returnsapp.ReturnResponse, error)
	MarkReceived(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.ReturnResponse, error)
	Inspect(ctx context.Context, actor returnsapp.Actor, id uuid.UUID, req returnsapp.InspectReturnRequest) (*returnsapp.ReturnResponse, error)
	Cancel(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (*returnsapp.ReturnResponse, error)
	RequestPhotoUpload(ctx context.Context, actor returnsapp.Actor, id uuid.UUID, req returnsapp.PhotoUploadRequest) (*returnsapp.PhotoUploadResponse, error)
}

// RestockUseCases puts returned goods back into stock
type RestockUseCases interface {
	Restock(ctx context.Context, actor returnsapp.Actor, returnID uuid.UUID, req returnsapp.RestockRequest) (*returnsapp.RestockResponse, error)
}

// ReturnHandler serves /returns
type ReturnHandler struct {
	BaseHandler
	returns ReturnUseCases
	restock RestockUseCases
}

// NewReturnHandler creates a new ReturnHandler
func NewReturnHandler(returns ReturnUseCases, restock RestockUseCases) *ReturnHandler {
	return &ReturnHandler{returns: returns, restock: restock}
}

// listReturnsQuery is the query string of GET /returns
type listReturnsQuery struct {
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	UserID     string     `form:"user_id" binding:"omitempty,uuid"`
	OrderID    string     `form:"order_id" binding:"omitempty,uuid"`
	Status     string     `form:"status"`
	ReturnType string     `form:"return_type"`
	Reason     string     `form:"reason"`
	StartDate  *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate    *time.Time `form:"end_date" time_format:"2006-01-02"`
}

func (q listReturnsQuery) toFilter() returnsapp.ReturnListFilter {
	filter := returnsapp.ReturnListFilter{
		Page:      q.Page,
		PageSize:  q.PageSize,
		OrderBy:   q.OrderBy,
		OrderDir:  q.OrderDir,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	}
	// the uuid binding already validated both ids
	filter.UserID, _ = parseOptionalUUID(q.UserID)
	filter.OrderID, _ = parseOptionalUUID(q.OrderID)
	if q.Status != "" {
		status := returns.ReturnStatus(q.Status)
		filter.Status = &status
	}
	if q.ReturnType != "" {
		returnType := returns.ReturnType(q.ReturnType)
		filter.ReturnType = &returnType
	}
	if q.Reason != "" {
		reason := returns.ReturnReason(q.Reason)
		filter.Reason = &reason
	}
	return filter
}

// Create handles POST /returns
func (h *ReturnHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req returnsapp.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.returns.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /returns
func (h *ReturnHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q listReturnsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter := q.toFilter()
	items, total, err := h.returns.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := filter.Page, filter.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// Get handles GET /returns/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	h.withReturnID(c, func(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (any, error) {
		return h.returns.GetByID(ctx, actor, id)
	})
}

// GetByRMA handles GET /returns/rma/:rma
func (h *ReturnHandler) GetByRMA(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	resp, err := h.returns.GetByRMA(c.Request.Context(), actor, c.Param("rma"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Analytics handles GET /returns/analytics
func (h *ReturnHandler) Analytics(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter returnsapp.AnalyticsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	resp, err := h.returns.GetAnalytics(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Review handles POST /returns/:id/review
func (h *ReturnHandler) Review(c *gin.Context) {
	h.withReturnID(c, func(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (any, error) {
		return h.returns.Review(ctx, actor, id)
	})
}

// Approve handles POST /returns/:id/approve
func (h *ReturnHandler) Approve(c *gin.Context) {
	var req returnsapp.ApproveReturnRequest
	h.withBody(c, &req, func(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (any, error) {
		return h.returns.Approve(ctx, actor, id, req)
	})
}

// GenerateLabel handles POST /returns/:id/label. The body is optional.
func (h *ReturnHandler) GenerateLabel(c *gin.Context) {
	var req returnsapp.GenerateLabelRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	h.withReturnID(c, func(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (any, error) {
		return h.returns.GenerateLabel(ctx, actor, id, req)
	})
}

// Receive handles POST /returns/:id/receive
func (h *ReturnHandler) Receive(c *gin.Context) {
	h.withReturnID(c, func(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (any, error) {
		return h.returns.MarkReceived(ctx, actor, id)
	})
}

// Inspect handles POST /returns/:id/inspect
func (h *ReturnHandler) Inspect(c *gin.Context) {
	var req returnsapp.InspectReturnRequest
	h.withBody(c, &req, func(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (any, error) {
		return h.returns.Inspect(ctx, actor, id, req)
	})
}

// Cancel handles POST /returns/:id/cancel
func (h *ReturnHandler) Cancel(c *gin.Context) {
	h.withReturnID(c, func(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (any, error) {
		return h.returns.Cancel(ctx, actor, id)
	})
}

// Restock handles POST /returns/:id/restock
func (h *ReturnHandler) Restock(c *gin.Context) {
	var req returnsapp.RestockRequest
	h.withBody(c, &req, func(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (any, error) {
		return h.restock.Restock(ctx, actor, id, req)
	})
}

// RequestPhotoUpload handles POST /returns/:id/photos
func (h *ReturnHandler) RequestPhotoUpload(c *gin.Context) {
	var req returnsapp.PhotoUploadRequest
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok || !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.returns.RequestPhotoUpload(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

type returnCall func(ctx context.Context, actor returnsapp.Actor, id uuid.UUID) (any, error)

// withReturnID resolves the actor and the :id parameter, runs call and writes a 200
func (h *ReturnHandler) withReturnID(c *gin.Context, call returnCall) {
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

// withBody is withReturnID with a required JSON body bound into req first
func (h *ReturnHandler) withBody(c *gin.Context, req any, call returnCall) {
	if _, ok := h.actor(c); !ok {
		return
	}
	if _, ok := h.pathUUID(c, "id"); !ok {
		return
	}
	if !h.BindJSON(c, req) {
		return
	}
	h.withReturnID(c, call)
}
