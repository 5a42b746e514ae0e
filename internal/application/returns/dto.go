package returns

import (
	"time"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/inventory"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the caller's role as asserted by the upstream gateway
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Actor identifies who is calling a service operation
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor may see and act on every return
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ==================== Return Request DTOs ====================

// CreateReturnRequest represents a customer's request to open a return
type CreateReturnRequest struct {
	OrderID    uuid.UUID               `json:"order_id" binding:"required"`
	ReturnType returns.ReturnType      `json:"return_type" binding:"required,oneof=REFUND EXCHANGE STORE_CREDIT"`
	Reason     returns.ReturnReason    `json:"reason" binding:"required"`
	Comments   string                  `json:"comments" binding:"max=2000"`
	Items      []CreateReturnItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateReturnItemInput is one order line to return
type CreateReturnItemInput struct {
	OrderItemID uuid.UUID            `json:"order_item_id" binding:"required"`
	Quantity    int                  `json:"quantity" binding:"required,gt=0"`
	Reason      returns.ReturnReason `json:"reason"`
	Condition   string               `json:"condition" binding:"max=100"`
	Notes       string               `json:"notes" binding:"max=500"`
}

// ApproveReturnRequest is an admin's approval decision
type ApproveReturnRequest struct {
	Approved              *bool            `json:"approved" binding:"required"`
	RestockingFee         decimal.Decimal  `json:"restocking_fee" binding:"decimal_gte0"`
	IncludeShippingRefund bool             `json:"include_shipping_refund"`
	ShippingRefund        *decimal.Decimal `json:"shipping_refund" binding:"omitempty,decimal_gte0"`
	RejectedReason        string           `json:"rejected_reason" binding:"max=500"`
}

// GenerateLabelRequest overrides the configured carrier and service level
type GenerateLabelRequest struct {
	Carrier      string `json:"carrier" binding:"max=50"`
	ServiceLevel string `json:"service_level" binding:"max=50"`
}

// InspectReturnRequest is the warehouse inspection outcome
type InspectReturnRequest struct {
	Approved             *bool            `json:"approved" binding:"required"`
	Notes                string           `json:"notes" binding:"max=2000"`
	Photos               []string         `json:"photos" binding:"max=20"`
	AdjustedRefundAmount *decimal.Decimal `json:"adjusted_refund_amount" binding:"omitempty,decimal_gte0"`
}

// PhotoUploadRequest asks for a presigned URL to upload an inspection photo
type PhotoUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// ReturnListFilter represents filter options for the return list
type ReturnListFilter struct {
	Page       int                   `form:"page" binding:"omitempty,min=1"`
	PageSize   int                   `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string                `form:"order_by"`
	OrderDir   string                `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	UserID     *uuid.UUID            `form:"user_id"`
	OrderID    *uuid.UUID            `form:"order_id"`
	Status     *returns.ReturnStatus `form:"status"`
	ReturnType *returns.ReturnType   `form:"return_type"`
	Reason     *returns.ReturnReason `form:"reason"`
	StartDate  *time.Time            `form:"start_date" time_format:"2006-01-02"`
	EndDate    *time.Time            `form:"end_date" time_format:"2006-01-02"`
}

// AnalyticsFilter restricts analytics to a creation date range
type AnalyticsFilter struct {
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
}

// ReturnResponse represents a return request in API responses
type ReturnResponse struct {
	ID               uuid.UUID               `json:"id"`
	RMANumber        string                  `json:"rma_number"`
	OrderID          uuid.UUID               `json:"order_id"`
	OrderNumber      string                  `json:"order_number"`
	UserID           uuid.UUID               `json:"user_id"`
	CustomerName     string                  `json:"customer_name"`
	CustomerEmail    string                  `json:"customer_email"`
	ReturnType       string                  `json:"return_type"`
	Reason           string                  `json:"reason"`
	Status           string                  `json:"status"`
	RefundAmount     decimal.Decimal         `json:"refund_amount"`
	RestockingFee    decimal.Decimal         `json:"restocking_fee"`
	ShippingRefund   decimal.Decimal         `json:"shipping_refund"`
	Currency         string                  `json:"currency"`
	Comments         string                  `json:"comments,omitempty"`
	RejectedReason   string                  `json:"rejected_reason,omitempty"`
	InspectionNotes  string                  `json:"inspection_notes,omitempty"`
	InspectionPhotos []string                `json:"inspection_photos"`
	PhotoURLs        []string                `json:"photo_urls,omitempty"`
	TrackingNumber   string                  `json:"tracking_number,omitempty"`
	Label            *ReturnLabelResponse    `json:"label,omitempty"`
	Items            []ReturnItemResponse    `json:"items"`
	Timeline         []TimelineEntryResponse `json:"timeline"`
	RequestedAt      time.Time               `json:"requested_at"`
	ApprovedAt       *time.Time              `json:"approved_at,omitempty"`
	ApprovedBy       *uuid.UUID              `json:"approved_by,omitempty"`
	RejectedAt       *time.Time              `json:"rejected_at,omitempty"`
	ReceivedAt       *time.Time              `json:"received_at,omitempty"`
	InspectedAt      *time.Time              `json:"inspected_at,omitempty"`
	InspectedBy      *uuid.UUID              `json:"inspected_by,omitempty"`
	CompletedAt      *time.Time              `json:"completed_at,omitempty"`
	CancelledAt      *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Version          int                     `json:"version"`
}

// ReturnListItemResponse represents a return in list responses (less detail)
type ReturnListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	RMANumber    string          `json:"rma_number"`
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	UserID       uuid.UUID       `json:"user_id"`
	ReturnType   string          `json:"return_type"`
	Reason       string          `json:"reason"`
	Status       string          `json:"status"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	ItemCount    int             `json:"item_count"`
	RequestedAt  time.Time       `json:"requested_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ReturnItemResponse represents a returned line
type ReturnItemResponse struct {
	ID                   uuid.UUID       `json:"id"`
	OrderItemID          uuid.UUID       `json:"order_item_id"`
	ProductID            uuid.UUID       `json:"product_id"`
	ProductName          string          `json:"product_name"`
	SKU                  string          `json:"sku,omitempty"`
	Quantity             int             `json:"quantity"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	RefundAmount         decimal.Decimal `json:"refund_amount"`
	Reason               string          `json:"reason"`
	Condition            string          `json:"condition,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	Restocked            bool            `json:"restocked"`
	RestockedAt          *time.Time      `json:"restocked_at,omitempty"`
	RestockedWarehouseID *uuid.UUID      `json:"restocked_warehouse_id,omitempty"`
}

// TimelineEntryResponse is one audit record
type TimelineEntryResponse struct {
	Status      string     `json:"status"`
	Description string     `json:"description"`
	PerformedBy *uuid.UUID `json:"performed_by,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// ReturnLabelResponse is the inbound shipping label
type ReturnLabelResponse struct {
	Carrier        string    `json:"carrier"`
	ServiceLevel   string    `json:"service_level"`
	TrackingNumber string    `json:"tracking_number"`
	LabelURL       string    `json:"label_url"`
	LabelFormat    string    `json:"label_format,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PhotoUploadResponse carries a presigned upload URL
type PhotoUploadResponse struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	Method     string    `json:"method"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// AnalyticsResponse is the returns rollup
type AnalyticsResponse struct {
	TotalReturns        int64            `json:"total_returns"`
	ByStatus            map[string]int64 `json:"by_status"`
	ByReason            map[string]int64 `json:"by_reason"`
	ByType              map[string]int64 `json:"by_type"`
	TotalRefunded       decimal.Decimal  `json:"total_refunded"`
	TotalRequestedValue decimal.Decimal  `json:"total_requested_value"`
	TotalStoreCredit    decimal.Decimal  `json:"total_store_credit"`
}

// ==================== Settlement DTOs ====================

// CreateRefundRequest overrides the refund components derived from the return
type CreateRefundRequest struct {
	Subtotal       *decimal.Decimal     `json:"subtotal" binding:"omitempty,decimal_gte0"`
	ShippingRefund *decimal.Decimal     `json:"shipping_refund" binding:"omitempty,decimal_gte0"`
	TaxRefund      *decimal.Decimal     `json:"tax_refund" binding:"omitempty,decimal_gte0"`
	RestockingFee  *decimal.Decimal     `json:"restocking_fee" binding:"omitempty,decimal_gte0"`
	Method         finance.RefundMethod `json:"method" binding:"omitempty,oneof=ORIGINAL_PAYMENT STORE_CREDIT BANK_TRANSFER"`
	Notes          string               `json:"notes" binding:"max=500"`
}

// CancelRefundRequest voids a PENDING or FAILED refund
type CancelRefundRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// FailRefundRequest fails a refund stuck in PROCESSING
type FailRefundRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RefundResponse represents a refund in API responses
type RefundResponse struct {
	ID             uuid.UUID       `json:"id"`
	ReturnID       uuid.UUID       `json:"return_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	UserID         uuid.UUID       `json:"user_id"`
	RMANumber      string          `json:"rma_number"`
	Method         string          `json:"method"`
	Gateway        string          `json:"gateway,omitempty"`
	Currency       string          `json:"currency"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingRefund decimal.Decimal `json:"shipping_refund"`
	TaxRefund      decimal.Decimal `json:"tax_refund"`
	RestockingFee  decimal.Decimal `json:"restocking_fee"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         string          `json:"status"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
	ProcessedBy    *uuid.UUID      `json:"processed_by,omitempty"`
	FailedAt       *time.Time      `json:"failed_at,omitempty"`
	FailedReason   string          `json:"failed_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IssueStoreCreditRequest overrides the amount credited for a return
type IssueStoreCreditRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"omitempty,decimal_gte0"`
	ExpiresAt   *time.Time       `json:"expires_at"`
	Description string           `json:"description" binding:"max=255"`
}

// StoreCreditBalanceResponse is a customer's store credit account
type StoreCreditBalanceResponse struct {
	UserID         uuid.UUID       `json:"user_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	TotalEarned    decimal.Decimal `json:"total_earned"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	Currency       string          `json:"currency"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// StoreCreditTransactionResponse is one ledger entry
type StoreCreditTransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IssueStoreCreditResponse is returned after crediting a return
type IssueStoreCreditResponse struct {
	Return      ReturnResponse                 `json:"return"`
	Account     StoreCreditBalanceResponse     `json:"account"`
	Transaction StoreCreditTransactionResponse `json:"transaction"`
}

// RestockItemInput is one line to put back into stock. Quantity defaults to
// the returned quantity.
type RestockItemInput struct {
	ReturnItemID uuid.UUID `json:"return_item_id" binding:"required"`
	WarehouseID  uuid.UUID `json:"warehouse_id" binding:"required"`
	Quantity     int       `json:"quantity" binding:"omitempty,gt=0"`
}

// RestockRequest lists the lines to restock
type RestockRequest struct {
	Items []RestockItemInput `json:"items" binding:"required,min=1,dive"`
}

// StockUpdateResponse reports the stock level after a restock line
type StockUpdateResponse struct {
	ReturnItemID      uuid.UUID `json:"return_item_id"`
	ProductID         uuid.UUID `json:"product_id"`
	WarehouseID       uuid.UUID `json:"warehouse_id"`
	Quantity          int       `json:"quantity"`
	NewQuantity       int       `json:"new_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
}

// RestockResponse lists the stock changes made. Already restocked items are
// reported in Skipped.
type RestockResponse struct {
	ReturnID uuid.UUID             `json:"return_id"`
	Updates  []StockUpdateResponse `json:"updates"`
	Skipped  []uuid.UUID           `json:"skipped"`
}

// ==================== Converters ====================

// ToReturnResponse converts a domain ReturnRequest to its response DTO
func ToReturnResponse(r *returns.ReturnRequest) ReturnResponse {
	items := make([]ReturnItemResponse, len(r.Items))
	for i := range r.Items {
		items[i] = ToReturnItemResponse(&r.Items[i])
	}
	timeline := make([]TimelineEntryResponse, len(r.Timeline))
	for i, entry := range r.Timeline {
		timeline[i] = TimelineEntryResponse{
			Status:      string(entry.Status),
			Description: entry.Description,
			PerformedBy: entry.PerformedBy,
			OccurredAt:  entry.OccurredAt,
		}
	}
	photos := r.InspectionPhotos
	if photos == nil {
		photos = []string{}
	}

	resp := ReturnResponse{
		ID:               r.ID,
		RMANumber:        r.RMANumber,
		OrderID:          r.OrderID,
		OrderNumber:      r.Order.OrderNumber,
		UserID:           r.UserID,
		CustomerName:     r.Customer.Name,
		CustomerEmail:    r.Customer.Email,
		ReturnType:       string(r.ReturnType),
		Reason:           string(r.Reason),
		Status:           string(r.Status),
		RefundAmount:     returns.Round(r.RefundAmount),
		RestockingFee:    returns.Round(r.RestockingFee),
		ShippingRefund:   returns.Round(r.ShippingRefund),
		Currency:         r.Order.Currency,
		Comments:         r.Comments,
		RejectedReason:   r.RejectedReason,
		InspectionNotes:  r.InspectionNotes,
		InspectionPhotos: photos,
		TrackingNumber:   r.TrackingNumber,
		Items:            items,
		Timeline:         timeline,
		RequestedAt:      r.RequestedAt,
		ApprovedAt:       r.ApprovedAt,
		ApprovedBy:       r.ApprovedBy,
		RejectedAt:       r.RejectedAt,
		ReceivedAt:       r.ReceivedAt,
		InspectedAt:      r.InspectedAt,
		InspectedBy:      r.InspectedBy,
		CompletedAt:      r.CompletedAt,
		CancelledAt:      r.CancelledAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Version:          r.Version,
	}
	if r.Label != nil {
		resp.Label = &ReturnLabelResponse{
			Carrier:        r.Label.Carrier,
			ServiceLevel:   r.Label.ServiceLevel,
			TrackingNumber: r.Label.TrackingNumber,
			LabelURL:       r.Label.LabelURL,
			LabelFormat:    r.Label.LabelFormat,
			CreatedAt:      r.Label.CreatedAt,
		}
	}
	return resp
}

// ToReturnItemResponse converts a domain ReturnItem to its response DTO
func ToReturnItemResponse(item *returns.ReturnItem) ReturnItemResponse {
	return ReturnItemResponse{
		ID:                   item.ID,
		OrderItemID:          item.OrderItemID,
		ProductID:            item.ProductID,
		ProductName:          item.ProductName,
		SKU:                  item.SKU,
		Quantity:             item.Quantity,
		UnitPrice:            returns.Round(item.UnitPrice),
		RefundAmount:         returns.Round(item.RefundAmount),
		Reason:               string(item.Reason),
		Condition:            item.Condition,
		Notes:                item.Notes,
		Restocked:            item.Restocked,
		RestockedAt:          item.RestockedAt,
		RestockedWarehouseID: item.RestockedWarehouseID,
	}
}

// ToReturnListItemResponses converts domain returns to list responses
func ToReturnListItemResponses(list []returns.ReturnRequest) []ReturnListItemResponse {
	responses := make([]ReturnListItemResponse, len(list))
	for i := range list {
		r := &list[i]
		responses[i] = ReturnListItemResponse{
			ID:           r.ID,
			RMANumber:    r.RMANumber,
			OrderID:      r.OrderID,
			OrderNumber:  r.Order.OrderNumber,
			UserID:       r.UserID,
			ReturnType:   string(r.ReturnType),
			Reason:       string(r.Reason),
			Status:       string(r.Status),
			RefundAmount: returns.Round(r.RefundAmount),
			ItemCount:    len(r.Items),
			RequestedAt:  r.RequestedAt,
			UpdatedAt:    r.UpdatedAt,
		}
	}
	return responses
}

// ToAnalyticsResponse converts the analytics rollup to its response DTO
func ToAnalyticsResponse(a *returns.Analytics) AnalyticsResponse {
	resp := AnalyticsResponse{
		TotalReturns:        a.TotalReturns,
		ByStatus:            make(map[string]int64, len(a.ByStatus)),
		ByReason:            make(map[string]int64, len(a.ByReason)),
		ByType:              make(map[string]int64, len(a.ByType)),
		TotalRefunded:       returns.Round(a.TotalRefunded),
		TotalRequestedValue: returns.Round(a.TotalRequestedValue),
		TotalStoreCredit:    returns.Round(a.TotalStoreCredit),
	}
	for k, v := range a.ByStatus {
		resp.ByStatus[string(k)] = v
	}
	for k, v := range a.ByReason {
		resp.ByReason[string(k)] = v
	}
	for k, v := range a.ByType {
		resp.ByType[string(k)] = v
	}
	return resp
}

// ToRefundResponse converts a domain Refund to its response DTO
func ToRefundResponse(r *finance.Refund) RefundResponse {
	return RefundResponse{
		ID:             r.ID,
		ReturnID:       r.ReturnID,
		OrderID:        r.OrderID,
		UserID:         r.UserID,
		RMANumber:      r.RMANumber,
		Method:         string(r.Method),
		Gateway:        r.Gateway,
		Currency:       r.Currency,
		Subtotal:       returns.Round(r.Subtotal),
		ShippingRefund: returns.Round(r.ShippingRefund),
		TaxRefund:      returns.Round(r.TaxRefund),
		RestockingFee:  returns.Round(r.RestockingFee),
		TotalAmount:    returns.Round(r.TotalAmount),
		Status:         string(r.Status),
		TransactionID:  r.TransactionID,
		Notes:          r.Notes,
		ProcessedAt:    r.ProcessedAt,
		ProcessedBy:    r.ProcessedBy,
		FailedAt:       r.FailedAt,
		FailedReason:   r.FailedReason,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// ToStoreCreditBalanceResponse converts a store credit account to its response DTO
func ToStoreCreditBalanceResponse(a *storecredit.Account) StoreCreditBalanceResponse {
	updatedAt := a.UpdatedAt
	return StoreCreditBalanceResponse{
		UserID:         a.UserID,
		CurrentBalance: returns.Round(a.CurrentBalance),
		TotalEarned:    returns.Round(a.TotalEarned),
		TotalSpent:     returns.Round(a.TotalSpent),
		Currency:       a.Currency,
		UpdatedAt:      &updatedAt,
	}
}

// ToStoreCreditTransactionResponse converts a ledger entry to its response DTO
func ToStoreCreditTransactionResponse(t *storecredit.Transaction) StoreCreditTransactionResponse {
	return StoreCreditTransactionResponse{
		ID:            t.ID,
		Type:          string(t.Type),
		Amount:        returns.Round(t.Amount),
		BalanceBefore: returns.Round(t.BalanceBefore),
		BalanceAfter:  returns.Round(t.BalanceAfter),
		Description:   t.Description,
		ReferenceType: t.ReferenceType,
		ReferenceID:   t.ReferenceID,
		ExpiresAt:     t.ExpiresAt,
		CreatedAt:     t.CreatedAt,
	}
}

// ToStockUpdateResponse converts a stock update to its response DTO
func ToStockUpdateResponse(u inventory.StockUpdate) StockUpdateResponse {
	return StockUpdateResponse{
		ReturnItemID:      u.ReturnItemID,
		ProductID:         u.ProductID,
		WarehouseID:       u.WarehouseID,
		Quantity:          u.Quantity,
		NewQuantity:       u.NewQuantity,
		AvailableQuantity: u.AvailableQuantity,
	}
}
