package models

import (
	"encoding/json"
	"time"

	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func modelLogger() *zap.Logger {
	return zap.L().Named("persistence.models")
}

// ReturnRequestModel is the persistence model for the ReturnRequest aggregate root.
// The order summary and the inbound label are flattened onto the row.
type ReturnRequestModel struct {
	AggregateModel
	RMANumber         string               `gorm:"type:varchar(20);not null;uniqueIndex:idx_return_requests_rma"`
	OrderID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	UserID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	CustomerName      string               `gorm:"type:varchar(200)"`
	CustomerEmail     string               `gorm:"type:varchar(200)"`
	OrderNumber       string               `gorm:"type:varchar(50)"`
	ShippingAddress   string               `gorm:"type:jsonb;default:'{}'"`
	ShippingCost      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Currency          string               `gorm:"type:varchar(3);not null;default:'USD'"`
	PaymentMethod     string               `gorm:"type:varchar(20)"`
	ReturnType        returns.ReturnType   `gorm:"type:varchar(20);not null;index"`
	Reason            returns.ReturnReason `gorm:"type:varchar(30);not null;index"`
	Status            returns.ReturnStatus `gorm:"type:varchar(20);not null;default:'REQUESTED';index"`
	RefundAmount      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	RestockingFee     decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingRefund    decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Comments          string               `gorm:"type:text"`
	RejectedReason    string               `gorm:"type:text"`
	InspectionNotes   string               `gorm:"type:text"`
	InspectionPhotos  string               `gorm:"type:jsonb;default:'[]'"`
	TrackingNumber    string               `gorm:"type:varchar(100);index"`
	LabelCarrier      string               `gorm:"type:varchar(50)"`
	LabelServiceLevel string               `gorm:"type:varchar(50)"`
	LabelURL          string               `gorm:"type:varchar(500)"`
	LabelFormat       string               `gorm:"type:varchar(20)"`
	LabelCreatedAt    *time.Time
	RequestedAt       time.Time `gorm:"not null;index"`
	ApprovedAt        *time.Time
	ApprovedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectedAt        *time.Time
	ReceivedAt        *time.Time
	InspectedAt       *time.Time
	InspectedBy       *uuid.UUID `gorm:"type:uuid"`
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CancelledBy       *uuid.UUID            `gorm:"type:uuid"`
	Items             []ReturnItemModel     `gorm:"foreignKey:ReturnID;references:ID"`
	Timeline          []ReturnTimelineModel `gorm:"foreignKey:ReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (ReturnRequestModel) TableName() string {
	return "return_requests"
}

// ToDomain converts the persistence model to a domain ReturnRequest.
func (m *ReturnRequestModel) ToDomain() *returns.ReturnRequest {
	r := &returns.ReturnRequest{
		BaseAggregateRoot: m.ToAggregateRoot(),
		RMANumber:         m.RMANumber,
		OrderID:           m.OrderID,
		UserID:            m.UserID,
		Customer:          returns.CustomerSummary{Name: m.CustomerName, Email: m.CustomerEmail},
		Order: returns.OrderSummary{
			OrderNumber:   m.OrderNumber,
			ShippingCost:  m.ShippingCost,
			Currency:      m.Currency,
			PaymentMethod: returns.PaymentMethod(m.PaymentMethod),
		},
		ReturnType:       m.ReturnType,
		Reason:           m.Reason,
		Status:           m.Status,
		RefundAmount:     m.RefundAmount,
		RestockingFee:    m.RestockingFee,
		ShippingRefund:   m.ShippingRefund,
		Comments:         m.Comments,
		RejectedReason:   m.RejectedReason,
		InspectionNotes:  m.InspectionNotes,
		InspectionPhotos: []string{},
		TrackingNumber:   m.TrackingNumber,
		RequestedAt:      m.RequestedAt,
		ApprovedAt:       m.ApprovedAt,
		ApprovedBy:       m.ApprovedBy,
		RejectedAt:       m.RejectedAt,
		ReceivedAt:       m.ReceivedAt,
		InspectedAt:      m.InspectedAt,
		InspectedBy:      m.InspectedBy,
		CompletedAt:      m.CompletedAt,
		CancelledAt:      m.CancelledAt,
		CancelledBy:      m.CancelledBy,
		Items:            make([]returns.ReturnItem, len(m.Items)),
		Timeline:         make([]returns.TimelineEntry, len(m.Timeline)),
	}

	if m.ShippingAddress != "" {
		if err := json.Unmarshal([]byte(m.ShippingAddress), &r.Order.ShippingAddress); err != nil {
			modelLogger().Warn("failed to parse shipping_address JSON",
				zap.String("return_id", m.ID.String()), zap.Error(err))
		}
	}
	if m.InspectionPhotos != "" {
		if err := json.Unmarshal([]byte(m.InspectionPhotos), &r.InspectionPhotos); err != nil {
			modelLogger().Warn("failed to parse inspection_photos JSON",
				zap.String("return_id", m.ID.String()), zap.Error(err))
		}
	}
	if m.LabelCarrier != "" || m.LabelURL != "" {
		label := &returns.ReturnLabel{
			Carrier:        m.LabelCarrier,
			ServiceLevel:   m.LabelServiceLevel,
			TrackingNumber: m.TrackingNumber,
			LabelURL:       m.LabelURL,
			LabelFormat:    m.LabelFormat,
		}
		if m.LabelCreatedAt != nil {
			label.CreatedAt = *m.LabelCreatedAt
		}
		r.Label = label
	}

	for i := range m.Items {
		r.Items[i] = m.Items[i].ToDomain()
	}
	for i := range m.Timeline {
		r.Timeline[i] = m.Timeline[i].ToDomain()
	}
	return r
}

// FromDomain populates the persistence model from a domain ReturnRequest.
func (m *ReturnRequestModel) FromDomain(r *returns.ReturnRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.RMANumber = r.RMANumber
	m.OrderID = r.OrderID
	m.UserID = r.UserID
	m.CustomerName = r.Customer.Name
	m.CustomerEmail = r.Customer.Email
	m.OrderNumber = r.Order.OrderNumber
	m.ShippingCost = r.Order.ShippingCost
	m.Currency = r.Order.Currency
	m.PaymentMethod = string(r.Order.PaymentMethod)
	m.ReturnType = r.ReturnType
	m.Reason = r.Reason
	m.Status = r.Status
	m.RefundAmount = r.RefundAmount
	m.RestockingFee = r.RestockingFee
	m.ShippingRefund = r.ShippingRefund
	m.Comments = r.Comments
	m.RejectedReason = r.RejectedReason
	m.InspectionNotes = r.InspectionNotes
	m.TrackingNumber = r.TrackingNumber
	m.RequestedAt = r.RequestedAt
	m.ApprovedAt = r.ApprovedAt
	m.ApprovedBy = r.ApprovedBy
	m.RejectedAt = r.RejectedAt
	m.ReceivedAt = r.ReceivedAt
	m.InspectedAt = r.InspectedAt
	m.InspectedBy = r.InspectedBy
	m.CompletedAt = r.CompletedAt
	m.CancelledAt = r.CancelledAt
	m.CancelledBy = r.CancelledBy
	if m.Currency == "" {
		m.Currency = "USD"
	}

	addr, _ := json.Marshal(r.Order.ShippingAddress)
	m.ShippingAddress = string(addr)
	photos := r.InspectionPhotos
	if photos == nil {
		photos = []string{}
	}
	encoded, _ := json.Marshal(photos)
	m.InspectionPhotos = string(encoded)

	if r.Label != nil {
		m.LabelCarrier = r.Label.Carrier
		m.LabelServiceLevel = r.Label.ServiceLevel
		m.LabelURL = r.Label.LabelURL
		m.LabelFormat = r.Label.LabelFormat
		createdAt := r.Label.CreatedAt
		m.LabelCreatedAt = &createdAt
	}

	m.Items = make([]ReturnItemModel, len(r.Items))
	for i := range r.Items {
		m.Items[i].FromDomain(r.ID, &r.Items[i])
	}
	m.Timeline = make([]ReturnTimelineModel, len(r.Timeline))
	for i := range r.Timeline {
		m.Timeline[i].FromDomain(r.ID, &r.Timeline[i])
	}
}

// ReturnRequestModelFromDomain creates a new persistence model from a domain ReturnRequest.
func ReturnRequestModelFromDomain(r *returns.ReturnRequest) *ReturnRequestModel {
	m := &ReturnRequestModel{}
	m.FromDomain(r)
	return m
}

// ReturnItemModel is the persistence model for the ReturnItem entity.
type ReturnItemModel struct {
	ID                   uuid.UUID            `gorm:"type:uuid;primary_key"`
	ReturnID             uuid.UUID            `gorm:"type:uuid;not null;index"`
	OrderItemID          uuid.UUID            `gorm:"type:uuid;not null"`
	ProductID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProductName          string               `gorm:"type:varchar(200);not null"`
	SKU                  string               `gorm:"type:varchar(50)"`
	Quantity             int                  `gorm:"not null"`
	UnitPrice            decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	RefundAmount         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Reason               returns.ReturnReason `gorm:"type:varchar(30)"`
	Condition            string               `gorm:"type:varchar(50)"`
	Notes                string               `gorm:"type:text"`
	Restocked            bool                 `gorm:"not null;default:false"`
	RestockedAt          *time.Time
	RestockedWarehouseID *uuid.UUID `gorm:"type:uuid"`
	RestockedQuantity    int        `gorm:"not null;default:0"`
	CreatedAt            time.Time  `gorm:"not null"`
	UpdatedAt            time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReturnItemModel) TableName() string {
	return "return_items"
}

// ToDomain converts the persistence model to a domain ReturnItem.
func (m *ReturnItemModel) ToDomain() returns.ReturnItem {
	return returns.ReturnItem{
		ID:                   m.ID,
		ReturnID:             m.ReturnID,
		OrderItemID:          m.OrderItemID,
		ProductID:            m.ProductID,
		ProductName:          m.ProductName,
		SKU:                  m.SKU,
		Quantity:             m.Quantity,
		UnitPrice:            m.UnitPrice,
		RefundAmount:         m.RefundAmount,
		Reason:               m.Reason,
		Condition:            m.Condition,
		Notes:                m.Notes,
		Restocked:            m.Restocked,
		RestockedAt:          m.RestockedAt,
		RestockedWarehouseID: m.RestockedWarehouseID,
		RestockedQuantity:    m.RestockedQuantity,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ReturnItem.
func (m *ReturnItemModel) FromDomain(returnID uuid.UUID, item *returns.ReturnItem) {
	m.ID = item.ID
	m.ReturnID = returnID
	m.OrderItemID = item.OrderItemID
	m.ProductID = item.ProductID
	m.ProductName = item.ProductName
	m.SKU = item.SKU
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.RefundAmount = item.RefundAmount
	m.Reason = item.Reason
	m.Condition = item.Condition
	m.Notes = item.Notes
	m.Restocked = item.Restocked
	m.RestockedAt = item.RestockedAt
	m.RestockedWarehouseID = item.RestockedWarehouseID
	m.RestockedQuantity = item.RestockedQuantity
	m.CreatedAt = item.CreatedAt
	m.UpdatedAt = item.UpdatedAt
}

// ReturnTimelineModel is the persistence model for an append-only timeline entry.
type ReturnTimelineModel struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key"`
	ReturnID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	Status      returns.ReturnStatus `gorm:"type:varchar(20);not null"`
	Description string               `gorm:"type:text;not null"`
	PerformedBy *uuid.UUID           `gorm:"type:uuid"`
	OccurredAt  time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ReturnTimelineModel) TableName() string {
	return "return_timeline"
}

// ToDomain converts the persistence model to a domain TimelineEntry.
func (m *ReturnTimelineModel) ToDomain() returns.TimelineEntry {
	return returns.TimelineEntry{
		ID:          m.ID,
		ReturnID:    m.ReturnID,
		Status:      m.Status,
		Description: m.Description,
		PerformedBy: m.PerformedBy,
		OccurredAt:  m.OccurredAt,
	}
}

// FromDomain populates the persistence model from a domain TimelineEntry.
func (m *ReturnTimelineModel) FromDomain(returnID uuid.UUID, e *returns.TimelineEntry) {
	m.ID = e.ID
	m.ReturnID = returnID
	m.Status = e.Status
	m.Description = e.Description
	m.PerformedBy = e.PerformedBy
	m.OccurredAt = e.OccurredAt
}
