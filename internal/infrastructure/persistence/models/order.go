package models

import (
	"encoding/json"
	"time"

	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderModel is a read-only projection of the order-management orders table.
// Returns never write to it.
type OrderModel struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key"`
	OrderNumber     string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	UserID          uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerName    string           `gorm:"type:varchar(200)"`
	CustomerEmail   string           `gorm:"type:varchar(200)"`
	ShippingAddress string           `gorm:"type:jsonb;default:'{}'"`
	ShippingCost    decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Currency        string           `gorm:"type:varchar(3);not null;default:'USD'"`
	PaymentMethod   string           `gorm:"type:varchar(20)"`
	PaymentGateway  string           `gorm:"type:varchar(20)"`
	PaymentIntentID string           `gorm:"type:varchar(100)"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt       time.Time        `gorm:"not null"`
	UpdatedAt       time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the order row into the snapshot a return is raised against.
func (m *OrderModel) ToDomain() *returns.OrderSnapshot {
	o := &returns.OrderSnapshot{
		ID:              m.ID,
		OrderNumber:     m.OrderNumber,
		UserID:          m.UserID,
		CustomerName:    m.CustomerName,
		CustomerEmail:   m.CustomerEmail,
		ShippingCost:    m.ShippingCost,
		Currency:        m.Currency,
		PaymentMethod:   returns.PaymentMethod(m.PaymentMethod),
		PaymentGateway:  m.PaymentGateway,
		PaymentIntentID: m.PaymentIntentID,
		Items:           make([]returns.OrderLine, len(m.Items)),
	}
	if m.ShippingAddress != "" {
		if err := json.Unmarshal([]byte(m.ShippingAddress), &o.ShippingAddress); err != nil {
			modelLogger().Warn("failed to parse order shipping_address JSON",
				zap.String("order_id", m.ID.String()), zap.Error(err))
		}
	}
	for i, item := range m.Items {
		o.Items[i] = returns.OrderLine{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return o
}

// OrderItemModel is a read-only projection of an order line.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	SKU         string          `gorm:"type:varchar(50)"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}
