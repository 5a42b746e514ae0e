package returns

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address is a postal address used as shipment origin or destination
type Address struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// IsZero reports whether no address line was provided
func (a Address) IsZero() bool {
	return a.Line1 == "" && a.City == "" && a.PostalCode == ""
}

// PaymentMethod is how the original order was paid
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodStoreCredit  PaymentMethod = "STORE_CREDIT"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// OrderLine is one line of the originating order
type OrderLine struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// OrderSnapshot is the read-only view of an order a return is raised against
type OrderSnapshot struct {
	ID              uuid.UUID
	OrderNumber     string
	UserID          uuid.UUID
	CustomerName    string
	CustomerEmail   string
	ShippingAddress Address
	Items           []OrderLine
	ShippingCost    decimal.Decimal
	Currency        string
	PaymentMethod   PaymentMethod
	PaymentGateway  string // e.g. "STRIPE"
	PaymentIntentID string // gateway reference of the original charge
}

// FindLine returns the order line with the given id, or nil
func (o *OrderSnapshot) FindLine(id uuid.UUID) *OrderLine {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

// OrderReader looks up orders owned by the order-management context.
// FindOrder returns shared.ErrNotFound when the order does not exist.
type OrderReader interface {
	FindOrder(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error)
}
