package returns

import (
	"context"
	"time"
)

// ReturnLabel is the inbound shipping label issued for a return
type ReturnLabel struct {
	Carrier        string
	ServiceLevel   string
	TrackingNumber string
	LabelURL       string
	LabelFormat    string
	CreatedAt      time.Time
}

// ShipmentRequest asks the shipping collaborator for an inbound shipment
type ShipmentRequest struct {
	Reference    string // RMA number printed on the label
	Origin       Address
	Destination  Address
	Carrier      string
	ServiceLevel string
}

// Shipment is the shipping collaborator's answer
type Shipment struct {
	Carrier        string
	TrackingNumber string
	LabelURL       string
	LabelFormat    string
}

// ShippingProvider creates inbound return shipments. Implementations may fail
// with transport or validation errors, which callers propagate.
type ShippingProvider interface {
	CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error)
}
