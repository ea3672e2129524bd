package integration

import (
	"context"
	"net/http"
	"time"
)

type ProductionOrderInput struct {
	VendorOrderID  string `json:"vendorOrderId"`
	InternalItemID int64  `json:"internalItemId"`
	Quantity       int    `json:"quantity"`
	Priority       int    `json:"priority,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type ProductionOrder struct {
	ID             int64     `json:"id"`
	VendorOrderID  string    `json:"vendorOrderId"`
	InternalItemID int64     `json:"internalItemId"`
	Quantity       int       `json:"quantity"`
	Priority       int       `json:"priority"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Factory struct {
	d *Dispatcher
}

func NewFactory(d *Dispatcher) *Factory { return &Factory{d: d} }

func (c *Factory) CreateProductionOrder(ctx context.Context, in ProductionOrderInput) (*ProductionOrder, error) {
	var out ProductionOrder
	err := c.d.Call(ctx, InventoryPolicy, Request{
		Method: http.MethodPost,
		Path:   "/production-orders",
		Body:   in,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
