package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderItem payload of one line. Omitted prices default to the
// product's current price, omitted discounts to zero.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ProductID       string           `json:"productId" binding:"required" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity        int              `json:"quantity"  binding:"required" example:"3"`
	UnitPriceBase   *decimal.Decimal `json:"unitPriceBase,omitempty"   swaggertype:"string" example:"100.00"`
	UnitPriceFinal  *decimal.Decimal `json:"unitPriceFinal,omitempty"  swaggertype:"string" example:"100.00"`
	DiscountAmount  *decimal.Decimal `json:"discountAmount,omitempty"  swaggertype:"string" example:"0"`
	DiscountPercent *decimal.Decimal `json:"discountPercent,omitempty" swaggertype:"string" example:"10"`
}

// CreateOrderRequest payload of order creation.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	CustomerID string            `json:"customerId" binding:"required" example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	Status     Status            `json:"status,omitempty" example:"pending"`
	Total      *decimal.Decimal  `json:"total,omitempty" swaggertype:"string"`
	Items      []CreateOrderItem `json:"items,omitempty" binding:"omitempty,dive"`
}

// UpdateOrderRequest payload of header update.
// swagger:model UpdateOrderRequest
type UpdateOrderRequest struct {
	CustomerID *string          `json:"customerId,omitempty"`
	Status     *Status          `json:"status,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty" swaggertype:"string"`
}

// UpdateStatusRequest payload of a status transition.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	ToStatus Status `json:"toStatus" example:"shipped"`
	Reason   string `json:"reason,omitempty" example:"picked up by carrier"`
}

// RecordPaymentRequest payload of a manual bank transfer.
// swagger:model RecordPaymentRequest
type RecordPaymentRequest struct {
	Amount    *decimal.Decimal `json:"amount" swaggertype:"string" example:"270.00"`
	Reference string           `json:"reference,omitempty" example:"SPEI 0042"`
	ProofURL  string           `json:"proofUrl,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	PaidAt    *time.Time       `json:"paidAt,omitempty"`
}

// DeleteResponse echoes the removed order.
// swagger:model
type DeleteResponse struct {
	Message string    `json:"message" example:"order deleted"`
	Order   Aggregate `json:"order"`
}
