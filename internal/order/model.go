package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Order struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Status     Status `json:"status"`
	// NUMERIC(10,2); either the sum of line totals or the caller's explicit total
	Total     decimal.Decimal `json:"total" swaggertype:"string" example:"270.00"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Summary is an order header as listed, with the customer's name.
type Summary struct {
	Order
	CustomerName *string `json:"customerName"`
}

// Item is a frozen snapshot of a product at order time. ProductID becomes
// nil if the product is deleted later.
type Item struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId"`
	ProductID       *string         `json:"productId"`
	ProductName     string          `json:"productName"`
	Quantity        int             `json:"quantity"`
	UnitPriceBase   decimal.Decimal `json:"unitPriceBase" swaggertype:"string"`
	UnitPriceFinal  decimal.Decimal `json:"unitPriceFinal" swaggertype:"string"`
	DiscountAmount  decimal.Decimal `json:"discountAmount" swaggertype:"string"`
	DiscountPercent decimal.Decimal `json:"discountPercent" swaggertype:"string"`
	LineTotal       decimal.Decimal `json:"lineTotal" swaggertype:"string"`
	CreatedAt       time.Time       `json:"createdAt"`
}

const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentStatusPending      = "pending"
	PaymentStatusConfirmed    = "confirmed"
)

type Payment struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"string"`
	Reference *string         `json:"reference"`
	ProofURL  *string         `json:"proofUrl"`
	Notes     *string         `json:"notes"`
	PaidAt    *time.Time      `json:"paidAt"`
	CreatedAt time.Time       `json:"createdAt"`
}

// StatusEvent is one entry of the append-only status timeline.
type StatusEvent struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	FromStatus *Status   `json:"fromStatus"`
	ToStatus   Status    `json:"toStatus"`
	Reason     *string   `json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Aggregate is the full read model of one order.
type Aggregate struct {
	Summary
	Items        []Item        `json:"items"`
	Payments     []Payment     `json:"payments"`
	StatusEvents []StatusEvent `json:"statusEvents"`
}
