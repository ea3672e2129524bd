package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	}
	return false
}

type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Status   Status `json:"status"`
	// NUMERIC(10,2) in Postgres, serialized as a JSON string
	Price       decimal.Decimal `json:"price" swaggertype:"string" example:"199.90"`
	Stock       int             `json:"stock"`
	AvailableAt time.Time       `json:"availableAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	Products []Product `json:"products"`
	// total rows matching the filters, ignoring pagination
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// DeleteResponse echoes the removed product.
// swagger:model
type DeleteResponse struct {
	Message string  `json:"message" example:"product deleted"`
	Product Product `json:"product"`
}
