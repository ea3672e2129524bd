package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name        string           `json:"name"        binding:"required" example:"Mechanical Keyboard"`
	ImageURL    string           `json:"imageUrl"    binding:"required" example:"https://cdn.example.com/kb.png"`
	Price       *decimal.Decimal `json:"price"       binding:"required" swaggertype:"string" example:"199.90"`
	Status      Status           `json:"status,omitempty"      example:"active"`
	Stock       *int             `json:"stock,omitempty"       example:"10"`
	AvailableAt *time.Time       `json:"availableAt,omitempty"`
}

// UpdateProductRequest payload of partial update. Omitted fields keep their value.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	ImageURL    *string          `json:"imageUrl,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty" swaggertype:"string"`
	Status      *Status          `json:"status,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	AvailableAt *time.Time       `json:"availableAt,omitempty"`
}
