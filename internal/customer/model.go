package customer

import "time"

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateCustomerRequest payload of creation.
// swagger:model CreateCustomerRequest
type CreateCustomerRequest struct {
	Name    string `json:"name"    binding:"required" example:"Ana López"`
	Email   string `json:"email"   binding:"required,email" example:"ana@example.com"`
	Phone   string `json:"phone,omitempty"   example:"+52 55 1234 5678"`
	Address string `json:"address,omitempty" example:"Av. Reforma 100, CDMX"`
}

// UpdateCustomerRequest payload of partial update. An empty phone or address
// clears the stored value; an omitted one keeps it.
// swagger:model UpdateCustomerRequest
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// DeleteResponse echoes the removed customer.
// swagger:model
type DeleteResponse struct {
	Message  string   `json:"message" example:"customer deleted"`
	Customer Customer `json:"customer"`
}
