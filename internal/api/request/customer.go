package request

// CreateCustomer holds the request body for creating a customer.
type CreateCustomer struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email"`
}

// UpdateCustomer holds the request body for updating a customer.
type UpdateCustomer struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email"`
}
