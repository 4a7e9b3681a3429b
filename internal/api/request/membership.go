package request

import "github.com/edvin/mailhub/internal/model"

// CreateMembership holds the request body for creating a membership
// under a customer.
type CreateMembership struct {
	PlanName string `json:"plan_name" validate:"required,min=1,max=255"`
}

// SetLimitation holds the request body for setting a feature limit on a
// membership. The limit follows the billing wire form: true or 0 mean
// unlimited, false means none, a positive integer is a strict bound.
type SetLimitation struct {
	Enabled bool             `json:"enabled"`
	Limit   model.LimitValue `json:"limit"`
}
