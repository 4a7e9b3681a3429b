package model

import "time"

// Membership status constants.
const (
	MembershipActive   = "active"
	MembershipCanceled = "canceled"
)

// Membership is a customer's plan subscription. Feature limits hang off
// the membership, not the customer.
type Membership struct {
	ID         string    `json:"id" db:"id"`
	CustomerID string    `json:"customer_id" db:"customer_id"`
	PlanName   string    `json:"plan_name" db:"plan_name"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
