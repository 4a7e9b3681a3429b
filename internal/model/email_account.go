package model

import "time"

// Purchase types describe how a mailbox is paid for. Accounts included in
// a membership count against the membership's quota; per-account purchases
// bypass quota admission and carry a payment reference instead.
const (
	PurchaseMembership = "membership_included"
	PurchasePerAccount = "per_account_purchase"
)

type EmailAccount struct {
	ID            string    `json:"id" db:"id"`
	CustomerID    string    `json:"customer_id" db:"customer_id"`
	MembershipID  *string   `json:"membership_id,omitempty" db:"membership_id"`
	SiteID        *string   `json:"site_id,omitempty" db:"site_id"`
	Address       string    `json:"address" db:"address"`
	Domain        string    `json:"domain" db:"domain"`
	Provider      string    `json:"provider" db:"provider"`
	ExternalID    *string   `json:"external_id,omitempty" db:"external_id"`
	QuotaMB       int64     `json:"quota_mb" db:"quota_mb"`
	PurchaseType  string    `json:"purchase_type" db:"purchase_type"`
	PaymentID     *string   `json:"payment_id,omitempty" db:"payment_id"`
	Status        string    `json:"status" db:"status"`
	StatusMessage *string   `json:"status_message,omitempty" db:"status_message"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
