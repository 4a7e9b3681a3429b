package request

// CreateEmailAccount holds the request body for creating a mailbox under
// a customer. MembershipID is required for membership-included mailboxes;
// per-account purchases carry a payment reference instead. An empty
// password lets the platform generate one.
type CreateEmailAccount struct {
	Address      string  `json:"address" validate:"required,email"`
	MembershipID *string `json:"membership_id"`
	SiteID       *string `json:"site_id"`
	Provider     string  `json:"provider" validate:"omitempty,slug"`
	QuotaMB      int64   `json:"quota_mb" validate:"omitempty,min=0"`
	PurchaseType string  `json:"purchase_type" validate:"omitempty,oneof=membership_included per_account_purchase"`
	PaymentID    *string `json:"payment_id"`
	Password     string  `json:"password" validate:"omitempty,min=8,max=128"`
}

// SuspendEmailAccount holds the optional reason for a suspension.
type SuspendEmailAccount struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// ChangeEmailPassword holds the request body for a password rotation. An
// empty password lets the platform generate one and return a reveal token.
type ChangeEmailPassword struct {
	Password string `json:"password" validate:"omitempty,min=8,max=128"`
}

// RevealEmailPassword holds the one-time token for a password read.
type RevealEmailPassword struct {
	Token string `json:"token" validate:"required"`
}
