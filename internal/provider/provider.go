// Package provider defines the contract every email backend adapter
// implements, the shared failure taxonomy, and the registry the rest of
// the platform resolves adapters through.
package provider

import "context"

// Connection security modes for IMAP/SMTP settings.
const (
	SecuritySSL      = "ssl"
	SecurityStartTLS = "starttls"
	SecurityNone     = "none"
)

// Provider is implemented by each email backend adapter. Mutating calls
// must be bounded by the request context; adapters never retry on their
// own and never sleep on rate limits.
type Provider interface {
	// ID is the stable identifier used in account rows and API payloads.
	ID() string
	DisplayName() string

	// Enabled reports the operator's on/off switch for this backend.
	Enabled() bool
	// Configured reports whether all required credentials are present.
	Configured() bool

	CreateAccount(ctx context.Context, params CreateAccountParams) (*CreateAccountResult, error)
	DeleteAccount(ctx context.Context, address string) error
	ChangePassword(ctx context.Context, address, newPassword string) error
	AccountInfo(ctx context.Context, address string) (*AccountInfo, error)

	WebmailURL(address string) string
	DNSInstructions(domain string) []DNSInstruction
	IMAPSettings(address string) ConnectionSettings
	SMTPSettings(address string) ConnectionSettings

	// TestConnection performs a cheap authenticated call against the
	// backend to verify reachability and credentials.
	TestConnection(ctx context.Context) error
}

type CreateAccountParams struct {
	Username    string
	Domain      string
	Password    string
	QuotaMB     int64
	DisplayName string
}

// Address joins the local part and domain.
func (p CreateAccountParams) Address() string {
	return p.Username + "@" + p.Domain
}

type CreateAccountResult struct {
	Address    string
	ExternalID string
	QuotaMB    int64
}

type AccountInfo struct {
	Address    string
	ExternalID string
	QuotaMB    int64
	DiskUsedMB int64
	Suspended  bool
}

// ConnectionSettings describes how a mail client reaches the backend.
type ConnectionSettings struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Security string `json:"security"`
	Username string `json:"username"`
}

// DNSInstruction is one record the customer must create at their DNS
// host before mail flows. Instructions are static data; nothing in this
// system writes DNS.
type DNSInstruction struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Value       string `json:"value"`
	Priority    *int   `json:"priority,omitempty"`
	Description string `json:"description,omitempty"`
}
