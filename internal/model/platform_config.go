package model

// PlatformConfig is a key/value row for platform-wide settings, such as
// the global switch that turns mailbox provisioning on or off.
type PlatformConfig struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Platform config keys.
const (
	ConfigEmailAccountsEnabled = "email_accounts_enabled"
	ConfigDefaultProvider      = "default_email_provider"
)
