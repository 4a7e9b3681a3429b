package msgraph

import (
	"strings"

	"github.com/edvin/mailhub/internal/provider"
)

func (c *Client) WebmailURL(address string) string {
	return "https://outlook.office.com/mail/"
}

func (c *Client) DNSInstructions(domain string) []provider.DNSInstruction {
	zero := 0
	// Microsoft 365 derives the MX target from the domain with dots
	// swapped for dashes.
	mxTarget := strings.ReplaceAll(domain, ".", "-") + ".mail.protection.outlook.com"
	return []provider.DNSInstruction{
		{
			Type:        "MX",
			Name:        domain,
			Value:       mxTarget,
			Priority:    &zero,
			Description: "Routes incoming mail to Exchange Online",
		},
		{
			Type:        "TXT",
			Name:        domain,
			Value:       "v=spf1 include:spf.protection.outlook.com -all",
			Description: "SPF record authorizing Exchange Online to send for this domain",
		},
		{
			Type:        "CNAME",
			Name:        "autodiscover." + domain,
			Value:       "autodiscover.outlook.com",
			Description: "Autodiscover endpoint for Outlook clients",
		},
	}
}

func (c *Client) IMAPSettings(address string) provider.ConnectionSettings {
	return provider.ConnectionSettings{
		Server:   "outlook.office365.com",
		Port:     993,
		Security: provider.SecuritySSL,
		Username: address,
	}
}

func (c *Client) SMTPSettings(address string) provider.ConnectionSettings {
	return provider.ConnectionSettings{
		Server:   "smtp.office365.com",
		Port:     587,
		Security: provider.SecurityStartTLS,
		Username: address,
	}
}
