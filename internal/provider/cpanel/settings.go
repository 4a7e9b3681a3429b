package cpanel

import (
	"fmt"

	"github.com/edvin/mailhub/internal/provider"
)

// mailHost is the hostname clients and MX records point at. Falls back
// to the panel host itself, which serves mail on a standard cPanel box.
func (c *Client) mailHost() string {
	if c.cfg.MailHost != "" {
		return c.cfg.MailHost
	}
	return c.cfg.Host
}

func (c *Client) WebmailURL(address string) string {
	if c.cfg.WebmailURL != "" {
		return c.cfg.WebmailURL
	}
	return fmt.Sprintf("https://%s:2096", c.cfg.Host)
}

func (c *Client) DNSInstructions(domain string) []provider.DNSInstruction {
	zero := 0
	return []provider.DNSInstruction{
		{
			Type:        "MX",
			Name:        domain,
			Value:       c.mailHost(),
			Priority:    &zero,
			Description: "Routes incoming mail to the cPanel server",
		},
		{
			Type:        "TXT",
			Name:        domain,
			Value:       "v=spf1 +mx ~all",
			Description: "SPF record authorizing the mail server to send for this domain",
		},
		{
			Type:        "CNAME",
			Name:        "mail." + domain,
			Value:       c.mailHost(),
			Description: "Convenience hostname for IMAP and SMTP clients",
		},
	}
}

func (c *Client) IMAPSettings(address string) provider.ConnectionSettings {
	return provider.ConnectionSettings{
		Server:   c.mailHost(),
		Port:     993,
		Security: provider.SecuritySSL,
		Username: address,
	}
}

func (c *Client) SMTPSettings(address string) provider.ConnectionSettings {
	return provider.ConnectionSettings{
		Server:   c.mailHost(),
		Port:     465,
		Security: provider.SecuritySSL,
		Username: address,
	}
}
