package gworkspace

import (
	"strings"

	"github.com/edvin/mailhub/internal/provider"
)

func (c *Client) WebmailURL(address string) string {
	at := strings.IndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return "https://mail.google.com"
	}
	return "https://mail.google.com/a/" + address[at+1:]
}

func (c *Client) DNSInstructions(domain string) []provider.DNSInstruction {
	one := 1
	return []provider.DNSInstruction{
		{
			Type:        "MX",
			Name:        domain,
			Value:       "smtp.google.com",
			Priority:    &one,
			Description: "mail delivery",
		},
		{
			Type:        "TXT",
			Name:        domain,
			Value:       "v=spf1 include:_spf.google.com ~all",
			Description: "spf",
		},
	}
}

func (c *Client) IMAPSettings(address string) provider.ConnectionSettings {
	return provider.ConnectionSettings{
		Server:   "imap.gmail.com",
		Port:     993,
		Security: provider.SecuritySSL,
		Username: address,
	}
}

func (c *Client) SMTPSettings(address string) provider.ConnectionSettings {
	return provider.ConnectionSettings{
		Server:   "smtp.gmail.com",
		Port:     587,
		Security: provider.SecurityStartTLS,
		Username: address,
	}
}
