package purelymail

import "github.com/edvin/mailhub/internal/provider"

// Purelymail hosts all customer domains on shared infrastructure, so the
// DNS and client settings are fixed.

func (c *Client) WebmailURL(address string) string {
	return "https://purelymail.com/webmail"
}

func (c *Client) DNSInstructions(domain string) []provider.DNSInstruction {
	fifty := 50
	return []provider.DNSInstruction{
		{
			Type:        "MX",
			Name:        domain,
			Value:       "mailserver.purelymail.com",
			Priority:    &fifty,
			Description: "Routes incoming mail to Purelymail",
		},
		{
			Type:        "TXT",
			Name:        domain,
			Value:       "v=spf1 include:_spf.purelymail.com ~all",
			Description: "SPF record authorizing Purelymail to send for this domain",
		},
		{
			Type:        "CNAME",
			Name:        "purelymail1._domainkey." + domain,
			Value:       "key1.dkimroot.purelymail.com",
			Description: "DKIM signing key 1",
		},
		{
			Type:        "CNAME",
			Name:        "purelymail2._domainkey." + domain,
			Value:       "key2.dkimroot.purelymail.com",
			Description: "DKIM signing key 2",
		},
		{
			Type:        "CNAME",
			Name:        "purelymail3._domainkey." + domain,
			Value:       "key3.dkimroot.purelymail.com",
			Description: "DKIM signing key 3",
		},
		{
			Type:        "TXT",
			Name:        "_dmarc." + domain,
			Value:       "v=DMARC1; p=none;",
			Description: "Baseline DMARC policy",
		},
	}
}

func (c *Client) IMAPSettings(address string) provider.ConnectionSettings {
	return provider.ConnectionSettings{
		Server:   "imap.purelymail.com",
		Port:     993,
		Security: provider.SecuritySSL,
		Username: address,
	}
}

func (c *Client) SMTPSettings(address string) provider.ConnectionSettings {
	return provider.ConnectionSettings{
		Server:   "smtp.purelymail.com",
		Port:     465,
		Security: provider.SecuritySSL,
		Username: address,
	}
}
