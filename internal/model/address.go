package model

import (
	"fmt"
	"strings"
)

// SplitAddress normalizes an email address to lower case and splits it
// into its local part and domain. The shape check here is deliberately
// minimal; full format validation happens at the API boundary.
func SplitAddress(address string) (local, domain string, err error) {
	address = strings.ToLower(strings.TrimSpace(address))
	at := strings.IndexByte(address, '@')
	if at <= 0 || at == len(address)-1 {
		return "", "", fmt.Errorf("invalid email address %q", address)
	}
	local = address[:at]
	domain = address[at+1:]
	if strings.ContainsAny(local, " @") || strings.ContainsAny(domain, " @") {
		return "", "", fmt.Errorf("invalid email address %q", address)
	}
	if !strings.Contains(domain, ".") {
		return "", "", fmt.Errorf("invalid email domain %q", domain)
	}
	return local, domain, nil
}
