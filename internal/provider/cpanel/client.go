// Package cpanel provisions mailboxes through the cPanel UAPI Email
// module. Every call re-authenticates with the reseller's API token;
// there is no session state to cache.
package cpanel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edvin/mailhub/internal/provider"
)

const providerID = "cpanel"

type Config struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	APIToken   string `yaml:"api_token"`
	MailHost   string `yaml:"mail_host"`
	WebmailURL string `yaml:"webmail_url"`
	// BaseURL overrides the https://host:port derivation, for tests.
	BaseURL string `yaml:"base_url"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Client {
	if cfg.Port == 0 {
		cfg.Port = 2083
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) ID() string          { return providerID }
func (c *Client) DisplayName() string { return "cPanel" }
func (c *Client) Enabled() bool       { return c.cfg.Enabled }

func (c *Client) Configured() bool {
	return c.cfg.Host != "" && c.cfg.Username != "" && c.cfg.APIToken != ""
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return fmt.Sprintf("https://%s:%d", c.cfg.Host, c.cfg.Port)
}

func (c *Client) CreateAccount(ctx context.Context, params provider.CreateAccountParams) (*provider.CreateAccountResult, error) {
	if params.Username == "" || params.Domain == "" || params.Password == "" {
		return nil, provider.E(provider.KindMissingParams, providerID, "username, domain, and password are required")
	}

	v := url.Values{}
	v.Set("email", params.Username)
	v.Set("domain", params.Domain)
	v.Set("password", params.Password)
	// UAPI takes the quota in MB; 0 means unlimited.
	v.Set("quota", strconv.FormatInt(params.QuotaMB, 10))

	if err := c.call(ctx, "Email/add_pop", v, nil); err != nil {
		return nil, err
	}

	addr := params.Address()
	return &provider.CreateAccountResult{
		Address:    addr,
		ExternalID: addr,
		QuotaMB:    params.QuotaMB,
	}, nil
}

func (c *Client) DeleteAccount(ctx context.Context, address string) error {
	local, domain, err := splitAddress(address)
	if err != nil {
		return err
	}

	v := url.Values{}
	v.Set("email", local)
	v.Set("domain", domain)
	return c.call(ctx, "Email/delete_pop", v, nil)
}

func (c *Client) ChangePassword(ctx context.Context, address, newPassword string) error {
	if newPassword == "" {
		return provider.E(provider.KindMissingParams, providerID, "password is required")
	}
	local, domain, err := splitAddress(address)
	if err != nil {
		return err
	}

	v := url.Values{}
	v.Set("email", local)
	v.Set("domain", domain)
	v.Set("password", newPassword)
	return c.call(ctx, "Email/passwd_pop", v, nil)
}

func (c *Client) AccountInfo(ctx context.Context, address string) (*provider.AccountInfo, error) {
	_, domain, err := splitAddress(address)
	if err != nil {
		return nil, err
	}

	v := url.Values{}
	v.Set("domain", domain)

	var accounts []struct {
		Email          string `json:"email"`
		DiskUsed       any    `json:"diskused"`
		DiskQuota      any    `json:"diskquota"`
		SuspendedLogin int    `json:"suspended_login"`
	}
	if err := c.call(ctx, "Email/list_pops_with_disk", v, &accounts); err != nil {
		return nil, err
	}

	for _, a := range accounts {
		if !strings.EqualFold(a.Email, address) {
			continue
		}
		return &provider.AccountInfo{
			Address:    address,
			ExternalID: address,
			QuotaMB:    quotaMB(a.DiskQuota),
			DiskUsedMB: quotaMB(a.DiskUsed),
			Suspended:  a.SuspendedLogin != 0,
		}, nil
	}
	return nil, provider.E(provider.KindNotFound, providerID, fmt.Sprintf("account %s not found", address))
}

func (c *Client) TestConnection(ctx context.Context) error {
	return c.call(ctx, "Email/list_pops", url.Values{}, nil)
}

// call performs a UAPI request and unwraps the response envelope.
// UAPI reports failures with status 0 and an errors array, usually
// alongside HTTP 200.
func (c *Client) call(ctx context.Context, fn string, params url.Values, out any) error {
	u := fmt.Sprintf("%s/execute/%s", c.baseURL(), fn)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return provider.Wrap(provider.KindRemoteRejected, providerID, "build request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("cpanel %s:%s", c.cfg.Username, c.cfg.APIToken))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Wrap(provider.KindRemoteUnreachable, providerID, fn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return provider.E(provider.KindFromStatus(resp.StatusCode), providerID,
			fmt.Sprintf("%s: status %d: %s", fn, resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var envelope struct {
		Result struct {
			Status int             `json:"status"`
			Errors []string        `json:"errors"`
			Data   json.RawMessage `json:"data"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return provider.Wrap(provider.KindRemoteRejected, providerID, "decode "+fn, err)
	}

	if envelope.Result.Status != 1 {
		msg := strings.Join(envelope.Result.Errors, "; ")
		if msg == "" {
			msg = fn + " failed"
		}
		return provider.E(classifyMessage(msg), providerID, msg)
	}

	if out != nil && len(envelope.Result.Data) > 0 {
		if err := json.Unmarshal(envelope.Result.Data, out); err != nil {
			return provider.Wrap(provider.KindRemoteRejected, providerID, "decode "+fn+" data", err)
		}
	}
	return nil
}

// classifyMessage maps well-known UAPI error texts to failure kinds.
func classifyMessage(msg string) provider.Kind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already exists"):
		return provider.KindAlreadyExists
	case strings.Contains(lower, "does not exist"), strings.Contains(lower, "no such"):
		return provider.KindNotFound
	case strings.Contains(lower, "access denied"), strings.Contains(lower, "authentication"):
		return provider.KindInvalidCredentials
	}
	return provider.KindRemoteRejected
}

// quotaMB coerces the mixed-type quota fields UAPI returns. Numbers are
// MB; the strings "unlimited" and "none" mean no bound.
func quotaMB(v any) int64 {
	switch q := v.(type) {
	case float64:
		return int64(q)
	case string:
		if q == "unlimited" || q == "none" || q == "" {
			return 0
		}
		f, err := strconv.ParseFloat(q, 64)
		if err != nil {
			return 0
		}
		return int64(f)
	}
	return 0
}

func splitAddress(address string) (local, domain string, err error) {
	at := strings.IndexByte(address, '@')
	if at <= 0 || at == len(address)-1 {
		return "", "", provider.E(provider.KindMissingParams, providerID, fmt.Sprintf("invalid address %q", address))
	}
	return address[:at], address[at+1:], nil
}
