// Package purelymail provisions mailboxes through the Purelymail REST
// API. A single account-level API token authenticates every call via the
// Purelymail-Api-Token header. Storage is pooled per account, so
// per-mailbox quotas are recorded locally but not enforced remotely.
package purelymail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/edvin/mailhub/internal/provider"
)

const (
	providerID     = "purelymail"
	defaultBaseURL = "https://purelymail.com/api/v0"
)

type Config struct {
	Enabled  bool   `yaml:"enabled"`
	APIToken string `yaml:"api_token"`
	BaseURL  string `yaml:"base_url"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) ID() string          { return providerID }
func (c *Client) DisplayName() string { return "Purelymail" }
func (c *Client) Enabled() bool       { return c.cfg.Enabled }
func (c *Client) Configured() bool    { return c.cfg.APIToken != "" }

// CreateAccount ensures the domain is attached to the Purelymail account
// and then creates the user. A domain that is already attached is not an
// error.
func (c *Client) CreateAccount(ctx context.Context, params provider.CreateAccountParams) (*provider.CreateAccountResult, error) {
	if params.Username == "" || params.Domain == "" || params.Password == "" {
		return nil, provider.E(provider.KindMissingParams, providerID, "username, domain, and password are required")
	}

	if err := c.ensureDomain(ctx, params.Domain); err != nil {
		return nil, err
	}

	body := map[string]any{
		"userName":            params.Username,
		"domainName":          params.Domain,
		"password":            params.Password,
		"enablePasswordReset": false,
		"enableSearchIndexing": true,
	}
	if err := c.call(ctx, "createUser", body, nil); err != nil {
		return nil, err
	}

	addr := params.Address()
	return &provider.CreateAccountResult{
		Address:    addr,
		ExternalID: addr,
		QuotaMB:    params.QuotaMB,
	}, nil
}

func (c *Client) ensureDomain(ctx context.Context, domain string) error {
	err := c.call(ctx, "addDomain", map[string]any{"domainName": domain}, nil)
	if err == nil {
		return nil
	}
	// The domain being attached already is fine; everything else is not.
	if provider.IsKind(err, provider.KindAlreadyExists) {
		return nil
	}
	return err
}

func (c *Client) DeleteAccount(ctx context.Context, address string) error {
	if address == "" {
		return provider.E(provider.KindMissingParams, providerID, "address is required")
	}
	return c.call(ctx, "deleteUser", map[string]any{"userName": address}, nil)
}

func (c *Client) ChangePassword(ctx context.Context, address, newPassword string) error {
	if newPassword == "" {
		return provider.E(provider.KindMissingParams, providerID, "password is required")
	}
	body := map[string]any{
		"userName":    address,
		"newPassword": newPassword,
	}
	return c.call(ctx, "modifyUser", body, nil)
}

func (c *Client) AccountInfo(ctx context.Context, address string) (*provider.AccountInfo, error) {
	var result struct {
		Users []string `json:"users"`
	}
	if err := c.call(ctx, "listUser", map[string]any{}, &result); err != nil {
		return nil, err
	}

	for _, u := range result.Users {
		if strings.EqualFold(u, address) {
			return &provider.AccountInfo{
				Address:    address,
				ExternalID: address,
			}, nil
		}
	}
	return nil, provider.E(provider.KindNotFound, providerID, fmt.Sprintf("account %s not found", address))
}

func (c *Client) TestConnection(ctx context.Context) error {
	return c.call(ctx, "checkAccountCredit", map[string]any{}, nil)
}

// call POSTs a JSON body to an API endpoint and unwraps the
// {"type": "success"|"error"} envelope.
func (c *Client) call(ctx context.Context, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return provider.Wrap(provider.KindRemoteRejected, providerID, "marshal "+endpoint, err)
	}

	url := fmt.Sprintf("%s/%s", c.cfg.BaseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return provider.Wrap(provider.KindRemoteRejected, providerID, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Purelymail-Api-Token", c.cfg.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Wrap(provider.KindRemoteUnreachable, providerID, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return provider.E(provider.KindFromStatus(resp.StatusCode), providerID,
			fmt.Sprintf("%s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	var envelope struct {
		Type    string          `json:"type"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return provider.Wrap(provider.KindRemoteRejected, providerID, "decode "+endpoint, err)
	}

	if envelope.Type != "success" {
		msg := envelope.Message
		if msg == "" {
			msg = endpoint + " failed"
		}
		return provider.E(classifyError(envelope.Code, msg), providerID, msg)
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return provider.Wrap(provider.KindRemoteRejected, providerID, "decode "+endpoint+" result", err)
		}
	}
	return nil
}

func classifyError(code, msg string) provider.Kind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already exists"),
		strings.Contains(lower, "already added"),
		strings.Contains(lower, "already associated"):
		return provider.KindAlreadyExists
	case strings.Contains(lower, "not found"), strings.Contains(lower, "no such"):
		return provider.KindNotFound
	case code == "invalid_api_token", strings.Contains(lower, "invalid api token"):
		return provider.KindInvalidCredentials
	case strings.Contains(lower, "rate limit"):
		return provider.KindRateLimited
	}
	return provider.KindRemoteRejected
}
