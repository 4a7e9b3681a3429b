// Package msgraph provisions Microsoft 365 mailboxes through the Graph
// API using app-only client credentials. Creating a user and licensing
// it are separate Graph operations; a license failure leaves the user in
// place and is surfaced as a warning, not a provisioning failure.
package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mailhub/internal/provider"
	"github.com/edvin/mailhub/internal/provider/tokencache"
)

const (
	providerID      = "microsoft365"
	defaultBaseURL  = "https://graph.microsoft.com/v1.0"
	defaultLoginURL = "https://login.microsoftonline.com"
)

type Config struct {
	Enabled      bool   `yaml:"enabled"`
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// LicenseSKU is the subscribed SKU GUID assigned to new users.
	// Empty means users are created unlicensed.
	LicenseSKU string `yaml:"license_sku"`
	// UsageLocation is required by Graph before a license can be
	// assigned.
	UsageLocation string `yaml:"usage_location"`
	BaseURL       string `yaml:"base_url"`
	LoginURL      string `yaml:"login_url"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	tokens     *tokencache.Cache
	logger     zerolog.Logger
}

func New(cfg Config, tokens *tokencache.Cache, logger zerolog.Logger) *Client {
	if cfg.UsageLocation == "" {
		cfg.UsageLocation = "US"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		logger:     logger,
	}
}

func (c *Client) ID() string          { return providerID }
func (c *Client) DisplayName() string { return "Microsoft 365" }
func (c *Client) Enabled() bool       { return c.cfg.Enabled }

func (c *Client) Configured() bool {
	return c.cfg.TenantID != "" && c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) loginURL() string {
	if c.cfg.LoginURL != "" {
		return c.cfg.LoginURL
	}
	return defaultLoginURL
}

func (c *Client) CreateAccount(ctx context.Context, params provider.CreateAccountParams) (*provider.CreateAccountResult, error) {
	if params.Username == "" || params.Domain == "" || params.Password == "" {
		return nil, provider.E(provider.KindMissingParams, providerID, "username, domain, and password are required")
	}

	addr := params.Address()
	displayName := params.DisplayName
	if displayName == "" {
		displayName = addr
	}

	body := map[string]any{
		"accountEnabled":    true,
		"displayName":       displayName,
		"mailNickname":      params.Username,
		"userPrincipalName": addr,
		"usageLocation":     c.cfg.UsageLocation,
		"passwordProfile": map[string]any{
			"password":                      params.Password,
			"forceChangePasswordNextSignIn": false,
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/users", body, &created); err != nil {
		return nil, err
	}

	if c.cfg.LicenseSKU != "" {
		if err := c.assignLicense(ctx, created.ID); err != nil {
			// The mailbox user exists; licensing can be fixed by an
			// operator without re-provisioning.
			c.logger.Warn().Err(err).Str("address", addr).Str("sku", c.cfg.LicenseSKU).
				Msg("license assignment failed after user creation")
		}
	}

	return &provider.CreateAccountResult{
		Address:    addr,
		ExternalID: created.ID,
		QuotaMB:    params.QuotaMB,
	}, nil
}

func (c *Client) assignLicense(ctx context.Context, userID string) error {
	body := map[string]any{
		"addLicenses":    []map[string]any{{"skuId": c.cfg.LicenseSKU}},
		"removeLicenses": []string{},
	}
	return c.do(ctx, http.MethodPost, "/users/"+userID+"/assignLicense", body, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, address string) error {
	if address == "" {
		return provider.E(provider.KindMissingParams, providerID, "address is required")
	}
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(address), nil, nil)
}

func (c *Client) ChangePassword(ctx context.Context, address, newPassword string) error {
	if newPassword == "" {
		return provider.E(provider.KindMissingParams, providerID, "password is required")
	}
	body := map[string]any{
		"passwordProfile": map[string]any{
			"password":                      newPassword,
			"forceChangePasswordNextSignIn": false,
		},
	}
	return c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(address), body, nil)
}

func (c *Client) AccountInfo(ctx context.Context, address string) (*provider.AccountInfo, error) {
	var user struct {
		ID             string `json:"id"`
		AccountEnabled bool   `json:"accountEnabled"`
	}
	path := "/users/" + url.PathEscape(address) + "?$select=id,accountEnabled"
	if err := c.do(ctx, http.MethodGet, path, nil, &user); err != nil {
		return nil, err
	}

	return &provider.AccountInfo{
		Address:    address,
		ExternalID: user.ID,
		Suspended:  !user.AccountEnabled,
	}, nil
}

func (c *Client) TestConnection(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/organization?$select=id", nil, nil)
}

// do performs an authenticated Graph request. A 401 invalidates the
// cached bearer so the next call re-authenticates.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return provider.Wrap(provider.KindRemoteRejected, providerID, "marshal request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, reader)
	if err != nil {
		return provider.Wrap(provider.KindRemoteRejected, providerID, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Wrap(provider.KindRemoteUnreachable, providerID, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Delete(tokenCacheKey)
		}
		return c.graphError(resp, fmt.Sprintf("%s %s", method, path))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return provider.Wrap(provider.KindRemoteRejected, providerID, "decode response", err)
		}
	}
	return nil
}

// graphError turns a Graph error response into a classified provider
// error using the OData error envelope when present.
func (c *Client) graphError(resp *http.Response, op string) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	kind := provider.KindFromStatus(resp.StatusCode)
	if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "already exists") {
		kind = provider.KindAlreadyExists
	}

	return provider.E(kind, providerID, fmt.Sprintf("%s: status %d: %s", op, resp.StatusCode, msg))
}
