// Package gworkspace provisions Google Workspace users through the
// Admin SDK Directory API. Authentication uses a service account with
// domain-wide delegation, impersonating a workspace admin.
package gworkspace

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/edvin/mailhub/internal/provider"
	"github.com/edvin/mailhub/internal/provider/tokencache"
)

const (
	providerID     = "gworkspace"
	defaultBaseURL = "https://admin.googleapis.com/admin/directory/v1"
)

type Config struct {
	Enabled bool `yaml:"enabled"`
	// ServiceAccountEmail is the client_email from the service account
	// JSON key file.
	ServiceAccountEmail string `yaml:"service_account_email"`
	// PrivateKey is the PEM-encoded private key from the same file.
	PrivateKey string `yaml:"private_key"`
	// Subject is the workspace admin the service account impersonates.
	// Delegation must be granted for the directory user scope.
	Subject  string `yaml:"subject"`
	BaseURL  string `yaml:"base_url"`
	TokenURL string `yaml:"token_url"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	tokens     *tokencache.Cache

	keyOnce sync.Once
	key     *rsa.PrivateKey
	keyErr  error
}

func New(cfg Config, tokens *tokencache.Cache) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
	}
}

func (c *Client) ID() string          { return providerID }
func (c *Client) DisplayName() string { return "Google Workspace" }
func (c *Client) Enabled() bool       { return c.cfg.Enabled }

func (c *Client) Configured() bool {
	return c.cfg.ServiceAccountEmail != "" && c.cfg.PrivateKey != "" && c.cfg.Subject != ""
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) CreateAccount(ctx context.Context, params provider.CreateAccountParams) (*provider.CreateAccountResult, error) {
	if params.Username == "" || params.Domain == "" || params.Password == "" {
		return nil, provider.E(provider.KindMissingParams, providerID, "username, domain, and password are required")
	}

	addr := params.Address()
	given, family := splitDisplayName(params.DisplayName, params.Username)

	body := map[string]any{
		"primaryEmail": addr,
		"name": map[string]any{
			"givenName":  given,
			"familyName": family,
		},
		"password": params.Password,
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/users", body, &created); err != nil {
		return nil, err
	}

	// Storage follows the domain's subscription; there is no per-user
	// quota knob in the Directory API.
	return &provider.CreateAccountResult{
		Address:    addr,
		ExternalID: created.ID,
		QuotaMB:    params.QuotaMB,
	}, nil
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
	// users.update accepts sparse bodies, so only the password is sent.
	body := map[string]any{"password": newPassword}
	return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(address), body, nil)
}

func (c *Client) AccountInfo(ctx context.Context, address string) (*provider.AccountInfo, error) {
	var user struct {
		ID        string `json:"id"`
		Suspended bool   `json:"suspended"`
	}
	path := "/users/" + url.PathEscape(address) + "?fields=id,suspended"
	if err := c.do(ctx, http.MethodGet, path, nil, &user); err != nil {
		return nil, err
	}

	return &provider.AccountInfo{
		Address:    address,
		ExternalID: user.ID,
		Suspended:  user.Suspended,
	}, nil
}

// TestConnection looks up the impersonated admin, which exercises the
// key, the delegation grant, and the API in one call.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(c.cfg.Subject)+"?fields=primaryEmail", nil, nil)
}

// do performs an authenticated Directory API request. A 401 invalidates
// the cached bearer so the next call re-authenticates.
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
		return c.directoryError(resp, fmt.Sprintf("%s %s", method, path))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return provider.Wrap(provider.KindRemoteRejected, providerID, "decode response", err)
		}
	}
	return nil
}

// directoryError turns an error response into a classified provider
// error using Google's error envelope when present.
func (c *Client) directoryError(resp *http.Response, op string) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	kind := provider.KindFromStatus(resp.StatusCode)
	return provider.E(kind, providerID, fmt.Sprintf("%s: status %d: %s", op, resp.StatusCode, msg))
}

// splitDisplayName breaks a display name into the given and family
// names the Directory API requires, both of which must be non-empty.
func splitDisplayName(displayName, fallback string) (string, string) {
	fields := strings.Fields(displayName)
	switch len(fields) {
	case 0:
		return fallback, fallback
	case 1:
		return fields[0], fields[0]
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
