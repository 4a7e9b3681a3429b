package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edvin/mailhub/internal/provider"
)

const (
	tokenCacheKey = providerID + "/bearer"
	tokenScope    = "https://graph.microsoft.com/.default"
)

// bearerToken returns a cached app-only access token, exchanging client
// credentials against the tenant's token endpoint on a miss. Tokens are
// cached for their lifetime minus a minute of slack.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	if tok, ok := c.tokens.Get(tokenCacheKey); ok {
		return tok, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("scope", tokenScope)

	tokenURL := fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.loginURL(), c.cfg.TenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", provider.Wrap(provider.KindRemoteRejected, providerID, "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", provider.Wrap(provider.KindRemoteUnreachable, providerID, "token exchange", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		kind := provider.KindFromStatus(resp.StatusCode)
		if resp.StatusCode == http.StatusBadRequest {
			// The identity platform reports bad client secrets as 400.
			kind = provider.KindInvalidCredentials
		}
		return "", provider.E(kind, providerID,
			fmt.Sprintf("token exchange: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", provider.Wrap(provider.KindRemoteRejected, providerID, "decode token response", err)
	}
	if result.AccessToken == "" {
		return "", provider.E(provider.KindInvalidCredentials, providerID, "token response missing access_token")
	}

	if ttl := time.Duration(result.ExpiresIn)*time.Second - time.Minute; ttl > 0 {
		c.tokens.Set(tokenCacheKey, result.AccessToken, ttl)
	}
	return result.AccessToken, nil
}
