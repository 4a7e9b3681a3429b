package gworkspace

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/edvin/mailhub/internal/provider"
)

const (
	tokenCacheKey   = providerID + "/bearer"
	tokenScope      = "https://www.googleapis.com/auth/admin.directory.user"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	jwtBearerGrant  = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// assertionClaims is the service account assertion Google's token
// endpoint expects: registered claims plus a space-delimited scope.
type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

func (c *Client) tokenURL() string {
	if c.cfg.TokenURL != "" {
		return c.cfg.TokenURL
	}
	return defaultTokenURL
}

// privateKey parses the configured service account key once and caches
// the result. Keys pasted from the JSON key file keep literal \n
// escapes, which are normalized back into newlines first.
func (c *Client) privateKey() (*rsa.PrivateKey, error) {
	c.keyOnce.Do(func() {
		pemBytes := []byte(strings.ReplaceAll(c.cfg.PrivateKey, `\n`, "\n"))
		c.key, c.keyErr = jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	})
	if c.keyErr != nil {
		return nil, provider.Wrap(provider.KindInvalidCredentials, providerID, "parse service account key", c.keyErr)
	}
	return c.key, nil
}

// signAssertion builds the RS256 assertion identifying the service
// account and the admin it impersonates through domain-wide delegation.
func (c *Client) signAssertion() (string, error) {
	key, err := c.privateKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := assertionClaims{
		Scope: tokenScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.ServiceAccountEmail,
			Subject:   c.cfg.Subject,
			Audience:  jwt.ClaimStrings{c.tokenURL()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", provider.Wrap(provider.KindInvalidCredentials, providerID, "sign assertion", err)
	}
	return signed, nil
}

// bearerToken returns a cached delegated access token, exchanging a
// fresh assertion on a miss. Tokens are cached for their lifetime minus
// a minute of slack.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	if tok, ok := c.tokens.Get(tokenCacheKey); ok {
		return tok, nil
	}

	assertion, err := c.signAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(), strings.NewReader(form.Encode()))
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
			// Rejected assertions (bad key, missing delegation) come
			// back as 400 invalid_grant.
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
