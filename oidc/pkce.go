package oidc

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"

	walletcore "github.com/ecashkit/walletcore"
)

const pkceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// GenerateVerifier returns a PKCE code verifier: 43+ characters drawn from
// the unreserved URL-safe charset RFC 7636 requires.
func GenerateVerifier() (string, error) {
	const length = 64
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, v := range b {
		out[i] = pkceCharset[int(v)%len(pkceCharset)]
	}
	return string(out), nil
}

// Challenge computes the S256 PKCE challenge for verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// AuthCodeURLParams configures BuildAuthCodeURL.
type AuthCodeURLParams struct {
	RedirectURI string
	Scope       string
	State       string
	Verifier    string
}

// BuildAuthCodeURL returns the authorization URL for a PKCE auth-code flow.
func (c *Client) BuildAuthCodeURL(ctx context.Context, params AuthCodeURLParams) (string, error) {
	doc, err := c.Discover(ctx)
	if err != nil {
		return "", err
	}
	if doc.AuthorizationEndpoint == "" {
		return "", walletcore.ErrOidcDiscoveryInvalid
	}

	q := url.Values{
		"response_type":         {"code"},
		"client_id":             {c.clientID},
		"redirect_uri":          {params.RedirectURI},
		"code_challenge":        {Challenge(params.Verifier)},
		"code_challenge_method": {"S256"},
	}
	if params.Scope != "" {
		q.Set("scope", params.Scope)
	}
	if params.State != "" {
		q.Set("state", params.State)
	}
	return fmt.Sprintf("%s?%s", doc.AuthorizationEndpoint, q.Encode()), nil
}

// ExchangeAuthCodeParams is the input to ExchangeAuthCode.
type ExchangeAuthCodeParams struct {
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// ExchangeAuthCode trades an authorization code for tokens.
func (c *Client) ExchangeAuthCode(ctx context.Context, params ExchangeAuthCodeParams) (*Token, error) {
	doc, err := c.Discover(ctx)
	if err != nil {
		return nil, err
	}
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {params.Code},
		"redirect_uri":  {params.RedirectURI},
		"code_verifier": {params.CodeVerifier},
		"client_id":     {c.clientID},
	}
	tr, err := c.postForm(ctx, doc.TokenEndpoint, form)
	if err != nil {
		return nil, err
	}
	return c.handleTokenResponse(tr)
}
