// Package oidc implements the OAuth2/OIDC surface the wallet's clear
// authentication token (CAT) is sourced from: discovery, device-code
// start/poll, refresh, password grant, and PKCE authorization-code
// exchange. It never verifies a JWT signature — token expiry is read on a
// best-effort basis from the unverified payload, matching the wire
// contract the mint's own clients rely on.
package oidc

import (
	"context"
	"encoding/json"
	"sync"

	walletcore "github.com/ecashkit/walletcore"
)

// DiscoveryDoc is the subset of an OIDC discovery document this client
// cares about.
type DiscoveryDoc struct {
	Issuer                     string `json:"issuer"`
	TokenEndpoint              string `json:"token_endpoint"`
	DeviceAuthorizationEndpoint string `json:"device_authorization_endpoint"`
	AuthorizationEndpoint      string `json:"authorization_endpoint"`
}

// Client is a single OIDC provider binding: a discovery URL and a client
// id, plus the transport it shares with the rest of the wallet core.
type Client struct {
	httpClient   walletcore.HttpClient
	clock        walletcore.Clock
	discoveryURL string
	clientID     string

	mu        sync.Mutex
	discovery *DiscoveryDoc
}

// NewClient builds an OIDC client bound to discoveryURL and clientID.
func NewClient(httpClient walletcore.HttpClient, clock walletcore.Clock, discoveryURL, clientID string) *Client {
	if clock == nil {
		clock = walletcore.SystemClock{}
	}
	return &Client{httpClient: httpClient, clock: clock, discoveryURL: discoveryURL, clientID: clientID}
}

// Discover fetches and caches the discovery document. Subsequent calls
// return the cached value without a network round trip.
func (c *Client) Discover(ctx context.Context) (*DiscoveryDoc, error) {
	c.mu.Lock()
	if c.discovery != nil {
		d := c.discovery
		c.mu.Unlock()
		return d, nil
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(ctx, walletcore.HttpRequest{Method: "GET", URL: c.discoveryURL})
	if err != nil {
		return nil, &walletcore.NetworkError{Message: "oidc discovery request failed", Cause: err}
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, &walletcore.HttpResponseError{Status: resp.Status, Message: "oidc discovery"}
	}

	var doc DiscoveryDoc
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, walletcore.ErrOidcDiscoveryInvalid
	}
	if doc.TokenEndpoint == "" {
		return nil, walletcore.ErrOidcDiscoveryInvalid
	}

	c.mu.Lock()
	c.discovery = &doc
	c.mu.Unlock()
	return &doc, nil
}
