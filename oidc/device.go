package oidc

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	walletcore "github.com/ecashkit/walletcore"
)

// DeviceCodeResponse is the provider's response to starting a device-code
// flow.
type DeviceCodeResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	Interval                int    `json:"interval"`
	ExpiresIn               int    `json:"expires_in"`
}

const deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

// DeviceStart begins a device-code flow for scope.
func (c *Client) DeviceStart(ctx context.Context, scope string) (*DeviceCodeResponse, error) {
	doc, err := c.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if doc.DeviceAuthorizationEndpoint == "" {
		return nil, walletcore.ErrOidcDiscoveryInvalid
	}

	form := url.Values{"client_id": {c.clientID}}
	if scope != "" {
		form.Set("scope", scope)
	}
	body := []byte(encodeForm(form))
	resp, err := c.httpClient.Do(ctx, walletcore.HttpRequest{
		Method:  "POST",
		URL:     doc.DeviceAuthorizationEndpoint,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    body,
	})
	if err != nil {
		return nil, &walletcore.NetworkError{Message: "device authorization request failed", Cause: err}
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, &walletcore.HttpResponseError{Status: resp.Status, Message: "device authorization"}
	}

	var dc DeviceCodeResponse
	if err := json.Unmarshal(resp.Body, &dc); err != nil {
		return nil, err
	}
	if dc.Interval <= 0 {
		dc.Interval = 5
	}
	return &dc, nil
}

// Sleeper abstracts the poll loop's delay so tests can run it without
// waiting in real time.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper sleeps on the wall clock.
type RealSleeper struct{}

// Sleep implements Sleeper.
func (RealSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// DevicePoll drives the device-code polling loop to completion: it sleeps
// interval seconds, asks the token endpoint whether the user has approved
// the code yet, and repeats until it gets a token, a terminal error, the
// provider's expires_in elapses, or cancel fires. cancel is checked before
// every sleep, never mid-sleep, matching the spec's "next pre-sleep check"
// cancellation contract.
func (c *Client) DevicePoll(ctx context.Context, sleeper Sleeper, deviceCode string, intervalSeconds, expiresInSeconds int, cancel <-chan struct{}) (*Token, error) {
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	interval := intervalSeconds
	if interval <= 0 {
		interval = 5
	}

	deadline := c.clock.NowMs() + int64(expiresInSeconds)*1000
	if expiresInSeconds <= 0 {
		deadline = 0 // no deadline
	}

	for {
		select {
		case <-cancel:
			return nil, walletcore.ErrCancelled
		default:
		}
		if deadline != 0 && c.clock.NowMs() >= deadline {
			return nil, &walletcore.OidcTokenError{Code: "expired_token", Description: "device code expired before authorization completed"}
		}

		sleeper.Sleep(time.Duration(interval) * time.Second)

		doc, err := c.Discover(ctx)
		if err != nil {
			return nil, err
		}
		form := url.Values{
			"grant_type":  {deviceGrantType},
			"device_code": {deviceCode},
			"client_id":   {c.clientID},
		}
		tr, err := c.postForm(ctx, doc.TokenEndpoint, form)
		if err != nil {
			return nil, err
		}

		if tr.AccessToken != "" {
			return c.handleTokenResponse(tr)
		}

		switch tr.Error {
		case "authorization_pending":
			continue
		case "slow_down":
			next := interval * 2
			if interval+5 > next {
				next = interval + 5
			}
			interval = next
			continue
		default:
			return nil, &walletcore.OidcTokenError{Code: tr.Error, Description: tr.ErrorDescription}
		}
	}
}
