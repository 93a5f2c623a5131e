package auth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	walletcore "github.com/ecashkit/walletcore"
	"github.com/ecashkit/walletcore/cashu"
	"github.com/ecashkit/walletcore/curve"
)

// ProtectedEndpoint names one {method, path} pair a mint declares as
// requiring an auth header.
type ProtectedEndpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Nut22Info is the blind-auth capability block from /v1/info.
type Nut22Info struct {
	Disabled           bool                `json:"disabled"`
	BatMaxMint         int                 `json:"bat_max_mint"`
	ProtectedEndpoints []ProtectedEndpoint `json:"protected_endpoints"`
}

// IsProtected reports whether method/path is declared NUT-22 protected.
func (n Nut22Info) IsProtected(method, path string) bool {
	for _, e := range n.ProtectedEndpoints {
		if e.Method == method && e.Path == path {
			return true
		}
	}
	return false
}

// Nut21Info is the clear-auth capability block from /v1/info.
type Nut21Info struct {
	Disabled           bool                `json:"disabled"`
	ClientID           string              `json:"client_id"`
	OpenIDDiscovery    string              `json:"openid_discovery"`
	ProtectedEndpoints []ProtectedEndpoint `json:"protected_endpoints"`
}

// IsProtected reports whether method/path is declared NUT-21 protected.
func (n Nut21Info) IsProtected(method, path string) bool {
	for _, e := range n.ProtectedEndpoints {
		if e.Method == method && e.Path == path {
			return true
		}
	}
	return false
}

// MintInfo is the subset of GET /v1/info this package needs.
type MintInfo struct {
	Name  string
	Nut21 Nut21Info
	Nut22 Nut22Info
}

type mintInfoWire struct {
	Name string                     `json:"name"`
	Nuts map[string]json.RawMessage `json:"nuts"`
}

func (m *AuthManager) fetchMintInfo(ctx context.Context) (*MintInfo, error) {
	resp, err := m.get(ctx, m.mintBaseURL+"/v1/info")
	if err != nil {
		return nil, err
	}
	var wire mintInfoWire
	if err := json.Unmarshal(resp, &wire); err != nil {
		return nil, err
	}
	info := &MintInfo{Name: wire.Name}
	if raw, ok := wire.Nuts["21"]; ok {
		if err := json.Unmarshal(raw, &info.Nut21); err != nil {
			return nil, err
		}
	}
	if raw, ok := wire.Nuts["22"]; ok {
		if err := json.Unmarshal(raw, &info.Nut22); err != nil {
			return nil, err
		}
	}
	return info, nil
}

type authKeysetsWire struct {
	Keysets []struct {
		ID     string `json:"id"`
		Unit   string `json:"unit"`
		Active bool   `json:"active"`
	} `json:"keysets"`
}

type authKeysWire struct {
	Keysets []struct {
		ID   string            `json:"id"`
		Unit string            `json:"unit"`
		Keys map[string]string `json:"keys"`
	} `json:"keysets"`
}

func (m *AuthManager) fetchActiveAuthKeyset(ctx context.Context) (*cashu.Keyset, error) {
	resp, err := m.get(ctx, m.mintBaseURL+"/v1/auth/blind/keysets")
	if err != nil {
		return nil, err
	}
	var ks authKeysetsWire
	if err := json.Unmarshal(resp, &ks); err != nil {
		return nil, err
	}
	var activeID string
	for _, k := range ks.Keysets {
		if k.Active {
			activeID = k.ID
			break
		}
	}
	if activeID == "" {
		return nil, walletcore.ErrNoActiveKeyset
	}

	resp, err = m.get(ctx, m.mintBaseURL+"/v1/auth/blind/keys/"+activeID)
	if err != nil {
		return nil, err
	}
	var keys authKeysWire
	if err := json.Unmarshal(resp, &keys); err != nil {
		return nil, err
	}
	for _, k := range keys.Keysets {
		if k.ID != activeID {
			continue
		}
		parsed := make(map[uint64]*curve.Point, len(k.Keys))
		for amountStr, pubHex := range k.Keys {
			var amount uint64
			if _, err := fmt.Sscanf(amountStr, "%d", &amount); err != nil {
				continue
			}
			b, err := hex.DecodeString(pubHex)
			if err != nil {
				return nil, walletcore.ErrKeyFetchMismatch
			}
			pt, err := curve.Parse(b)
			if err != nil {
				return nil, walletcore.ErrKeyFetchMismatch
			}
			parsed[amount] = pt
		}
		return &cashu.Keyset{ID: activeID, Unit: k.Unit, Active: true, Keys: parsed}, nil
	}
	return nil, walletcore.ErrKeyFetchMismatch
}

// get issues a plain GET and returns the body on a 2xx response.
func (m *AuthManager) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := m.httpClient.Do(ctx, walletcore.HttpRequest{Method: "GET", URL: url})
	if err != nil {
		return nil, &walletcore.NetworkError{Message: "request to " + url + " failed", Cause: err}
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, &walletcore.HttpResponseError{Status: resp.Status, Message: url}
	}
	return resp.Body, nil
}
