// Package secret implements the tagged-secret envelope and the two
// well-known spending conditions built on top of it: P2PK (pay-to-public-
// key, with multisig/locktime/refund) and HTLC (hash-time-locked,
// preimage-gated). A secret that is not a JSON array is treated as an
// opaque, unconditional bearer secret, and an envelope of any other kind as
// unconditional; a JSON array that does not parse as an envelope is
// reported as an error.
package secret

import (
	"encoding/json"
	"errors"
)

// Kind tags the body of a secret envelope.
type Kind string

const (
	KindP2PK Kind = "P2PK"
	KindHTLC Kind = "HTLC"
)

var (
	ErrMalformedSecret = errors.New("secret: malformed secret envelope")
	ErrWrongKind       = errors.New("secret: operation does not apply to this secret kind")
)

// Tag is one (key, value...) array from the envelope's tags list.
type Tag []string

// Key returns the tag's first element, or "" if empty.
func (t Tag) Key() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Values returns everything after the key.
func (t Tag) Values() []string {
	if len(t) <= 1 {
		return nil
	}
	return t[1:]
}

// Tags is the ordered list of (key, value...) arrays on a secret body.
type Tags []Tag

// Get returns the values for the first tag matching key.
func (ts Tags) Get(key string) ([]string, bool) {
	for _, t := range ts {
		if t.Key() == key {
			return t.Values(), true
		}
	}
	return nil, false
}

// Body is the kind-dependent payload of a secret envelope.
type Body struct {
	Nonce string `json:"nonce"`
	Data  string `json:"data"`
	Tags  Tags   `json:"tags,omitempty"`
}

// Envelope is a parsed ["kind", body] tagged secret.
type Envelope struct {
	Kind Kind
	Body Body
}

// MarshalJSON renders the envelope as the wire's 2-element JSON array.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{e.Kind, e.Body})
}

// UnmarshalJSON parses strict ["kind", {nonce, data, tags?}]; missing
// required fields are ErrMalformedSecret, not zero-valued.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) != 2 {
		return ErrMalformedSecret
	}
	var kind string
	if err := json.Unmarshal(raw[0], &kind); err != nil {
		return ErrMalformedSecret
	}
	var body Body
	if err := json.Unmarshal(raw[1], &body); err != nil {
		return ErrMalformedSecret
	}
	if body.Nonce == "" || body.Data == "" {
		return ErrMalformedSecret
	}
	e.Kind = Kind(kind)
	e.Body = body
	return nil
}

// Parse attempts to interpret raw as a tagged-secret envelope. Valid JSON
// that isn't a 2-element array, or that lacks a required field, returns
// ErrMalformedSecret; input that isn't valid JSON at all (including an
// opaque bearer secret) returns encoding/json's syntax error. Parse does
// not tell an opaque secret from a malformed envelope; use
// LooksLikeEnvelope to decide whether a secret is an envelope first.
func Parse(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// LooksLikeEnvelope reports whether raw is at least syntactically a JSON
// array, i.e. whether a Parse failure should be treated as a malformed
// spending condition rather than as an ordinary opaque secret.
func LooksLikeEnvelope(raw []byte) bool {
	trimmed := jsonTrimLeadingSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func jsonTrimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}
