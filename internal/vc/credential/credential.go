// Package credential implements signing and verification of verifiable
// credentials: the canonical JWS-like byte message, proof construction, and
// proof validation against the embedded issuer key.
package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Proof field names and fixed values.
const (
	ProofType    = "Ed25519Signature2020"
	ProofPurpose = "assertionMethod"
)

// Credential is a credential body as a generic mapping. Numeric values are
// json.Number (see Decode) so re-serialization reproduces the exact bytes
// that were signed.
type Credential map[string]any

// Decode reads a credential from JSON. UseNumber keeps numeric literals
// verbatim; without it a signed payload with large integers would not
// re-canonicalize to the signed bytes.
func Decode(r io.Reader) (Credential, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var c Credential
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return c, nil
}

// FromJSON parses a credential from raw JSON bytes.
func FromJSON(raw []byte) (Credential, error) {
	return Decode(bytes.NewReader(raw))
}

// ToJSON serializes a credential compactly with sorted keys, the same form
// the canonical message uses.
func ToJSON(c Credential) ([]byte, error) {
	return json.Marshal(map[string]any(c))
}

// Issuer returns the issuer DID string, or "".
func (c Credential) Issuer() string {
	s, _ := c["issuer"].(string)
	return s
}

// SubjectID returns credentialSubject.id, or "" when absent.
func (c Credential) SubjectID() string {
	subject, _ := c["credentialSubject"].(map[string]any)
	if subject == nil {
		return ""
	}
	s, _ := subject["id"].(string)
	return s
}

// JTI returns the credential identifier, or "".
func (c Credential) JTI() string {
	s, _ := c["jti"].(string)
	return s
}

// Proof returns the proof block, or nil.
func (c Credential) Proof() map[string]any {
	p, _ := c["proof"].(map[string]any)
	return p
}

// WithoutProof returns a shallow copy with the proof key removed. Every
// other top-level field is carried over unmodified; the signature covers
// all of them.
func (c Credential) WithoutProof() Credential {
	out := make(Credential, len(c))
	for k, v := range c {
		if k == "proof" {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of the credential.
func (c Credential) Clone() Credential {
	out := make(Credential, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
