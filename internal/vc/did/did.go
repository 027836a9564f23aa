// Package did maps Ed25519 public keys to the simple did:key form used
// throughout the system: "did:key:z" followed by the unpadded base64url
// public key. Full multibase/multicodec did:key is intentionally not
// implemented; this form is the wire contract with holders and verifiers.
package did

import (
	"strings"

	"worldpass/internal/vc/keys"
)

const keyPrefix = "did:key:z"

// FromPublicKey derives the DID for a raw public key. Pure function.
func FromPublicKey(pk []byte) string {
	return keyPrefix + keys.Encode(pk)
}

// FromPublicKeyB64u derives the DID from an already-encoded public key.
// String concatenation, no decode: holder binding compares the claimed DID
// against exactly this derivation.
func FromPublicKeyB64u(pkB64u string) string {
	return keyPrefix + pkB64u
}

// PublicKey is the best-effort inverse of FromPublicKey. It returns
// (nil, false) for DIDs of other methods or undecodable input rather than
// an error: foreign DID strings show up in credential data and must be
// tolerated, not rejected.
func PublicKey(s string) ([]byte, bool) {
	rest, ok := strings.CutPrefix(s, keyPrefix)
	if !ok || rest == "" {
		return nil, false
	}
	pk, err := keys.Decode(rest)
	if err != nil {
		return nil, false
	}
	return pk, true
}
