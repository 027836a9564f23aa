// Package keys holds the Ed25519 primitives and base64url helpers the
// credential stack is built on. Everything here is deterministic and
// allocation-light; callers decide what to do with failures.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedKey reports a key or signature with the wrong byte length.
	// Well-formed-but-wrong inputs never produce this; they verify as false.
	ErrMalformedKey = errors.New("malformed key or signature")

	// ErrBadEncoding reports input outside the base64url alphabet.
	ErrBadEncoding = errors.New("bad base64url encoding")
)

// Keypair is a raw Ed25519 keypair. The private key is the 64-byte expanded
// form used by crypto/ed25519; Seed returns the 32-byte raw form for storage.
type Keypair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// Generate creates a fresh keypair from crypto/rand.
func Generate() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, fmt.Errorf("generate ed25519 keypair: %w", err)
	}
	return Keypair{PublicKey: pub, PrivateKey: priv}, nil
}

// FromSeed reconstructs a keypair from a 32-byte private key seed.
func FromSeed(seed []byte) (Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return Keypair{}, ErrMalformedKey
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return Keypair{
		PublicKey:  priv.Public().(ed25519.PublicKey),
		PrivateKey: priv,
	}, nil
}

// Seed returns the 32-byte seed of the keypair's private key.
func (k Keypair) Seed() []byte {
	return k.PrivateKey.Seed()
}

// Sign produces a deterministic RFC 8032 signature over msg.
func Sign(priv ed25519.PrivateKey, msg []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrMalformedKey
	}
	return ed25519.Sign(priv, msg), nil
}

// Verify reports whether sig is a valid signature over msg by pub. A wrong
// signature returns (false, nil); only malformed byte lengths return an error.
func Verify(pub ed25519.PublicKey, msg, sig []byte) (bool, error) {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false, ErrMalformedKey
	}
	return ed25519.Verify(pub, msg, sig), nil
}

// Encode returns the unpadded base64url encoding of b.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode decodes unpadded base64url input. Trailing padding is tolerated so
// values produced by padded encoders still parse.
func Decode(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}
	return b, nil
}
