// Package vault encrypts stored credential payloads with a server-held key.
// The contract is strict round-tripping: a payload that goes through
// Encrypt/Decrypt must re-verify bit-identically, so plaintext is the
// compact sorted-key JSON form and decryption preserves numeric literals.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"worldpass/internal/vc/credential"
	"worldpass/internal/vc/keys"
)

// ErrDecryption reports AEAD authentication failure: tampered ciphertext or
// the wrong key. Never swallowed; it means tampering or operator error.
var ErrDecryption = errors.New("credential decryption failed")

const (
	keySize   = 32
	nonceSize = 12

	// Fixed salt for passphrase-derived keys. Acceptable because the
	// passphrase itself is secret and the derived key must be stable across
	// server restarts.
	derivationSalt = "worldpass_vc_encryption_salt_v1"
	kdfIterations  = 100_000
)

// Vault performs AES-256-GCM envelope encryption of credential payloads.
type Vault struct {
	aead cipher.AEAD
}

// New builds a Vault from the configured secret. A secret that decodes to
// exactly 32 key bytes (base64, either alphabet) is used directly; anything
// else is treated as a passphrase and run through PBKDF2-SHA256.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("vault: empty encryption secret")
	}
	key := deriveKey(secret)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return &Vault{aead: aead}, nil
}

func deriveKey(secret string) []byte {
	if k, err := base64.RawURLEncoding.DecodeString(secret); err == nil && len(k) == keySize {
		return k
	}
	if k, err := base64.StdEncoding.DecodeString(secret); err == nil && len(k) == keySize {
		return k
	}
	return pbkdf2.Key([]byte(secret), []byte(derivationSalt), kdfIterations, keySize, sha256.New)
}

// Encrypt serializes payload and returns the opaque envelope string:
// base64url(nonce || ciphertext).
func (v *Vault) Encrypt(payload credential.Credential) (string, error) {
	plaintext, err := credential.ToJSON(payload)
	if err != nil {
		return "", fmt.Errorf("vault: marshal payload: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: %w", err)
	}
	sealed := v.aead.Seal(nonce, nonce, plaintext, nil)
	return keys.Encode(sealed), nil
}

// Decrypt reverses Encrypt. Tampering or a wrong key yields ErrDecryption.
func (v *Vault) Decrypt(envelope string) (credential.Credential, error) {
	sealed, err := keys.Decode(envelope)
	if err != nil {
		return nil, ErrDecryption
	}
	if len(sealed) < nonceSize {
		return nil, ErrDecryption
	}
	plaintext, err := v.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, ErrDecryption
	}
	payload, err := credential.FromJSON(plaintext)
	if err != nil {
		return nil, ErrDecryption
	}
	return payload, nil
}

// IsEncrypted reports whether a stored value looks like an envelope rather
// than legacy plaintext JSON. This is a migration shim for rows written
// before encryption was introduced, not a cryptographic check: anything that
// parses as JSON is treated as plaintext.
func IsEncrypted(value string) bool {
	return !json.Valid([]byte(value))
}
