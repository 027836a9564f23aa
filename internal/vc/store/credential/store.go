// Package credentialstore persists issued credentials. Payloads are
// encrypted at rest through the vault when one is configured; reads pass
// through a migration shim so legacy plaintext rows written before
// encryption still load.
package credentialstore

import (
	"context"
	"fmt"
	"time"

	"worldpass/internal/vault"
	"worldpass/internal/vc/credential"
)

// Record is one issued credential.
type Record struct {
	VCID       string
	IssuerDID  string
	SubjectDID string
	Payload    credential.Credential
	CreatedAt  time.Time
}

// Store is the issued-credential storage contract.
type Store interface {
	Save(ctx context.Context, rec Record) error
	FindByID(ctx context.Context, vcID string) (Record, error)
	ListByIssuer(ctx context.Context, issuerDID string, limit int) ([]Record, error)
}

// Cipher is the at-rest encryption surface the stores use. Satisfied by
// *vault.Vault; nil means plaintext storage.
type Cipher interface {
	Encrypt(payload credential.Credential) (string, error)
	Decrypt(envelope string) (credential.Credential, error)
}

// encodePayload serializes a payload for storage, encrypting when a cipher
// is configured.
func encodePayload(c Cipher, payload credential.Credential) (string, error) {
	if c == nil {
		raw, err := credential.ToJSON(payload)
		if err != nil {
			return "", fmt.Errorf("encode payload: %w", err)
		}
		return string(raw), nil
	}
	return c.Encrypt(payload)
}

// decodePayload reverses encodePayload. The IsEncrypted shim routes legacy
// plaintext rows around the cipher.
func decodePayload(c Cipher, stored string) (credential.Credential, error) {
	if c == nil || !vault.IsEncrypted(stored) {
		return credential.FromJSON([]byte(stored))
	}
	return c.Decrypt(stored)
}
