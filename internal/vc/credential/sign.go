package credential

import (
	"fmt"
	"time"

	"worldpass/internal/vc/keys"
)

// Sign computes the canonical message over body and returns a copy of body
// with an attached proof. The input must not already carry a proof; any
// existing one is discarded so the signature never covers itself.
//
// The embedded issuer_pk_b64u is self-asserted: it names the key that signed
// this exact credential, nothing more. Binding the issuer DID to that key is
// the issuance-time caller's job.
func Sign(body Credential, signer keys.Keypair, verificationMethod string, now time.Time) (Credential, error) {
	payload := body.WithoutProof()

	msg, err := CanonicalMessage(payload)
	if err != nil {
		return nil, err
	}
	sig, err := keys.Sign(signer.PrivateKey, msg)
	if err != nil {
		return nil, fmt.Errorf("sign credential: %w", err)
	}

	signed := payload.Clone()
	signed["proof"] = map[string]any{
		"type":               ProofType,
		"created":            now.UTC().Format("2006-01-02T15:04:05Z"),
		"proofPurpose":       ProofPurpose,
		"verificationMethod": verificationMethod,
		"jws":                keys.Encode(sig),
		"issuer_pk_b64u":     keys.Encode(signer.PublicKey),
	}
	return signed, nil
}
