package handler

import (
	"encoding/json"

	dErrors "worldpass/pkg/domain-errors"
)

// Challenge TTL bounds accepted from clients, in seconds. The service
// applies its own ceiling on top.
const (
	minTTLSeconds = 30
	maxTTLSeconds = 600
)

// ChallengeRequest is the body for POST /v1/challenge/new.
type ChallengeRequest struct {
	Audience   string `json:"aud"`
	TTLSeconds int    `json:"ttl_seconds"`
}

func (r *ChallengeRequest) Validate() error {
	if r.TTLSeconds == 0 {
		r.TTLSeconds = maxTTLSeconds
	}
	if r.TTLSeconds < minTTLSeconds || r.TTLSeconds > maxTTLSeconds {
		return dErrors.Newf(dErrors.CodeValidation, "ttl_seconds must be between %d and %d", minTTLSeconds, maxTTLSeconds)
	}
	return nil
}

// VerifyCredentialRequest is the body for POST /v1/vc/verify. The credential
// stays raw through HTTP decoding; credential.FromJSON preserves number
// literals, which the proof check depends on.
type VerifyCredentialRequest struct {
	VC json.RawMessage `json:"vc"`
}

func (r *VerifyCredentialRequest) Validate() error {
	if len(r.VC) == 0 {
		return dErrors.New(dErrors.CodeValidation, "vc is required")
	}
	return nil
}

// RevokeRequest is the body for POST /v1/revoke.
type RevokeRequest struct {
	VCID   string   `json:"vc_id"`
	VCIDs  []string `json:"vc_ids,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

func (r *RevokeRequest) Validate() error {
	if r.VCID == "" && len(r.VCIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "vc_id or vc_ids is required")
	}
	if r.VCID != "" && len(r.VCIDs) > 0 {
		return dErrors.New(dErrors.CodeValidation, "vc_id and vc_ids are mutually exclusive")
	}
	return nil
}
