package handler

import (
	"worldpass/internal/vc/service"
)

// ChallengeResponse is the body for POST /v1/challenge/new.
type ChallengeResponse struct {
	Challenge string `json:"challenge"`
	ExpiresAt int64  `json:"expires_at"`
}

// VerifyResponse is the shared result shape for the verification endpoints.
type VerifyResponse struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason"`
	Issuer  string `json:"issuer,omitempty"`
	Subject string `json:"subject,omitempty"`
	Revoked bool   `json:"revoked"`
}

func fromResult(result service.VerificationResult) VerifyResponse {
	return VerifyResponse{
		Valid:   result.Valid,
		Reason:  result.Reason,
		Issuer:  result.Issuer,
		Subject: result.Subject,
		Revoked: result.Revoked,
	}
}

// RevokeResponse is the body for the revocation endpoints.
type RevokeResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the body for GET /v1/status/{vc_id}.
type StatusResponse struct {
	VCID      string `json:"vc_id"`
	Status    string `json:"status"`
	UpdatedAt *int64 `json:"updated_at,omitempty"`
}
