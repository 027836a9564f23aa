package credential

import "worldpass/internal/vc/keys"

// Reason codes returned by Verify. The HTTP layer surfaces these verbatim.
const (
	ReasonOK               = "ok"
	ReasonMissingProof     = "missing_proof"
	ReasonInvalidSignature = "invalid_signature"
)

// Result is the outcome of a proof check. Expected failures are values, not
// errors: callers render the reason code to end users.
type Result struct {
	OK      bool
	Reason  string
	Issuer  string
	Subject string
}

// Verify validates a signed credential's proof against the public key
// embedded in the proof itself. It proves "this exact body was signed by the
// holder of the key named in its own proof"; whether that key belongs to
// the entity named in the issuer field is established at issuance, not here.
func Verify(signed Credential) Result {
	proof := signed.Proof()
	jws, _ := proof["jws"].(string)
	issuerPK, _ := proof["issuer_pk_b64u"].(string)
	if jws == "" || issuerPK == "" {
		return Result{Reason: ReasonMissingProof}
	}

	msg, err := CanonicalMessage(signed.WithoutProof())
	if err != nil {
		return Result{Reason: ReasonInvalidSignature}
	}
	sig, err := keys.Decode(jws)
	if err != nil {
		return Result{Reason: ReasonInvalidSignature}
	}
	pk, err := keys.Decode(issuerPK)
	if err != nil {
		return Result{Reason: ReasonInvalidSignature}
	}

	ok, err := keys.Verify(pk, msg, sig)
	if err != nil || !ok {
		return Result{Reason: ReasonInvalidSignature}
	}

	return Result{
		OK:      true,
		Reason:  ReasonOK,
		Issuer:  signed.Issuer(),
		Subject: signed.SubjectID(),
	}
}
