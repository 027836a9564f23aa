// Package presentation models the ephemeral structure a holder submits to
// prove possession of the key a credential is bound to. Presentations are
// never persisted.
package presentation

import (
	"encoding/json"
	"strings"

	"worldpass/internal/vc/credential"
)

// TypePresentation is the required value of the type field.
const TypePresentation = "presentation"

// AlgEd25519 is the only holder signature algorithm this system accepts.
const AlgEd25519 = "Ed25519"

// Holder carries the presenting party's claimed identity and their detached
// signature over the challenge message.
type Holder struct {
	DID           string `json:"did"`
	PublicKeyB64u string `json:"pk_b64u"`
	SignatureB64u string `json:"sig_b64u"`
	Alg           string `json:"alg"`
}

// Presentation binds a credential to a single challenge. Audience and Expiry
// are optional and enter the signed message as empty strings when absent.
type Presentation struct {
	Type       string                `json:"type"`
	Challenge  string                `json:"challenge"`
	Audience   string                `json:"aud,omitempty"`
	Expiry     string                `json:"exp,omitempty"`
	Holder     Holder                `json:"holder"`
	Credential credential.Credential `json:"vc"`
}

// HolderMessage reconstructs the exact bytes the holder signed. This is a
// fixed wire contract with presenting clients: challenge, audience, and
// expiry joined with "|", absent optional fields as empty strings. Never as
// a null literal; a client that stringifies nil differently will fail
// verification, which is intended.
func (p Presentation) HolderMessage() []byte {
	return []byte(strings.Join([]string{p.Challenge, p.Audience, p.Expiry}, "|"))
}

// presentationWire mirrors Presentation with a lenient expiry field: clients
// send exp as a number, a string, or null.
type presentationWire struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	Audience  string          `json:"aud"`
	Expiry    json.RawMessage `json:"exp"`
	Holder    Holder          `json:"holder"`
	VC        json.RawMessage `json:"vc"`
}

// Parse decodes a presentation from its wire form. The credential is decoded
// with number preservation so its proof still verifies.
func Parse(raw []byte) (Presentation, error) {
	var w presentationWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Presentation{}, err
	}

	p := Presentation{
		Type:      w.Type,
		Challenge: w.Challenge,
		Audience:  w.Audience,
		Holder:    w.Holder,
		Expiry:    expiryString(w.Expiry),
	}
	if len(w.VC) > 0 {
		vc, err := credential.FromJSON(w.VC)
		if err != nil {
			return Presentation{}, err
		}
		p.Credential = vc
	}
	return p, nil
}

// expiryString normalizes the wire expiry to the string that enters the
// holder message: numbers keep their literal form, null and absent become "".
func expiryString(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return trimmed
}
