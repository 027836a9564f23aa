package credential

import (
	"encoding/json"
	"fmt"

	"worldpass/internal/vc/keys"
)

// header is the fixed JWS header. It is not negotiable per credential; the
// struct marshals in field order, producing {"alg":"EdDSA","typ":"JWT"}.
type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

var fixedHeader = header{Alg: "EdDSA", Typ: "JWT"}

// CanonicalMessage produces the byte message that gets signed:
// b64u(json(header)) + "." + b64u(json(payload)). The canonical JSON form is
// compact with lexicographically sorted object keys, which is what
// encoding/json emits for maps. The payload must not contain a proof field;
// callers strip it with WithoutProof before verification.
func CanonicalMessage(payload Credential) ([]byte, error) {
	hdr, err := json.Marshal(fixedHeader)
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	body, err := json.Marshal(map[string]any(payload))
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	msg := keys.Encode(hdr) + "." + keys.Encode(body)
	return []byte(msg), nil
}
