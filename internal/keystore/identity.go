package keystore

import (
	"errors"

	"worldpass/internal/vc/did"
	"worldpass/internal/vc/keys"
)

// NewIdentity builds a storable identity from a keypair. The DID is derived
// from the public key; the stored secret is the seed, not the expanded
// private key.
func NewIdentity(kp keys.Keypair) Identity {
	return Identity{
		DID:    did.FromPublicKey(kp.PublicKey),
		SKb64u: keys.Encode(kp.Seed()),
		PKb64u: keys.Encode(kp.PublicKey),
	}
}

// Keypair reconstructs the signing keypair from a decrypted identity.
func (id Identity) Keypair() (keys.Keypair, error) {
	seed, err := keys.Decode(id.SKb64u)
	if err != nil {
		return keys.Keypair{}, err
	}
	kp, err := keys.FromSeed(seed)
	if err != nil {
		return keys.Keypair{}, err
	}
	if keys.Encode(kp.PublicKey) != id.PKb64u {
		return keys.Keypair{}, errors.New("keystore: public key does not match secret key")
	}
	return kp, nil
}
