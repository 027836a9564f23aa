package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"worldpass/internal/vc/keys"
)

type KeystoreSuite struct {
	suite.Suite
	identity Identity
}

func TestKeystoreSuite(t *testing.T) {
	suite.Run(t, new(KeystoreSuite))
}

func (s *KeystoreSuite) SetupTest() {
	kp, err := keys.Generate()
	s.Require().NoError(err)
	s.identity = NewIdentity(kp)
}

func (s *KeystoreSuite) TestRoundTripDefaults() {
	sealed, err := Encrypt("hunter2", s.identity, "")
	s.Require().NoError(err)

	got, err := Decrypt("hunter2", sealed)
	s.Require().NoError(err)
	s.Equal(s.identity, got)

	var b blob
	s.Require().NoError(json.Unmarshal(sealed, &b))
	s.Equal("wpks", b.Kty)
	s.Equal(2, b.Version)
	s.Equal(KDFPBKDF2, b.KDF)
}

func (s *KeystoreSuite) TestRoundTripArgon2id() {
	sealed, err := Encrypt("hunter2", s.identity, KDFArgon2id)
	s.Require().NoError(err)

	got, err := Decrypt("hunter2", sealed)
	s.Require().NoError(err)
	s.Equal(s.identity, got)
}

func (s *KeystoreSuite) TestWrongPassword() {
	sealed, err := Encrypt("hunter2", s.identity, "")
	s.Require().NoError(err)

	_, err = Decrypt("not-hunter2", sealed)
	s.ErrorIs(err, ErrWrongPasswordOrCorrupt)
}

func (s *KeystoreSuite) TestCorruptBlob() {
	_, err := Decrypt("hunter2", []byte("not json at all"))
	s.ErrorIs(err, ErrWrongPasswordOrCorrupt)
}

func (s *KeystoreSuite) TestUnsupportedKDF() {
	_, err := Encrypt("hunter2", s.identity, "scrypt")
	s.ErrorIs(err, ErrUnsupportedKDF)

	sealed, err := Encrypt("hunter2", s.identity, "")
	s.Require().NoError(err)
	var b blob
	s.Require().NoError(json.Unmarshal(sealed, &b))
	b.KDF = "scrypt"
	mangled, err := json.Marshal(b)
	s.Require().NoError(err)

	_, err = Decrypt("hunter2", mangled)
	s.ErrorIs(err, ErrUnsupportedKDF)
}

// Version 1 blobs carry no kdf field and use standard base64 encoding.
func (s *KeystoreSuite) TestLegacyVersion1Blob() {
	salt := make([]byte, saltSize)
	nonce := make([]byte, nonceSize)
	_, err := rand.Read(salt)
	s.Require().NoError(err)
	_, err = rand.Read(nonce)
	s.Require().NoError(err)

	key, err := deriveKey(KDFArgon2id, "hunter2", salt)
	s.Require().NoError(err)
	plaintext, err := json.Marshal(s.identity)
	s.Require().NoError(err)
	ciphertext, err := seal(key, nonce, plaintext)
	s.Require().NoError(err)

	legacy, err := json.Marshal(blob{
		Kty:     "wpks",
		Version: 1,
		Salt:    base64.StdEncoding.EncodeToString(salt),
		Nonce:   base64.StdEncoding.EncodeToString(nonce),
		CT:      base64.StdEncoding.EncodeToString(ciphertext),
	})
	s.Require().NoError(err)

	got, err := Decrypt("hunter2", legacy)
	s.Require().NoError(err)
	s.Equal(s.identity, got)
}

func (s *KeystoreSuite) TestIdentityKeypairRoundTrip() {
	kp, err := s.identity.Keypair()
	s.Require().NoError(err)
	s.Equal(s.identity.PKb64u, keys.Encode(kp.PublicKey))

	sig, err := keys.Sign(kp.PrivateKey, []byte("payload"))
	s.Require().NoError(err)
	ok, err := keys.Verify(kp.PublicKey, []byte("payload"), sig)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *KeystoreSuite) TestIdentityKeyMismatch() {
	other, err := keys.Generate()
	s.Require().NoError(err)

	mismatched := s.identity
	mismatched.PKb64u = keys.Encode(other.PublicKey)
	_, err = mismatched.Keypair()
	s.Error(err)
}
