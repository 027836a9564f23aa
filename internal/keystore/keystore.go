// Package keystore reads and writes password-protected identity files. A
// keystore blob is a small JSON envelope ("kty": "wpks") holding an
// AES-256-GCM sealed identity; the key is derived from the password with
// either Argon2id or PBKDF2-SHA256. Version 1 blobs predate the kdf field
// and always used Argon2id with standard base64 encoding.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Supported key derivation functions.
const (
	KDFArgon2id = "argon2id"
	KDFPBKDF2   = "pbkdf2-sha256"
)

const (
	blobKind    = "wpks"
	blobVersion = 2

	saltSize  = 16
	nonceSize = 12
	keySize   = 32

	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 2

	pbkdf2Iterations = 300_000
)

var (
	// ErrWrongPasswordOrCorrupt is returned when the sealed identity fails to
	// open. AEAD failure cannot distinguish a bad password from a damaged
	// blob, so neither is named.
	ErrWrongPasswordOrCorrupt = errors.New("keystore: wrong password or corrupt file")

	// ErrUnsupportedKDF is returned for a kdf value this build does not know.
	ErrUnsupportedKDF = errors.New("keystore: unsupported kdf")
)

// Identity is the plaintext content of a keystore blob. Keys are carried as
// url-safe base64 without padding; the secret key is the 32-byte Ed25519
// seed.
type Identity struct {
	DID    string `json:"did"`
	SKb64u string `json:"sk_b64u"`
	PKb64u string `json:"pk_b64u"`
}

type blob struct {
	Kty     string `json:"kty"`
	Version int    `json:"version"`
	KDF     string `json:"kdf,omitempty"`
	Salt    string `json:"salt"`
	Nonce   string `json:"nonce"`
	CT      string `json:"ct"`
}

func deriveKey(kdf, password string, salt []byte) ([]byte, error) {
	switch kdf {
	case KDFArgon2id:
		return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keySize), nil
	case KDFPBKDF2:
		return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keySize, sha256.New), nil
	default:
		return nil, ErrUnsupportedKDF
	}
}

func seal(key, nonce, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

func open(key, nonce, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPasswordOrCorrupt
	}
	return plaintext, nil
}

func b64u(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func fromB64u(value string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
}

// Encrypt seals an identity under a password. kdf selects the derivation
// function; empty defaults to PBKDF2-SHA256.
func Encrypt(password string, identity Identity, kdf string) ([]byte, error) {
	if kdf == "" {
		kdf = KDFPBKDF2
	}
	kdf = strings.ToLower(kdf)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}

	key, err := deriveKey(kdf, password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(identity)
	if err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	ciphertext, err := seal(key, nonce, plaintext)
	if err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}

	out := blob{
		Kty:     blobKind,
		Version: blobVersion,
		KDF:     kdf,
		Salt:    b64u(salt),
		Nonce:   b64u(nonce),
		CT:      b64u(ciphertext),
	}
	return json.MarshalIndent(out, "", "  ")
}

// Decrypt opens a keystore blob with the given password. Both current and
// version 1 blobs are accepted.
func Decrypt(password string, blobBytes []byte) (Identity, error) {
	var b blob
	if err := json.Unmarshal(blobBytes, &b); err != nil {
		return Identity{}, ErrWrongPasswordOrCorrupt
	}
	if b.Version == 0 {
		b.Version = 1
	}

	var salt, nonce, ciphertext, key []byte
	var err error
	if b.Version == 1 {
		// Legacy blobs used standard base64 and always Argon2id.
		if salt, err = base64.StdEncoding.DecodeString(b.Salt); err != nil {
			return Identity{}, ErrWrongPasswordOrCorrupt
		}
		if nonce, err = base64.StdEncoding.DecodeString(b.Nonce); err != nil {
			return Identity{}, ErrWrongPasswordOrCorrupt
		}
		if ciphertext, err = base64.StdEncoding.DecodeString(b.CT); err != nil {
			return Identity{}, ErrWrongPasswordOrCorrupt
		}
		key, err = deriveKey(KDFArgon2id, password, salt)
	} else {
		if salt, err = fromB64u(b.Salt); err != nil {
			return Identity{}, ErrWrongPasswordOrCorrupt
		}
		if nonce, err = fromB64u(b.Nonce); err != nil {
			return Identity{}, ErrWrongPasswordOrCorrupt
		}
		if ciphertext, err = fromB64u(b.CT); err != nil {
			return Identity{}, ErrWrongPasswordOrCorrupt
		}
		kdf := strings.ToLower(b.KDF)
		if kdf == "" {
			kdf = KDFArgon2id
		}
		key, err = deriveKey(kdf, password, salt)
	}
	if err != nil {
		return Identity{}, err
	}

	plaintext, err := open(key, nonce, ciphertext)
	if err != nil {
		return Identity{}, err
	}

	var identity Identity
	if err := json.Unmarshal(plaintext, &identity); err != nil {
		return Identity{}, ErrWrongPasswordOrCorrupt
	}
	return identity, nil
}
