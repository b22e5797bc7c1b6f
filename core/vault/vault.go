package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"calsync/core/errors"
)

// versionV1 tags sealed values produced with ChaCha20-Poly1305 and a random
// 12-byte nonce. The tag is parsed independently of the payload so later
// versions can change the algorithm without breaking stored values.
const versionV1 = "v1"

const keySize = chacha20poly1305.KeySize

// Vault seals OAuth credentials at rest with a process-wide symmetric key.
type Vault struct {
	aead cipher.AEAD
}

var (
	instance *Vault
	mu       sync.RWMutex
)

// New builds a vault from the externally supplied key, accepted hex or base64
// encoded. Anything that does not decode to exactly 32 bytes is a hard
// misconfiguration failure.
func New(encodedKey string) (*Vault, error) {
	if encodedKey == "" {
		return nil, errors.NewAppError(errors.ErrCrypto, "vault key is not configured", nil)
	}

	key, err := decodeKey(encodedKey)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCrypto, "vault key is not valid hex or base64", err)
	}
	if len(key) != keySize {
		return nil, errors.NewAppError(errors.ErrCrypto, "vault key must decode to exactly 32 bytes", nil)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCrypto, "failed to initialize cipher", err)
	}

	return &Vault{aead: aead}, nil
}

func Init(encodedKey string) error {
	v, err := New(encodedKey)
	if err != nil {
		return err
	}
	mu.Lock()
	instance = v
	mu.Unlock()
	return nil
}

// Get returns the process-wide vault. It fails rather than returning a vault
// that silently produces garbage.
func Get() (*Vault, error) {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return nil, errors.NewAppError(errors.ErrCrypto, "vault is not initialized", nil)
	}
	return instance, nil
}

func decodeKey(encoded string) ([]byte, error) {
	if key, err := hex.DecodeString(encoded); err == nil {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return key, nil
	}
	return base64.RawStdEncoding.DecodeString(encoded)
}

// Encrypt seals a plaintext. An empty plaintext yields nil so the absence of a
// refresh token stays representable as NULL, not an empty ciphertext.
func (v *Vault) Encrypt(plaintext *string) (*string, error) {
	if plaintext == nil || *plaintext == "" {
		return nil, nil
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.NewAppError(errors.ErrCrypto, "failed to generate nonce", err)
	}

	sealed := v.aead.Seal(nil, nonce, []byte(*plaintext), nil)
	out := versionV1 + ":" + base64.StdEncoding.EncodeToString(nonce) + ":" + base64.StdEncoding.EncodeToString(sealed)
	return &out, nil
}

// Decrypt opens a sealed value. A nil sealed value decrypts to nil. Any
// malformed payload or authentication failure is a hard CryptoError.
func (v *Vault) Decrypt(sealed *string) (*string, error) {
	if sealed == nil || *sealed == "" {
		return nil, nil
	}

	parts := strings.SplitN(*sealed, ":", 3)
	if len(parts) != 3 {
		return nil, errors.NewAppError(errors.ErrCrypto, "sealed value is malformed", nil)
	}
	if parts[0] != versionV1 {
		return nil, errors.NewAppError(errors.ErrCrypto, "unsupported sealed value version "+parts[0], nil)
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(nonce) != v.aead.NonceSize() {
		return nil, errors.NewAppError(errors.ErrCrypto, "sealed value nonce is malformed", err)
	}

	payload, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCrypto, "sealed value payload is malformed", err)
	}

	plaintext, err := v.aead.Open(nil, nonce, payload, nil)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCrypto, "sealed value failed authentication", err)
	}

	out := string(plaintext)
	return &out, nil
}

// DecryptValue is Decrypt for callers that require a present value.
func (v *Vault) DecryptValue(sealed string) (string, error) {
	out, err := v.Decrypt(&sealed)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", errors.NewAppError(errors.ErrCrypto, "sealed value is empty", nil)
	}
	return *out, nil
}
