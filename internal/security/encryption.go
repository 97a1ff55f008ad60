package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrDecryptFailed is returned when an encrypted token cannot be opened with
// the configured key. Callers treat it the same as an invalid token.
var ErrDecryptFailed = errors.New("token decryption failed")

// encPrefix marks the envelope format version.
const encPrefix = "enc.v1"

// TokenCipher applies envelope encryption to issued tokens: a fresh AES-256-GCM
// key per token, wrapped with RSA-OAEP under the service key pair. The inner
// payload stays a compact JWS, so signature verification is unchanged after
// decryption.
type TokenCipher struct {
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
}

// NewTokenCipher returns a TokenCipher. priv may be nil on services that only
// encrypt (issue) and pub may be nil on services that only decrypt.
func NewTokenCipher(priv *rsa.PrivateKey, pub *rsa.PublicKey) *TokenCipher {
	return &TokenCipher{priv: priv, pub: pub}
}

// Encrypt seals the compact token string. Output format:
// enc.v1.<base64 wrapped key>.<base64 nonce||ciphertext>.
func (c *TokenCipher) Encrypt(token string) (string, error) {
	if c.pub == nil {
		return "", errors.New("encryption public key not configured")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, nonce, []byte(token), nil)

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, c.pub, key, nil)
	if err != nil {
		return "", err
	}

	enc := base64.RawURLEncoding
	return fmt.Sprintf("%s.%s.%s", encPrefix, enc.EncodeToString(wrapped), enc.EncodeToString(append(nonce, sealed...))), nil
}

// Decrypt opens a sealed token produced by Encrypt. Any malformed input, wrong
// key, or tampered ciphertext yields ErrDecryptFailed.
func (c *TokenCipher) Decrypt(sealed string) (string, error) {
	if c.priv == nil {
		return "", errors.New("encryption private key not configured")
	}
	rest, ok := strings.CutPrefix(sealed, encPrefix+".")
	if !ok {
		return "", ErrDecryptFailed
	}
	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 {
		return "", ErrDecryptFailed
	}
	enc := base64.RawURLEncoding
	wrapped, err := enc.DecodeString(parts[0])
	if err != nil {
		return "", ErrDecryptFailed
	}
	payload, err := enc.DecodeString(parts[1])
	if err != nil {
		return "", ErrDecryptFailed
	}
	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, c.priv, wrapped, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrDecryptFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrDecryptFailed
	}
	if len(payload) < gcm.NonceSize() {
		return "", ErrDecryptFailed
	}
	nonce, ciphertext := payload[:gcm.NonceSize()], payload[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}

// IsEncrypted reports whether the token string carries the envelope prefix.
func IsEncrypted(token string) bool {
	return strings.HasPrefix(token, encPrefix+".")
}

// Keyring maps key ids (the X-Key-ID request header) to token ciphers. Keys are
// provisioned at startup and never rotated by this package.
type Keyring struct {
	defaultID string
	ciphers   map[string]*TokenCipher
}

// NewKeyring returns a Keyring with the given default key id.
func NewKeyring(defaultID string) *Keyring {
	return &Keyring{defaultID: defaultID, ciphers: make(map[string]*TokenCipher)}
}

// Add registers a cipher under the given key id.
func (k *Keyring) Add(id string, c *TokenCipher) {
	k.ciphers[id] = c
}

// Get returns the cipher for id, falling back to the default key when id is
// empty. Returns nil when no matching cipher is provisioned.
func (k *Keyring) Get(id string) *TokenCipher {
	if k == nil {
		return nil
	}
	if id == "" {
		id = k.defaultID
	}
	return k.ciphers[id]
}

// DefaultID returns the keyring's default key id.
func (k *Keyring) DefaultID() string {
	return k.defaultID
}
