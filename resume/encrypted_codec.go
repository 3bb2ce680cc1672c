package resume

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/streamcrypt/enginecore/internal/pae"
)

const (
	encryptedCodecMinKeyLen = 32
	encryptedCodecSaltLen   = 32
	encryptedStateHKDFInfo  = "enginecore-checkpoint-state-v1"
	encryptedStateNoncePurp = "enginecore-checkpoint-nonce-v1"
)

// EncryptedStateCodec wraps a persisted checkpoint State in an
// authenticated-encryption envelope, mirroring the teacher's chunked
// envelope construction (HKDF-derived encryption key, HMAC-derived nonce)
// collapsed to a single opaque blob since one checkpoint is small enough to
// never need chunking.
type EncryptedStateCodec struct {
	key []byte
}

// NewEncryptedStateCodec returns a codec using key (at least 32 bytes) to
// derive per-blob encryption keys and nonces.
func NewEncryptedStateCodec(key []byte) (*EncryptedStateCodec, error) {
	if len(key) < encryptedCodecMinKeyLen {
		return nil, fmt.Errorf("%w: encrypted state codec key must be at least %d bytes", ErrInvalidCodecKey, encryptedCodecMinKeyLen)
	}
	return &EncryptedStateCodec{key: append([]byte(nil), key...)}, nil
}

// Seal serializes s to JSON and encrypts it, returning salt || ciphertext ||
// tag as a single opaque blob.
func (c *EncryptedStateCodec) Seal(s State) ([]byte, error) {
	plaintext, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal checkpoint state: %w", err)
	}

	salt := make([]byte, encryptedCodecSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("unable to generate salt: %w", err)
	}

	encKey, nonceKey, err := c.deriveKeys(salt)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(encKey)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize aead: %w", err)
	}

	nonce, err := c.deriveNonce(nonceKey, salt)
	if err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, salt)

	out := make([]byte, 0, len(salt)+len(sealed))
	out = append(out, salt...)
	out = append(out, sealed...)
	return out, nil
}

// Open reverses Seal, verifying authenticity before returning the decoded
// State.
func (c *EncryptedStateCodec) Open(blob []byte) (State, error) {
	if len(blob) < encryptedCodecSaltLen+chacha20poly1305.Overhead {
		return State{}, ErrEncryptedStateTruncated
	}

	salt := blob[:encryptedCodecSaltLen]
	sealed := blob[encryptedCodecSaltLen:]

	encKey, nonceKey, err := c.deriveKeys(salt)
	if err != nil {
		return State{}, err
	}

	aead, err := chacha20poly1305.New(encKey)
	if err != nil {
		return State{}, fmt.Errorf("unable to initialize aead: %w", err)
	}

	nonce, err := c.deriveNonce(nonceKey, salt)
	if err != nil {
		return State{}, err
	}

	plaintext, err := aead.Open(nil, nonce, sealed, salt)
	if err != nil {
		return State{}, ErrEncryptedStateAuthFailed
	}

	var s State
	if err := json.Unmarshal(plaintext, &s); err != nil {
		return State{}, fmt.Errorf("unable to unmarshal checkpoint state: %w", err)
	}
	return s, nil
}

func (c *EncryptedStateCodec) deriveKeys(salt []byte) (encKey, nonceKey []byte, err error) {
	h := hkdf.New(sha256.New, c.key, salt, []byte(encryptedStateHKDFInfo))
	material := make([]byte, chacha20poly1305.KeySize+sha256.Size)
	if _, err := io.ReadFull(h, material); err != nil {
		return nil, nil, fmt.Errorf("unable to derive checkpoint keys: %w", err)
	}
	return material[:chacha20poly1305.KeySize], material[chacha20poly1305.KeySize:], nil
}

func (c *EncryptedStateCodec) deriveNonce(nonceKey, salt []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, nonceKey)
	aad, err := pae.PreAuthenticationEncoding([]byte(encryptedStateNoncePurp), salt)
	if err != nil {
		return nil, fmt.Errorf("unable to pack nonce derivation input: %w", err)
	}
	mac.Write(aad)
	sum := mac.Sum(nil)
	return sum[:chacha20poly1305.NonceSize], nil
}
