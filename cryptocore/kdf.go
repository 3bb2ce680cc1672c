package cryptocore

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
)

func newHMACSHA512(key []byte) hash.Hash {
	return hmac.New(sha512.New, key)
}

func readCryptoRand(p []byte) (int, error) {
	return io.ReadFull(rand.Reader, p)
}

type defaultCore struct {
	rand io.Reader
}

// RandomBytes implements CryptoCore.
func (c *defaultCore) RandomBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length", ErrInvalidInput)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.rand, buf); err != nil {
		return nil, fmt.Errorf("unable to read random bytes: %w", err)
	}
	return buf, nil
}

// SHA256 implements CryptoCore.
func (c *defaultCore) SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// SHA512 implements CryptoCore.
func (c *defaultCore) SHA512(data []byte) [64]byte {
	return sha512.Sum512(data)
}

// HMACSHA512 implements CryptoCore.
func (c *defaultCore) HMACSHA512(key, data []byte) [64]byte {
	h := newHMACSHA512(key)
	h.Write(data)
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (c *defaultCore) HKDF(fn HashFunc, ikm, salt, info []byte, length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: length must be positive", ErrInvalidInput)
	}

	var newHash func() hash.Hash
	switch fn {
	case SHA256Hash:
		newHash = sha256.New
	case SHA512Hash:
		newHash = sha512.New
	default:
		return nil, fmt.Errorf("%w: unsupported hash function", ErrInvalidInput)
	}

	out := make([]byte, length)
	kdf := hkdf.New(newHash, ikm, salt, info)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, fmt.Errorf("unable to derive key material: %w", err)
	}
	return out, nil
}
