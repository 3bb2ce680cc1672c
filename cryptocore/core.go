// Package cryptocore provides the ECIES/AES-GCM/secp256k1 primitive surface
// that the rest of this module treats as an external capability: it is
// consumed, never reimplemented, by chunkcodec, multirecipient, stream,
// resume and paillier.
//
// This separation mirrors the teacher pack's "Mode"-selected cipher suites
// (crypto/encryption): callers depend on the CryptoCore interface, and a
// single default implementation backs it in production.
package cryptocore

import "io"

// CryptoCore groups every cryptographic primitive the streaming engine and
// the Paillier bridge need, so that each component takes one dependency
// instead of reaching for crypto/elliptic, crypto/aes and crypto/hkdf
// individually.
type CryptoCore interface {
	// GenerateKeyPair returns a fresh secp256k1 private/public key pair.
	GenerateKeyPair() (priv []byte, pub []byte, err error)

	// EciesEncryptSingle encrypts plaintext to recipientPub using single-shot
	// ECIES with an 8-byte big-endian length prefix carried inside the
	// ECIES payload.
	EciesEncryptSingle(recipientPub, plaintext []byte) ([]byte, error)
	// EciesDecryptSingle decrypts the output of EciesEncryptSingle.
	EciesDecryptSingle(recipientPriv, ciphertext []byte) ([]byte, error)

	// AESGCMEncrypt encrypts plaintext with AES-256-GCM under key/iv/aad,
	// returning ciphertext and the 16-byte authentication tag separately.
	AESGCMEncrypt(key, iv, plaintext, aad []byte) (ciphertext, tag []byte, err error)
	// AESGCMDecrypt verifies tag and decrypts ciphertext with AES-256-GCM.
	AESGCMDecrypt(key, iv, ciphertext, tag, aad []byte) (plaintext []byte, err error)

	// RandomBytes returns n cryptographically random bytes.
	RandomBytes(n int) ([]byte, error)

	// SHA256 and SHA512 are keyless digests.
	SHA256(data []byte) [32]byte
	SHA512(data []byte) [64]byte
	// HMACSHA512 is a keyed MAC over SHA-512.
	HMACSHA512(key, data []byte) [64]byte

	// HKDF runs HMAC-based extract-and-expand key derivation over the given
	// hash constructor.
	HKDF(hash HashFunc, ikm, salt, info []byte, length int) ([]byte, error)

	// Secp256k1SharedSecret computes the uncompressed ECDH point between
	// priv and pub, returning all 65 bytes.
	Secp256k1SharedSecret(priv32 []byte, pub []byte) ([]byte, error)
}

// HashFunc identifies a hash constructor usable by HKDF, matching the
// subset crypto/hkdf and this module need.
type HashFunc int

const (
	// SHA256Hash selects crypto/sha256.New.
	SHA256Hash HashFunc = iota
	// SHA512Hash selects crypto/sha512.New.
	SHA512Hash
)

// Default returns the production CryptoCore implementation: ECIES over
// secp256k1, AES-256-GCM, and HKDF/HMAC over SHA-256/SHA-512.
func Default() CryptoCore {
	return &defaultCore{rand: cryptoRandReader{}}
}

// cryptoRandReader indirects crypto/rand.Reader so tests can substitute a
// deterministic source without touching package-level state.
type cryptoRandReader struct{}

func (cryptoRandReader) Read(p []byte) (int, error) { return readCryptoRand(p) }

var _ io.Reader = cryptoRandReader{}
