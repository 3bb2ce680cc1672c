package cryptocore

import "errors"

var (
	// ErrInvalidInput is returned when a caller-supplied argument (key
	// length, IV length, buffer length) does not meet a primitive's
	// preconditions.
	ErrInvalidInput = errors.New("cryptocore: invalid input")

	// ErrAuthenticationFailed is returned by AESGCMDecrypt and
	// EciesDecryptSingle when the AEAD tag does not verify. The underlying
	// cause (wrong key, corrupted ciphertext, tampered AAD) is deliberately
	// not distinguished.
	ErrAuthenticationFailed = errors.New("cryptocore: authentication failed")

	// ErrInvalidPublicKey is returned when a byte string fails to parse as
	// a secp256k1 public key point.
	ErrInvalidPublicKey = errors.New("cryptocore: invalid public key")

	// ErrInvalidPrivateKey is returned when a byte string fails to parse as
	// a secp256k1 private scalar.
	ErrInvalidPrivateKey = errors.New("cryptocore: invalid private key")

	// ErrCiphertextTooShort is returned when an ECIES ciphertext is too
	// short to contain an ephemeral public key, IV and tag.
	ErrCiphertextTooShort = errors.New("cryptocore: ciphertext too short")
)
