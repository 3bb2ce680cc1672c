package paillier

import "errors"

var (
	// InvalidSeedLength is returned when the HKDF-derived DRBG seed is
	// shorter than 32 bytes.
	InvalidSeedLength = errors.New("paillier: seed must be at least 32 bytes")

	// InvalidBitLength is returned when bits is below 2048 or odd.
	InvalidBitLength = errors.New("paillier: bits must be >= 2048 and even")

	// InvalidMillerRabinRounds is returned when k is below 64.
	InvalidMillerRabinRounds = errors.New("paillier: miller-rabin rounds must be >= 64")

	// InvalidPrivateKeyLength is returned when an ECDH private key input is
	// not exactly 32 bytes.
	InvalidPrivateKeyLength = errors.New("paillier: ecdh private key must be 32 bytes")

	// InvalidPublicKeyLength is returned when an ECDH public key input is
	// not 33 or 65 bytes, or a 65-byte key's leading byte is not 0x04.
	InvalidPublicKeyLength = errors.New("paillier: ecdh public key must be 33 or 65 bytes with a valid prefix")

	// PrimeGenerationFailed is returned when no candidate survives the
	// fixed attempt budget for a prime.
	PrimeGenerationFailed = errors.New("paillier: prime generation failed to find a candidate")

	// KeyPairValidationFailed is returned when the post-assembly self-test
	// (encrypt/decrypt 42) does not round-trip.
	KeyPairValidationFailed = errors.New("paillier: key pair self-test failed")
)
